package scoring

import "gator-social/internal/utils"

// MinReputation is the floor every account's reputation is clamped to.
const MinReputation uint32 = 1

// ApplyReputation adds delta to current. When the result would be at or below
// the floor, reputation becomes MinReputation and the recorded delta is zero,
// so undoing the action later subtracts nothing.
func ApplyReputation(current uint32, delta int32) (next uint32, recorded int32, err error) {
	sum := int64(current) + int64(delta)
	if sum <= int64(MinReputation) {
		return MinReputation, 0, nil
	}
	if sum > int64(^uint32(0)) {
		return current, 0, utils.NewAppError(utils.ErrArithmetic, "reputation overflow", nil)
	}
	return uint32(sum), delta, nil
}

// RevertReputation subtracts a previously recorded delta, respecting the floor.
func RevertReputation(current uint32, recorded int32) (uint32, error) {
	next, _, err := ApplyReputation(current, -recorded)
	return next, err
}

package scoring

import (
	"math/bits"

	"gator-social/internal/utils"
)

// ScoreDiff is the score delta an actor with the given reputation produces
// for action. The multiplier grows with log2 of reputation, interpolated
// linearly in hundredths between powers of two, and is truncated to an integer
// before the weight is applied.
func ScoreDiff(reputation uint32, action Action, weights Weights) (int32, error) {
	if reputation == 0 {
		reputation = 1
	}
	r := uint64(bits.Len32(reputation) - 1) // floor(log2)
	pow := uint64(1) << r
	d := (uint64(reputation) - pow) * 100 / pow
	multiplier := ((r+1)*100 + d) / 100
	return utils.ToInt32(int64(multiplier)*int64(weights.Weight(action)), "score diff")
}

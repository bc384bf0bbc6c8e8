package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckedAddUnsigned(t *testing.T) {
	v, err := CheckedAdd[uint32](1, 2, "count")
	require.NoError(t, err)
	assert.Equal(t, uint32(3), v)

	_, err = CheckedAdd[uint32](math.MaxUint32, 1, "count")
	assert.True(t, IsErrorCode(err, ErrArithmetic))

	_, err = Inc[uint16](math.MaxUint16, "following")
	assert.True(t, IsErrorCode(err, ErrArithmetic))
}

func TestCheckedSubUnsigned(t *testing.T) {
	_, err := Dec[uint32](0, "followers")
	require.Error(t, err)
	assert.Equal(t, "followers underflow", err.Error())
}

func TestCheckedSigned(t *testing.T) {
	v, err := CheckedAdd[int32](-5, 3, "score")
	require.NoError(t, err)
	assert.Equal(t, int32(-2), v)

	_, err = CheckedAdd[int32](math.MaxInt32, 1, "score")
	assert.True(t, IsErrorCode(err, ErrArithmetic))

	_, err = CheckedAdd[int32](math.MinInt32, -1, "score")
	assert.True(t, IsErrorCode(err, ErrArithmetic))

	_, err = CheckedSub[int32](math.MinInt32, 1, "score")
	assert.True(t, IsErrorCode(err, ErrArithmetic))

	_, err = CheckedSub[int32](math.MaxInt32, -1, "score")
	assert.True(t, IsErrorCode(err, ErrArithmetic))
}

func TestToInt32(t *testing.T) {
	_, err := ToInt32(math.MaxInt32+1, "diff")
	assert.Error(t, err)
	v, err := ToInt32(-7, "diff")
	require.NoError(t, err)
	assert.Equal(t, int32(-7), v)
}

func TestErrorCodes(t *testing.T) {
	err := NewAppError(ErrStorage, "write failed", assert.AnError)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, ErrStorage, CodeOf(err))
	assert.Equal(t, ErrStorage, CodeOf(assert.AnError))
	assert.Equal(t, ErrNotFound, CodeOf(NewNotFoundError("space %d", 1)))
	assert.Equal(t, 409, AppErrorToHTTPStatus(ErrConflict))
	assert.Equal(t, 403, AppErrorToHTTPStatus(ErrForbidden))
}

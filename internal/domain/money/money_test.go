package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFloat(t *testing.T) {
	assert.Equal(t, Money(1999), FromFloat(19.99))
	assert.Equal(t, Money(100), FromFloat(1.0))
	assert.Equal(t, Money(0), FromFloat(0))
	assert.Equal(t, Money(-550), FromFloat(-5.50))

	// 0.1+0.2 style float noise must land on the right cent
	assert.Equal(t, Money(30), FromFloat(0.1+0.2))
}

func TestString(t *testing.T) {
	assert.Equal(t, "12.34", Money(1234).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-0.05", Money(-5).String())
	assert.Equal(t, "100.00", Money(10000).String())
}

func TestMulQuantity(t *testing.T) {
	got, err := MulQuantity(Money(1050), 3)
	require.NoError(t, err)
	assert.Equal(t, Money(3150), got)

	_, err = MulQuantity(Money(-1), 1)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = MulQuantity(Money(100), 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = MulQuantity(Money(100), -2)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSplitByWeights_Proportional(t *testing.T) {
	// 30.00 across weights 30:30:0 -> 15.00, 15.00, 0.00
	shares, err := SplitByWeights(Money(3000), []Money{3000, 3000, 0})
	require.NoError(t, err)
	assert.Equal(t, []Money{1500, 1500, 0}, shares)
}

func TestSplitByWeights_RemainderSumsExactly(t *testing.T) {
	// 1.00 across three equal weights cannot divide evenly
	shares, err := SplitByWeights(Money(100), []Money{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, Money(100), Sum(shares))
	assert.Equal(t, []Money{34, 33, 33}, shares)
}

func TestSplitByWeights_ManyUnevenWeights(t *testing.T) {
	weights := []Money{1999, 1272, 1699, 799, 649, 2699, 1609}
	total := Money(10327)
	shares, err := SplitByWeights(total, weights)
	require.NoError(t, err)
	assert.Equal(t, total, Sum(shares))
	for i, s := range shares {
		assert.GreaterOrEqual(t, s, Money(0), "share %d", i)
	}
}

func TestSplitByWeights_Errors(t *testing.T) {
	_, err := SplitByWeights(Money(-1), []Money{1})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = SplitByWeights(Money(100), nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = SplitByWeights(Money(100), []Money{0, 0})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = SplitByWeights(Money(100), []Money{50, -50})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSplitEven(t *testing.T) {
	// 10.00 across 3 -> 3.34, 3.33, 3.33
	shares, err := SplitEven(Money(1000), 3)
	require.NoError(t, err)
	assert.Equal(t, []Money{334, 333, 333}, shares)
	assert.Equal(t, Money(1000), Sum(shares))
}

func TestSplitEven_Exact(t *testing.T) {
	shares, err := SplitEven(Money(900), 3)
	require.NoError(t, err)
	assert.Equal(t, []Money{300, 300, 300}, shares)
}

func TestSplitEven_Errors(t *testing.T) {
	_, err := SplitEven(Money(100), 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = SplitEven(Money(-100), 2)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSplitDeterministic(t *testing.T) {
	weights := []Money{333, 333, 334, 500}
	a, err := SplitByWeights(Money(777), weights)
	require.NoError(t, err)
	b, err := SplitByWeights(Money(777), weights)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

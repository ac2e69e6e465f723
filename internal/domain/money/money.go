// Package money provides fixed-precision monetary arithmetic.
//
// All amounts are held as integer minor units (cents) so that sums and
// proportional divisions are exact. Decimal values only appear at the
// application boundary:
//
//	amount := money.FromFloat(12.34) // 1234 cents
//	amount.Float64()                 // 12.34 for display
//
// Division that does not divide evenly distributes the remainder with the
// largest-remainder method, so the shares of any split always sum exactly
// to the amount being split.
package money

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Money is an amount in minor units (cents) of the single app currency.
type Money int64

// ErrInvalidAmount is returned when a negative amount or non-positive
// quantity reaches an operation that does not allow one.
var ErrInvalidAmount = errors.New("invalid amount")

// FromFloat converts a decimal amount to cents, rounding half away from
// zero to absorb float noise in values like 19.99.
func FromFloat(amount float64) Money {
	return Money(math.Round(amount * 100))
}

// Float64 converts back to a decimal amount for display.
func (m Money) Float64() float64 {
	return float64(m) / 100
}

// String formats the amount as a plain decimal, e.g. "12.34" or "-0.05".
func (m Money) String() string {
	sign := ""
	v := m
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// MulQuantity multiplies a unit price by a quantity.
// Returns ErrInvalidAmount for a negative price or non-positive quantity.
func MulQuantity(unitPrice Money, quantity int) (Money, error) {
	if unitPrice < 0 {
		return 0, fmt.Errorf("%w: unit price %s is negative", ErrInvalidAmount, unitPrice)
	}
	if quantity <= 0 {
		return 0, fmt.Errorf("%w: quantity %d is not positive", ErrInvalidAmount, quantity)
	}
	return unitPrice * Money(quantity), nil
}

// SplitByWeights divides total across len(weights) shares proportionally to
// the weights, using the largest-remainder method. The returned shares sum
// exactly to total. Weights must be non-negative and sum to a positive value.
func SplitByWeights(total Money, weights []Money) ([]Money, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: cannot split negative total %s", ErrInvalidAmount, total)
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no weights to split across", ErrInvalidAmount)
	}

	var weightSum int64
	for _, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("%w: negative weight %s", ErrInvalidAmount, w)
		}
		weightSum += int64(w)
	}
	if weightSum == 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", ErrInvalidAmount)
	}

	shares := make([]Money, len(weights))
	remainders := make([]int64, len(weights))
	var allocated int64

	for i, w := range weights {
		// floor(total * w / weightSum), remainder kept for ranking
		product := int64(total) * int64(w)
		shares[i] = Money(product / weightSum)
		remainders[i] = product % weightSum
		allocated += int64(shares[i])
	}

	distributeRemainder(shares, remainders, int64(total)-allocated)
	return shares, nil
}

// SplitEven divides total into n equal shares, with any leftover cents going
// to the earliest shares. The shares sum exactly to total.
func SplitEven(total Money, n int) ([]Money, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: cannot split negative total %s", ErrInvalidAmount, total)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: cannot split across %d shares", ErrInvalidAmount, n)
	}

	base := int64(total) / int64(n)
	leftover := int64(total) - base*int64(n)

	shares := make([]Money, n)
	for i := range shares {
		shares[i] = Money(base)
		if int64(i) < leftover {
			shares[i]++
		}
	}
	return shares, nil
}

// distributeRemainder hands out leftover cents one at a time to the shares
// with the largest division remainders. Ties break on lower index so the
// result is deterministic for identical input.
func distributeRemainder(shares []Money, remainders []int64, leftover int64) {
	if leftover <= 0 {
		return
	}

	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})

	for i := int64(0); i < leftover; i++ {
		shares[order[i%int64(len(order))]]++
	}
}

// Sum adds a slice of amounts.
func Sum(amounts []Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}

// Package reconcile merges receipt-scan output with the order's recorded
// items and applies manual corrections from receipt review.
//
// Matching is heuristic: scanned lines are paired to order items by name
// similarity and quantity. Anything the heuristic cannot place is reported
// as unmatched, never silently dropped or silently assigned, so the user
// can assign it to a member by hand.
package reconcile

import (
	"sort"
	"strings"

	"github.com/tabsplit/tabsplit-backend/internal/domain/allocation"
)

// MatcherConfig holds matching thresholds.
type MatcherConfig struct {
	// MinNameScore is the minimum name similarity (0 to 1) for a pairing.
	MinNameScore float64

	// RequireQuantityMatch rejects pairings whose quantities differ.
	RequireQuantityMatch bool
}

// DefaultMatcherConfig returns the thresholds used in production.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		MinNameScore:         0.5,
		RequireQuantityMatch: true,
	}
}

// MatchScannedItems pairs each scanned receipt line with the best-scoring
// unused order item. Order items are consumed at most once. The result is
// deterministic: scanned items are processed in input order and score ties
// between candidate order items break on lower item id.
func MatchScannedItems(scanned []ScannedItem, items []allocation.LineItem, cfg MatcherConfig) MatchResult {
	// Stable candidate order regardless of caller's slice order.
	candidates := make([]allocation.LineItem, len(items))
	copy(candidates, items)
	sort.Slice(candidates, func(a, b int) bool { return candidates[a].ID < candidates[b].ID })

	used := make(map[string]bool, len(candidates))
	result := MatchResult{}

	for _, line := range scanned {
		var best *allocation.LineItem
		bestScore := 0.0

		for i := range candidates {
			item := &candidates[i]
			if used[item.ID] {
				continue
			}
			if cfg.RequireQuantityMatch && item.Quantity != line.Quantity {
				continue
			}

			score := nameSimilarity(line.Name, item.Name)
			if score < cfg.MinNameScore {
				continue
			}
			if score > bestScore {
				best = item
				bestScore = score
			}
		}

		if best == nil {
			result.Unmatched = append(result.Unmatched, line)
			continue
		}

		used[best.ID] = true
		result.Matched = append(result.Matched, Match{
			OrderItemID: best.ID,
			Scanned:     line,
			NameScore:   bestScore,
		})
	}

	return result
}

// nameSimilarity scores two item names in [0,1]. Exact normalized match is
// 1.0, containment 0.8, otherwise the token overlap ratio.
func nameSimilarity(a, b string) float64 {
	na, nb := normalizeName(a), normalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 0.8
	}

	tokensA := strings.Fields(na)
	tokensB := strings.Fields(nb)
	setB := make(map[string]bool, len(tokensB))
	for _, tok := range tokensB {
		setB[tok] = true
	}

	common := 0
	for _, tok := range tokensA {
		if setB[tok] {
			common++
		}
	}

	denom := len(tokensA)
	if len(tokensB) > denom {
		denom = len(tokensB)
	}
	return float64(common) / float64(denom)
}

// normalizeName lowercases and strips non-alphanumeric noise so that
// "Chicken Shawarma (Lg.)" and "chicken shawarma lg" compare equal.
func normalizeName(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

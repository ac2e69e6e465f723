package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabsplit/tabsplit-backend/internal/domain/allocation"
)

func orderItems() []allocation.LineItem {
	return []allocation.LineItem{
		{ID: "i1", OwnerID: "alice", Name: "Chicken Shawarma", Quantity: 1, UnitPrice: 4500},
		{ID: "i2", OwnerID: "bob", Name: "Beef Burger", Quantity: 2, UnitPrice: 6000},
		{ID: "i3", OwnerID: "carol", Name: "Fresh Orange Juice", Quantity: 1, UnitPrice: 2500},
	}
}

func TestMatchScannedItems_ExactNames(t *testing.T) {
	scanned := []ScannedItem{
		{Name: "Chicken Shawarma", Quantity: 1, TotalPrice: 4500},
		{Name: "Beef Burger", Quantity: 2, TotalPrice: 12000},
	}

	result := MatchScannedItems(scanned, orderItems(), DefaultMatcherConfig())

	require.Len(t, result.Matched, 2)
	assert.Empty(t, result.Unmatched)
	assert.Equal(t, "i1", result.Matched[0].OrderItemID)
	assert.Equal(t, "i2", result.Matched[1].OrderItemID)
	assert.Equal(t, 1.0, result.Matched[0].NameScore)
}

func TestMatchScannedItems_NormalizedNames(t *testing.T) {
	scanned := []ScannedItem{
		{Name: "CHICKEN SHAWARMA (LG.)", Quantity: 1, TotalPrice: 4500},
	}

	result := MatchScannedItems(scanned, orderItems(), DefaultMatcherConfig())

	require.Len(t, result.Matched, 1)
	assert.Equal(t, "i1", result.Matched[0].OrderItemID)
}

func TestMatchScannedItems_UnmatchedReported(t *testing.T) {
	// A receipt line matching no order item is flagged, not dropped and not
	// assigned to anyone.
	scanned := []ScannedItem{
		{Name: "Mystery Dessert", Quantity: 1, TotalPrice: 3000},
	}

	result := MatchScannedItems(scanned, orderItems(), DefaultMatcherConfig())

	assert.Empty(t, result.Matched)
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "Mystery Dessert", result.Unmatched[0].Name)
}

func TestMatchScannedItems_QuantityMismatch(t *testing.T) {
	scanned := []ScannedItem{
		{Name: "Beef Burger", Quantity: 1, TotalPrice: 6000},
	}

	result := MatchScannedItems(scanned, orderItems(), DefaultMatcherConfig())

	assert.Empty(t, result.Matched)
	assert.Len(t, result.Unmatched, 1)
}

func TestMatchScannedItems_EachItemUsedOnce(t *testing.T) {
	scanned := []ScannedItem{
		{Name: "Chicken Shawarma", Quantity: 1, TotalPrice: 4500},
		{Name: "Chicken Shawarma", Quantity: 1, TotalPrice: 4500},
	}

	result := MatchScannedItems(scanned, orderItems(), DefaultMatcherConfig())

	require.Len(t, result.Matched, 1)
	assert.Len(t, result.Unmatched, 1)
}

func TestMatchScannedItems_Deterministic(t *testing.T) {
	items := []allocation.LineItem{
		{ID: "b2", OwnerID: "x", Name: "Cola", Quantity: 1, UnitPrice: 1000},
		{ID: "a1", OwnerID: "y", Name: "Cola", Quantity: 1, UnitPrice: 1000},
	}
	scanned := []ScannedItem{{Name: "Cola", Quantity: 1, TotalPrice: 1000}}

	// Equal scores: the lower item id wins regardless of slice order.
	for i := 0; i < 5; i++ {
		result := MatchScannedItems(scanned, items, DefaultMatcherConfig())
		require.Len(t, result.Matched, 1)
		assert.Equal(t, "a1", result.Matched[0].OrderItemID)
	}
}

func TestMatchScannedItems_PrefersBetterScore(t *testing.T) {
	items := []allocation.LineItem{
		{ID: "i1", OwnerID: "a", Name: "Burger", Quantity: 1, UnitPrice: 1000},
		{ID: "i2", OwnerID: "b", Name: "Cheese Burger", Quantity: 1, UnitPrice: 1200},
	}
	scanned := []ScannedItem{{Name: "Cheese Burger", Quantity: 1, TotalPrice: 1200}}

	result := MatchScannedItems(scanned, items, DefaultMatcherConfig())

	require.Len(t, result.Matched, 1)
	assert.Equal(t, "i2", result.Matched[0].OrderItemID)
}

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"Beef Burger", "beef burger", 1.0},
		{"Beef Burger Deluxe", "Beef Burger", 0.8},
		{"Grilled Chicken Plate", "Chicken Shawarma Plate", 2.0 / 3.0},
		{"Pizza", "Sushi", 0},
		{"", "Burger", 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, nameSimilarity(tt.a, tt.b), 0.001, "%q vs %q", tt.a, tt.b)
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "chicken shawarma lg", normalizeName("Chicken   Shawarma (Lg.)"))
	assert.Equal(t, "2x cola", normalizeName(" 2x COLA "))
	assert.Equal(t, "", normalizeName("()!"))
}

package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabsplit/tabsplit-backend/internal/domain/money"
)

func TestEffectiveUnitPrice(t *testing.T) {
	item := LineItem{
		UnitPrice:    money.Money(5000),
		VariantDelta: money.Money(500),
		Addons: []Addon{
			{Name: "Extra cheese", Price: money.Money(300)},
			{Name: "Fries", Price: money.Money(700)},
		},
	}
	assert.Equal(t, money.Money(6500), item.EffectiveUnitPrice())
}

func TestAllocateItems_GroupsByOwner(t *testing.T) {
	items := []LineItem{
		{ID: "i1", OwnerID: "alice", Name: "Burger", Quantity: 1, UnitPrice: 5000},
		{ID: "i2", OwnerID: "alice", Name: "Soda", Quantity: 2, UnitPrice: 1000},
		{ID: "i3", OwnerID: "bob", Name: "Pizza", Quantity: 1, UnitPrice: 8000},
	}

	result, err := AllocateItems(items, nil, nil, []string{"alice", "bob", "carol"})
	require.NoError(t, err)

	assert.Equal(t, money.Money(7000), result["alice"].Total)
	assert.Equal(t, money.Money(8000), result["bob"].Total)
	assert.Len(t, result["alice"].Items, 2)

	// carol ordered nothing but is a known party to the order
	require.Contains(t, result, "carol")
	assert.Equal(t, money.Money(0), result["carol"].Total)
	assert.Empty(t, result["carol"].Items)
}

func TestAllocateItems_OverrideReplacesEffectivePrice(t *testing.T) {
	// Override replaces base+variant+addons, not just the base price.
	items := []LineItem{
		{
			ID: "i1", OwnerID: "alice", Name: "Shawarma", Quantity: 2,
			UnitPrice:    money.Money(2000),
			VariantDelta: money.Money(500),
			Addons:       []Addon{{Name: "Garlic sauce", Price: money.Money(300)}},
		},
	}
	overrides := map[string]money.Money{"i1": money.Money(1500)}

	result, err := AllocateItems(items, nil, overrides, []string{"alice"})
	require.NoError(t, err)

	assert.Equal(t, money.Money(3000), result["alice"].Total)
	share := result["alice"].Items[0]
	assert.Equal(t, money.Money(2800), share.OriginalPrice)
	assert.Equal(t, money.Money(1500), share.CurrentPrice)
}

func TestAllocateItems_ExtrasAssignedToMember(t *testing.T) {
	extras := []ExtraItem{
		{ID: "x1", Name: "Water bottle", Price: money.Money(500), MemberID: "bob"},
	}

	result, err := AllocateItems(nil, extras, nil, []string{"alice", "bob"})
	require.NoError(t, err)

	assert.Equal(t, money.Money(0), result["alice"].Total)
	assert.Equal(t, money.Money(500), result["bob"].Total)
	assert.Equal(t, "Water bottle", result["bob"].Items[0].Name)
}

func TestAllocateItems_InvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		items     []LineItem
		extras    []ExtraItem
		overrides map[string]money.Money
	}{
		{
			name:  "zero quantity",
			items: []LineItem{{ID: "i1", OwnerID: "a", Quantity: 0, UnitPrice: 100}},
		},
		{
			name:  "negative effective price",
			items: []LineItem{{ID: "i1", OwnerID: "a", Quantity: 1, UnitPrice: 100, VariantDelta: -200}},
		},
		{
			name:      "negative override",
			items:     []LineItem{{ID: "i1", OwnerID: "a", Quantity: 1, UnitPrice: 100}},
			overrides: map[string]money.Money{"i1": -50},
		},
		{
			name:   "negative extra price",
			extras: []ExtraItem{{ID: "x1", Name: "Thing", Price: -100, MemberID: "a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AllocateItems(tt.items, tt.extras, tt.overrides, []string{"a"})
			assert.ErrorIs(t, err, money.ErrInvalidAmount)
		})
	}
}

func TestAllocateShared_Proportional(t *testing.T) {
	// Items totals 30:30:0 and shared cost 30.00 -> 15.00 / 15.00 / 0.00
	totals := map[string]money.Money{
		"alice": 3000,
		"bob":   3000,
		"carol": 0,
	}

	portions, err := AllocateShared(totals, money.Money(3000))
	require.NoError(t, err)

	assert.Equal(t, money.Money(1500), portions["alice"])
	assert.Equal(t, money.Money(1500), portions["bob"])
	assert.Equal(t, money.Money(0), portions["carol"])
}

func TestAllocateShared_EqualFallback(t *testing.T) {
	// All items totals zero and shared cost 10.00 -> 3.34 / 3.33 / 3.33
	totals := map[string]money.Money{
		"alice": 0,
		"bob":   0,
		"carol": 0,
	}

	portions, err := AllocateShared(totals, money.Money(1000))
	require.NoError(t, err)

	var sum money.Money
	for _, p := range portions {
		sum += p
	}
	assert.Equal(t, money.Money(1000), sum)

	// Remainder cent lands on the first member in id order.
	assert.Equal(t, money.Money(334), portions["alice"])
	assert.Equal(t, money.Money(333), portions["bob"])
	assert.Equal(t, money.Money(333), portions["carol"])
}

func TestAllocateShared_SumsExactly(t *testing.T) {
	totals := map[string]money.Money{
		"a": 1999,
		"b": 1272,
		"c": 1699,
		"d": 799,
	}

	for _, shared := range []money.Money{1, 99, 100, 101, 997, 10001} {
		portions, err := AllocateShared(totals, shared)
		require.NoError(t, err)

		var sum money.Money
		for _, p := range portions {
			sum += p
		}
		assert.Equal(t, shared, sum, "shared=%s", shared)
	}
}

func TestAllocateShared_Errors(t *testing.T) {
	_, err := AllocateShared(map[string]money.Money{"a": 100}, money.Money(-1))
	assert.ErrorIs(t, err, money.ErrInvalidAmount)

	_, err = AllocateShared(nil, money.Money(100))
	assert.ErrorIs(t, err, money.ErrInvalidAmount)

	_, err = AllocateShared(map[string]money.Money{"a": -100}, money.Money(100))
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestConservation(t *testing.T) {
	// sum(member totals) == items subtotal + shared cost, exactly.
	items := []LineItem{
		{ID: "i1", OwnerID: "alice", Name: "Koshary", Quantity: 3, UnitPrice: 4550},
		{ID: "i2", OwnerID: "bob", Name: "Molokhia", Quantity: 1, UnitPrice: 6025},
		{ID: "i3", OwnerID: "carol", Name: "Taameya", Quantity: 2, UnitPrice: 1233},
	}
	shared := money.Money(3337)

	allocated, err := AllocateItems(items, nil, nil, []string{"alice", "bob", "carol"})
	require.NoError(t, err)

	subtotal := ItemsSubtotal(allocated)

	itemTotals := make(map[string]money.Money)
	for id, m := range allocated {
		itemTotals[id] = m.Total
	}
	portions, err := AllocateShared(itemTotals, shared)
	require.NoError(t, err)

	var grand money.Money
	for id := range allocated {
		grand += allocated[id].Total + portions[id]
	}
	assert.Equal(t, subtotal+shared, grand)
}

func TestSharedDerivation(t *testing.T) {
	assert.Equal(t, money.Money(600), SharedFromFees(300, 200, 100))
	assert.Equal(t, money.Money(1500), SharedFromTotal(11500, 10000))
	assert.Equal(t, money.Money(-100), SharedFromTotal(9900, 10000))
}

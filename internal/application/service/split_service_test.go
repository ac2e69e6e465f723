package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabsplit/tabsplit-backend/internal/domain/money"
	"github.com/tabsplit/tabsplit-backend/internal/domain/settle"
	"github.com/tabsplit/tabsplit-backend/internal/infrastructure/storage"
)

// closedOrderWithItems builds an order where Alice ordered 30.00 of food,
// Bob 30.00, and Carol nothing, then closes it.
func closedOrderWithItems(t *testing.T, svc *OrderService) (*storage.OrderRecord, storage.Member, storage.Member, storage.Member) {
	t.Helper()
	order := createOrderWithMembers(t, svc, "Alice", "Bob", "Carol")
	alice, bob, carol := order.Members[0], order.Members[1], order.Members[2]

	_, err := svc.AddItem(order.ID, ItemInput{
		OwnerID: alice.ID, Name: "Koshary", Quantity: 1, UnitPrice: money.FromFloat(30.00),
	})
	require.NoError(t, err)
	_, err = svc.AddItem(order.ID, ItemInput{
		OwnerID: bob.ID, Name: "Shawarma", Quantity: 1, UnitPrice: money.FromFloat(30.00),
	})
	require.NoError(t, err)

	_, err = svc.CloseOrder(order.ID)
	require.NoError(t, err)

	return order, alice, bob, carol
}

func TestComputeSplit_NoReceipt(t *testing.T) {
	svc, _ := newTestService()
	order, alice, bob, carol := closedOrderWithItems(t, svc)

	split, err := svc.ComputeSplit(order.ID)
	require.NoError(t, err)

	assert.Equal(t, money.FromFloat(60.00), split.Subtotal)
	assert.Equal(t, money.Money(0), split.SharedCost)
	assert.Nil(t, split.TotalCheck)

	byID := map[string]MemberSplit{}
	for _, m := range split.Members {
		byID[m.MemberID] = m
	}
	assert.Equal(t, money.FromFloat(30.00), byID[alice.ID].Total)
	assert.Equal(t, money.FromFloat(30.00), byID[bob.ID].Total)
	// Zero-item members still appear
	assert.Equal(t, money.Money(0), byID[carol.ID].Total)
}

func TestComputeSplit_ProportionalSharedCost(t *testing.T) {
	svc, _ := newTestService()
	order, alice, bob, carol := closedOrderWithItems(t, svc)

	_, _, err := svc.AttachReceipt(order.ID, ReceiptInput{
		Subtotal:    money.FromFloat(60.00),
		Tax:         money.FromFloat(18.00),
		ServiceFee:  money.FromFloat(12.00),
		DeliveryFee: 0,
		Total:       money.FromFloat(90.00),
	})
	require.NoError(t, err)

	split, err := svc.ComputeSplit(order.ID)
	require.NoError(t, err)

	assert.Equal(t, money.FromFloat(30.00), split.SharedCost)

	byID := map[string]MemberSplit{}
	for _, m := range split.Members {
		byID[m.MemberID] = m
	}
	// 30.00 shared over 30:30:0 item totals
	assert.Equal(t, money.FromFloat(15.00), byID[alice.ID].SharedPortion)
	assert.Equal(t, money.FromFloat(15.00), byID[bob.ID].SharedPortion)
	assert.Equal(t, money.Money(0), byID[carol.ID].SharedPortion)

	assert.Equal(t, money.FromFloat(45.00), byID[alice.ID].Total)

	// Shares conserve the order total
	var sum money.Money
	for _, m := range split.Members {
		sum += m.Total
	}
	assert.Equal(t, split.Total, sum)

	require.NotNil(t, split.TotalCheck)
	assert.True(t, split.TotalCheck.Matches)
}

func TestComputeSplit_OverridesChangeSplit(t *testing.T) {
	svc, _ := newTestService()
	order, alice, _, _ := closedOrderWithItems(t, svc)

	itemID := mustGetOrder(t, svc, order.ID).Items[0].ID

	_, err := svc.SetOverrides(order.ID, OverrideInput{
		Prices: map[string]money.Money{itemID: money.FromFloat(35.00)},
		Extras: []ExtraInput{{Name: "Water", Price: money.FromFloat(5.00), MemberID: alice.ID}},
	})
	require.NoError(t, err)

	split, err := svc.ComputeSplit(order.ID)
	require.NoError(t, err)

	// 35.00 (overridden) + 5.00 extra + 30.00 untouched
	assert.Equal(t, money.FromFloat(70.00), split.Subtotal)

	byID := map[string]MemberSplit{}
	for _, m := range split.Members {
		byID[m.MemberID] = m
	}
	require.Len(t, byID[alice.ID].Items, 2)
	assert.Equal(t, money.FromFloat(30.00), byID[alice.ID].Items[0].OriginalPrice)
	assert.Equal(t, money.FromFloat(35.00), byID[alice.ID].Items[0].CurrentPrice)

	// Replacing the set with an empty one reverts everything
	_, err = svc.SetOverrides(order.ID, OverrideInput{})
	require.NoError(t, err)

	split, err = svc.ComputeSplit(order.ID)
	require.NoError(t, err)
	assert.Equal(t, money.FromFloat(60.00), split.Subtotal)
}

func TestComputeSplit_TotalMismatchFlagged(t *testing.T) {
	svc, _ := newTestService()
	order, _, _, _ := closedOrderWithItems(t, svc)

	_, _, err := svc.AttachReceipt(order.ID, ReceiptInput{
		Subtotal: money.FromFloat(60.00),
		Tax:      money.FromFloat(10.00),
		Total:    money.FromFloat(75.00), // 5.00 unexplained
	})
	require.NoError(t, err)

	split, err := svc.ComputeSplit(order.ID)
	require.NoError(t, err)

	require.NotNil(t, split.TotalCheck)
	assert.False(t, split.TotalCheck.Matches)
	assert.Equal(t, money.FromFloat(5.00), split.TotalCheck.Difference)
}

func TestComputeSplit_SharedFromStatedTotal(t *testing.T) {
	svc, _ := newTestService()
	order, alice, bob, carol := closedOrderWithItems(t, svc)

	// No fee lines: the 6.00 above the items is the shared cost
	_, _, err := svc.AttachReceipt(order.ID, ReceiptInput{
		Subtotal: money.FromFloat(60.00),
		Total:    money.FromFloat(66.00),
	})
	require.NoError(t, err)

	split, err := svc.ComputeSplit(order.ID)
	require.NoError(t, err)

	assert.Equal(t, money.FromFloat(6.00), split.SharedCost)
	assert.Equal(t, money.FromFloat(66.00), split.Total)
	require.NotNil(t, split.TotalCheck)
	assert.True(t, split.TotalCheck.Matches)

	byID := make(map[string]MemberSplit)
	for _, m := range split.Members {
		byID[m.MemberID] = m
	}
	assert.Equal(t, money.FromFloat(3.00), byID[alice.ID].SharedPortion)
	assert.Equal(t, money.FromFloat(3.00), byID[bob.ID].SharedPortion)
	assert.Equal(t, money.Money(0), byID[carol.ID].SharedPortion)

	// A stated total below the items allocates nothing and is flagged
	_, err = svc.UpdateReceiptTotal(order.ID, money.FromFloat(55.00))
	require.NoError(t, err)

	split, err = svc.ComputeSplit(order.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(0), split.SharedCost)
	require.NotNil(t, split.TotalCheck)
	assert.False(t, split.TotalCheck.Matches)
}

func TestComputeSplit_NegativeSharedCostRejected(t *testing.T) {
	svc, repo := newTestService()
	order, _, _, _ := closedOrderWithItems(t, svc)

	// A corrupt stored receipt with a negative fee must not skew the split
	err := repo.SaveReceipt(&storage.ReceiptRecord{
		OrderID:       order.ID,
		SubtotalCents: 6000,
		TaxCents:      -500,
		TotalCents:    5500,
	})
	require.NoError(t, err)

	_, err = svc.ComputeSplit(order.ID)
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestComputeSplit_CancelledOrder(t *testing.T) {
	svc, _ := newTestService()
	order := createOrderWithMembers(t, svc, "Alice")
	_, err := svc.CancelOrder(order.ID)
	require.NoError(t, err)

	_, err = svc.ComputeSplit(order.ID)
	assert.ErrorIs(t, err, ErrOrderFinal)
}

func TestComputeSettlement_SinglePayer(t *testing.T) {
	svc, _ := newTestService()
	order, alice, bob, _ := closedOrderWithItems(t, svc)

	// Alice covered the whole 60.00 bill
	_, err := svc.RecordPayments(order.ID, []PaymentInput{
		{MemberID: alice.ID, Amount: money.FromFloat(60.00)},
	})
	require.NoError(t, err)

	result, split, err := svc.ComputeSettlement(order.ID)
	require.NoError(t, err)
	require.NotNil(t, split)
	assert.True(t, result.Balanced)

	require.Len(t, result.Transfers, 1)
	assert.Equal(t, bob.ID, result.Transfers[0].From)
	assert.Equal(t, alice.ID, result.Transfers[0].To)
	assert.Equal(t, money.FromFloat(30.00), result.Transfers[0].Amount)
}

func TestComputeSettlement_SumsPaymentEventsPerMember(t *testing.T) {
	svc, _ := newTestService()
	order, alice, bob, _ := closedOrderWithItems(t, svc)

	// Alice covered the 60.00 bill in two installments
	_, err := svc.RecordPayments(order.ID, []PaymentInput{
		{MemberID: alice.ID, Amount: money.FromFloat(40.00)},
		{MemberID: alice.ID, Amount: money.FromFloat(20.00)},
	})
	require.NoError(t, err)

	result, _, err := svc.ComputeSettlement(order.ID)
	require.NoError(t, err)
	assert.True(t, result.Balanced)

	require.Len(t, result.Transfers, 1)
	assert.Equal(t, bob.ID, result.Transfers[0].From)
	assert.Equal(t, alice.ID, result.Transfers[0].To)
	assert.Equal(t, money.FromFloat(30.00), result.Transfers[0].Amount)
}

func TestComputeSettlement_Unbalanced(t *testing.T) {
	svc, _ := newTestService()
	order, alice, _, _ := closedOrderWithItems(t, svc)

	_, err := svc.RecordPayments(order.ID, []PaymentInput{
		{MemberID: alice.ID, Amount: money.FromFloat(59.99)},
	})
	require.NoError(t, err)

	result, _, err := svc.ComputeSettlement(order.ID)
	assert.ErrorIs(t, err, settle.ErrUnbalanced)
	assert.False(t, result.Balanced)
	assert.Equal(t, money.FromFloat(-0.01), result.Discrepancy)
	assert.Empty(t, result.Transfers)
}

func TestFinalizeOrder(t *testing.T) {
	svc, _ := newTestService()
	order, alice, bob, _ := closedOrderWithItems(t, svc)

	// Unbalanced: finalization refuses
	_, err := svc.RecordPayments(order.ID, []PaymentInput{
		{MemberID: alice.ID, Amount: money.FromFloat(10.00)},
	})
	require.NoError(t, err)

	_, err = svc.FinalizeOrder(order.ID)
	assert.ErrorIs(t, err, ErrNotSettled)

	// Balanced: order becomes PAID
	_, err = svc.RecordPayments(order.ID, []PaymentInput{
		{MemberID: alice.ID, Amount: money.FromFloat(30.00)},
		{MemberID: bob.ID, Amount: money.FromFloat(30.00)},
	})
	require.NoError(t, err)

	finalized, err := svc.FinalizeOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusPaid, finalized.Status)

	// Finalizing twice fails, PAID is terminal
	_, err = svc.FinalizeOrder(order.ID)
	assert.ErrorIs(t, err, ErrOrderNotClosed)
}

func mustGetOrder(t *testing.T, svc *OrderService, id string) *storage.OrderRecord {
	t.Helper()
	order, err := svc.GetOrder(id)
	require.NoError(t, err)
	return order
}

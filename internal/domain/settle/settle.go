// Package settle computes the peer-to-peer transfers that square a group
// order once everyone's owed total and actual payments are known.
//
// Money must be conserved before settlement runs: the sum of recorded
// payments has to equal the sum of owed totals, otherwise the computation
// refuses to proceed and reports the exact discrepancy. Balances are exact
// minor-unit integers, so "equal" means equal, with no epsilon.
package settle

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tabsplit/tabsplit-backend/internal/domain/money"
)

// ErrUnbalanced is matched via errors.Is when payments do not sum to the
// total owed. The concrete error is an UnbalancedError carrying the amount.
var ErrUnbalanced = errors.New("payments do not cover the total owed")

// UnbalancedError reports the exact gap between what was paid and what was
// owed. Positive means overpaid, negative underpaid.
type UnbalancedError struct {
	Discrepancy money.Money
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("payments differ from total owed by %s", e.Discrepancy)
}

func (e *UnbalancedError) Unwrap() error { return ErrUnbalanced }

// Transfer is one settlement instruction: From pays To the Amount.
type Transfer struct {
	From   string
	To     string
	Amount money.Money
}

// Result is the computed settlement plan. When Balanced is false no
// transfers are produced and Discrepancy holds paid − owed.
type Result struct {
	Transfers   []Transfer
	Balanced    bool
	Discrepancy money.Money
}

type balance struct {
	memberID string
	amount   money.Money // positive magnitude for both creditors and debtors
}

// Compute derives each member's net balance (paid − owed), then greedily
// matches the largest debtor against the largest creditor until every
// balance is zero. The greedy largest-first pairing is a standard
// minimum-transaction heuristic: it does not guarantee the theoretical
// minimum everywhere, but it terminates in at most n−1 transfers and never
// emits a zero or negative transfer.
//
// Output is deterministic: equal-magnitude balances order by member id.
func Compute(owed, paid map[string]money.Money) (Result, error) {
	var totalOwed, totalPaid money.Money
	for _, amount := range owed {
		totalOwed += amount
	}
	for _, amount := range paid {
		totalPaid += amount
	}

	if totalPaid != totalOwed {
		discrepancy := totalPaid - totalOwed
		return Result{Balanced: false, Discrepancy: discrepancy}, &UnbalancedError{Discrepancy: discrepancy}
	}

	// Net balance per member across both maps. A member who only appears in
	// paid (e.g. covered the bill without ordering) still participates.
	members := make(map[string]bool, len(owed))
	for id := range owed {
		members[id] = true
	}
	for id := range paid {
		members[id] = true
	}

	var creditors, debtors []balance
	for id := range members {
		net := paid[id] - owed[id]
		switch {
		case net > 0:
			creditors = append(creditors, balance{memberID: id, amount: net})
		case net < 0:
			debtors = append(debtors, balance{memberID: id, amount: -net})
		}
	}

	sortByMagnitude(creditors)
	sortByMagnitude(debtors)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := &debtors[i], &creditors[j]

		amount := debtor.amount
		if creditor.amount < amount {
			amount = creditor.amount
		}

		transfers = append(transfers, Transfer{
			From:   debtor.memberID,
			To:     creditor.memberID,
			Amount: amount,
		})

		debtor.amount -= amount
		creditor.amount -= amount
		if debtor.amount == 0 {
			i++
		}
		if creditor.amount == 0 {
			j++
		}
	}

	return Result{Transfers: transfers, Balanced: true}, nil
}

// sortByMagnitude orders balances largest first, breaking ties on member id
// so identical input always yields identical output.
func sortByMagnitude(balances []balance) {
	sort.Slice(balances, func(a, b int) bool {
		if balances[a].amount != balances[b].amount {
			return balances[a].amount > balances[b].amount
		}
		return balances[a].memberID < balances[b].memberID
	})
}

package calculator

import "sort"

// ShareForBalance is one unsettled share with the minimal information needed
// for balance aggregation.
type ShareForBalance struct {
	UserID string
	Share  int64 // minor units of the expense currency
}

// ExpenseForBalance is an expense with its unsettled shares. Settled shares
// must not be included: settlement is the only way a participation leaves
// the aggregate.
type ExpenseForBalance struct {
	CurrencyCode string
	Amount       int64 // minor units
	PayerID      string
	Shares       []ShareForBalance
}

// CurrencyBalance is one user's position in a single currency.
type CurrencyBalance struct {
	CurrencyCode  string
	TotalPaid     int64 // total the user paid out as payer
	NetOwedToUser int64 // others' outstanding shares on the user's expenses
	NetUserOwes   int64 // the user's outstanding shares on others' expenses
}

// BalancesFor reduces the given expenses into per-currency balances for one
// user. For an expense the user paid, the full amount counts toward
// TotalPaid and every other participant's share toward NetOwedToUser; the
// payer's own share is self-debt and excluded. For an expense someone else
// paid, only the user's own share counts, toward NetUserOwes.
//
// Summation is order-independent; the result is sorted by currency code for
// stable output.
func BalancesFor(userID string, expenses []ExpenseForBalance) []CurrencyBalance {
	byCurrency := make(map[string]*CurrencyBalance)

	get := func(code string) *CurrencyBalance {
		b, ok := byCurrency[code]
		if !ok {
			b = &CurrencyBalance{CurrencyCode: code}
			byCurrency[code] = b
		}
		return b
	}

	for _, exp := range expenses {
		if exp.PayerID == userID {
			b := get(exp.CurrencyCode)
			b.TotalPaid += exp.Amount
			for _, s := range exp.Shares {
				if s.UserID != userID {
					b.NetOwedToUser += s.Share
				}
			}
			continue
		}
		for _, s := range exp.Shares {
			if s.UserID == userID {
				get(exp.CurrencyCode).NetUserOwes += s.Share
			}
		}
	}

	balances := make([]CurrencyBalance, 0, len(byCurrency))
	for _, b := range byCurrency {
		balances = append(balances, *b)
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].CurrencyCode < balances[j].CurrencyCode
	})
	return balances
}

package core

import "github.com/shopspring/decimal"

// Totals is the aggregated view of a transaction sequence.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
	Count   int
}

// TotalIncome sums the amounts of every Income transaction.
func TotalIncome(txs []Transaction) decimal.Decimal {
	return sumByType(txs, Income)
}

// TotalExpense sums the amounts of every Expense transaction.
func TotalExpense(txs []Transaction) decimal.Decimal {
	return sumByType(txs, Expense)
}

// Balance is TotalIncome minus TotalExpense.
func Balance(txs []Transaction) decimal.Decimal {
	return TotalIncome(txs).Sub(TotalExpense(txs))
}

// Summarize computes all totals in a single pass.
func Summarize(txs []Transaction) Totals {
	t := Totals{Income: decimal.Zero, Expense: decimal.Zero, Count: len(txs)}
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			t.Income = t.Income.Add(tx.Amount)
		case Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

func sumByType(txs []Transaction, typ TransactionType) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type == typ {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

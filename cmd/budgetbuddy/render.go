package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/services"
)

const displayDateLayout = "2 Jan 2006"

const loadFailedMessage = "Could not load transactions. Your data has not been changed; try again later."

func money(symbol string, d decimal.Decimal) string {
	return symbol + core.FormatAmount(d)
}

// signedAmount renders a list row amount the way the home screen does,
// with the amount exactly as recorded.
func signedAmount(symbol string, tx core.Transaction) string {
	if tx.IsIncome() {
		return "+ " + symbol + tx.Amount.String()
	}
	return "- " + symbol + tx.Amount.String()
}

func renderTotals(w io.Writer, symbol string, t core.Totals) {
	fmt.Fprintf(w, "Balance  %s\n", money(symbol, t.Balance))
	fmt.Fprintf(w, "Income   %s\n", money(symbol, t.Income))
	fmt.Fprintf(w, "Expense  %s\n", money(symbol, t.Expense))
}

func renderHome(w io.Writer, symbol string, view services.HomeView) {
	if view.State == services.HomeLoadFailed {
		fmt.Fprintln(w, loadFailedMessage)
		return
	}

	renderTotals(w, symbol, view.Totals)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recent Transactions")

	if view.State == services.HomeEmpty {
		fmt.Fprintln(w, "No transactions yet.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, tx := range view.Transactions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Name, tx.Category, tx.Date.Format(displayDateLayout), signedAmount(symbol, tx))
	}
	tw.Flush()
}

func renderCategories(w io.Writer, types []core.TransactionType) {
	for _, typ := range types {
		fmt.Fprintf(w, "%s:\n", typ)
		for _, c := range core.CategoriesFor(typ) {
			fmt.Fprintf(w, "  %-14s %s\n", c.Name, c.Icon)
		}
	}
}

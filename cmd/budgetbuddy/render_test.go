package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/services"
)

func TestSignedAmount(t *testing.T) {
	tests := []struct {
		typ  core.TransactionType
		want string
	}{
		{core.Income, "+ ₹12.5"},
		{core.Expense, "- ₹12.5"},
	}
	for _, tt := range tests {
		tx := core.Transaction{Type: tt.typ, Amount: decimal.RequireFromString("12.5")}
		if got := signedAmount("₹", tx); got != tt.want {
			t.Errorf("signedAmount(%s) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestRenderHomeNegativeBalance(t *testing.T) {
	var buf bytes.Buffer
	view := services.HomeView{
		State: services.HomeReady,
		Totals: core.Totals{
			Income:  decimal.Zero,
			Expense: decimal.RequireFromString("50"),
			Balance: decimal.RequireFromString("-50"),
			Count:   1,
		},
		Transactions: []core.Transaction{{
			ID: "a", Name: "Electricity", Category: "Bills", Type: core.Expense,
			Amount: decimal.RequireFromString("50"),
			Date:   time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		}},
	}

	renderHome(&buf, "₹", view)

	out := buf.String()
	if !strings.Contains(out, "Balance  ₹-50.00") {
		t.Errorf("missing negative balance in %q", out)
	}
	if !strings.Contains(out, "9 Mar 2024") {
		t.Errorf("missing formatted date in %q", out)
	}
	if !strings.Contains(out, "- ₹50") {
		t.Errorf("missing expense row in %q", out)
	}
}

func TestRenderHomeLoadFailed(t *testing.T) {
	var buf bytes.Buffer
	renderHome(&buf, "₹", services.HomeView{State: services.HomeLoadFailed})

	if got := strings.TrimSpace(buf.String()); got != loadFailedMessage {
		t.Errorf("renderHome() = %q, want %q", got, loadFailedMessage)
	}
}

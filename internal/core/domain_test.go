package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validTx() Transaction {
	return Transaction{
		ID:       "tx-1",
		Name:     "Coffee",
		Amount:   decimal.NewFromInt(5),
		Category: "Food",
		Type:     Expense,
		Icon:     "fast-food-outline",
		Date:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTx().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mod  func(*Transaction)
		want error
	}{
		{"empty id", func(tx *Transaction) { tx.ID = " " }, ErrEmptyID},
		{"empty name", func(tx *Transaction) { tx.Name = "" }, ErrEmptyName},
		{"long name", func(tx *Transaction) { tx.Name = strings.Repeat("a", 41) }, ErrNameTooLong},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-3) }, ErrInvalidAmount},
		{"bad type", func(tx *Transaction) { tx.Type = "Transfer" }, ErrInvalidType},
		{"empty category", func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
		{"income category on expense", func(tx *Transaction) { tx.Category = "Salary" }, ErrUnknownCategory},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrInvalidDate},
	}
	for _, tc := range cases {
		tx := validTx()
		tc.mod(&tx)
		if err := tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestNameLengthCountsRunes(t *testing.T) {
	tx := validTx()
	tx.Name = strings.Repeat("é", MaxNameLength)
	if err := tx.Validate(); err != nil {
		t.Fatalf("40 runes should be accepted, got %v", err)
	}
}

func TestCategories(t *testing.T) {
	if !HasCategory(Income, "Salary") || HasCategory(Income, "Food") {
		t.Fatalf("income category set is wrong")
	}
	if !HasCategory(Expense, "Bills") || HasCategory(Expense, "Business") {
		t.Fatalf("expense category set is wrong")
	}
	if got := IconFor(Income, "Investments"); got != "stats-chart-outline" {
		t.Fatalf("unexpected icon %q", got)
	}
	if got := IconFor(Expense, "Unknown"); got != DefaultIcon {
		t.Fatalf("unexpected fallback icon %q", got)
	}
	if CategoriesFor("nope") != nil {
		t.Fatalf("expected no categories for invalid type")
	}

	cats := CategoriesFor(Income)
	cats[0].Name = "mutated"
	if CategoriesFor(Income)[0].Name != "Salary" {
		t.Fatalf("CategoriesFor must return a copy")
	}
}

func TestParseTransactionType(t *testing.T) {
	cases := map[string]TransactionType{"income": Income, " Expense ": Expense, "INCOME": Income}
	for in, want := range cases {
		got, err := ParseTransactionType(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %s, got %s (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseTransactionType("transfer"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

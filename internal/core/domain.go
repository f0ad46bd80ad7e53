package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"

	// MaxNameLength matches the maxLength of the name input.
	MaxNameLength = 40

	// DefaultIcon is used for categories without a dedicated icon.
	DefaultIcon = "extension-puzzle-outline"
)

type (
	TransactionType string

	// Category is one selectable choice of the add form.
	Category struct {
		Name string
		Icon string
	}

	// Transaction is one recorded income or expense event. Values are
	// never mutated once created; removal is the only way to change a ledger.
	Transaction struct {
		ID       string
		Name     string
		Amount   decimal.Decimal
		Category string
		Type     TransactionType
		Icon     string // cosmetic only
		Date     time.Time
	}
)

var (
	ErrEmptyID         = errors.New("empty transaction id")
	ErrEmptyName       = errors.New("empty name")
	ErrNameTooLong     = errors.New("name too long (max 40 characters)")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnknownCategory = errors.New("category does not belong to transaction type")
	ErrInvalidDate     = errors.New("invalid date")
)

var (
	incomeCategories = []Category{
		{Name: "Salary", Icon: "card-outline"},
		{Name: "Investments", Icon: "stats-chart-outline"},
		{Name: "Business", Icon: "briefcase-outline"},
		{Name: "Others", Icon: DefaultIcon},
	}
	expenseCategories = []Category{
		{Name: "Food", Icon: "fast-food-outline"},
		{Name: "Travel", Icon: "subway-outline"},
		{Name: "Transport", Icon: "bus-outline"},
		{Name: "Shopping", Icon: "cart-outline"},
		{Name: "Entertainment", Icon: "film-outline"},
		{Name: "Bills", Icon: "receipt-outline"},
		{Name: "Others", Icon: DefaultIcon},
	}
)

// ParseTransactionType accepts the type name case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return Income, nil
	case "expense":
		return Expense, nil
	default:
		return "", ErrInvalidType
	}
}

// IsValid reports whether t is Income or Expense.
func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// CategoriesFor returns the category choices offered for t, in form order.
func CategoriesFor(t TransactionType) []Category {
	switch t {
	case Income:
		return append([]Category(nil), incomeCategories...)
	case Expense:
		return append([]Category(nil), expenseCategories...)
	default:
		return nil
	}
}

// HasCategory reports whether name is one of t's categories.
func HasCategory(t TransactionType, name string) bool {
	_, ok := lookupCategory(t, name)
	return ok
}

// IconFor returns the icon paired with a category, or DefaultIcon.
func IconFor(t TransactionType, name string) string {
	if c, ok := lookupCategory(t, name); ok {
		return c.Icon
	}
	return DefaultIcon
}

func lookupCategory(t TransactionType, name string) (Category, bool) {
	var set []Category
	switch t {
	case Income:
		set = incomeCategories
	case Expense:
		set = expenseCategories
	}
	for _, c := range set {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

func (tx Transaction) Validate() error {
	if strings.TrimSpace(tx.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(tx.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(tx.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !tx.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !tx.Type.IsValid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	if !HasCategory(tx.Type, tx.Category) {
		return ErrUnknownCategory
	}
	if tx.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsIncome reports whether tx adds to the balance.
func (tx Transaction) IsIncome() bool {
	return tx.Type == Income
}

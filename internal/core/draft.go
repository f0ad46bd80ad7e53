package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrIncompleteForm is wrapped by every ValidationError.
var ErrIncompleteForm = errors.New("incomplete transaction form")

// Form field names reported by ValidationError.
const (
	FieldName     = "name"
	FieldAmount   = "amount"
	FieldCategory = "category"
	FieldDate     = "date"
)

// Draft holds the raw add-form input before it becomes a Transaction.
type Draft struct {
	Name     string
	Amount   string // as typed; parsed by ParseAmount
	Type     TransactionType
	Category string
	Icon     string
	Date     *time.Time
}

// ValidationError lists the form fields that are missing or unusable.
type ValidationError struct {
	Fields []string
	Err    error // underlying cause, if a single field failed parsing
}

func (e *ValidationError) Error() string {
	msg := "please fill out all fields before adding the transaction"
	if len(e.Fields) > 0 {
		msg += " (missing: " + strings.Join(e.Fields, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrIncompleteForm, e.Err}
	}
	return []error{ErrIncompleteForm}
}

// Prompt is the user-facing message shown when the form is rejected.
func (e *ValidationError) Prompt() string {
	return "Hold on! Please fill out all fields before adding the transaction."
}

// NewID returns a random identifier for a new transaction.
func NewID() string {
	return uuid.NewString()
}

// Build validates the draft and turns it into a Transaction with an id
// from newID (NewID when nil). Type defaults to Expense and Icon to the
// category's icon, as on the form.
func (d Draft) Build(newID func() string) (Transaction, error) {
	var missing []string
	if strings.TrimSpace(d.Name) == "" {
		missing = append(missing, FieldName)
	}
	if strings.TrimSpace(d.Amount) == "" {
		missing = append(missing, FieldAmount)
	}
	if strings.TrimSpace(d.Category) == "" {
		missing = append(missing, FieldCategory)
	}
	if d.Date == nil || d.Date.IsZero() {
		missing = append(missing, FieldDate)
	}
	if len(missing) > 0 {
		return Transaction{}, &ValidationError{Fields: missing}
	}

	amount, err := ParseAmount(d.Amount)
	if err != nil {
		return Transaction{}, &ValidationError{Fields: []string{FieldAmount}, Err: err}
	}

	category := strings.TrimSpace(d.Category)
	typ := d.Type
	if typ == "" {
		typ = Expense
	}
	icon := d.Icon
	if icon == "" {
		icon = IconFor(typ, category)
	}
	if newID == nil {
		newID = NewID
	}

	tx := Transaction{
		ID:       newID(),
		Name:     strings.TrimSpace(d.Name),
		Amount:   amount,
		Category: category,
		Type:     typ,
		Icon:     icon,
		Date:     d.Date.UTC().Truncate(time.Millisecond),
	}
	if err := tx.Validate(); err != nil {
		field := ""
		switch {
		case errors.Is(err, ErrEmptyName), errors.Is(err, ErrNameTooLong):
			field = FieldName
		case errors.Is(err, ErrInvalidType), errors.Is(err, ErrEmptyCategory), errors.Is(err, ErrUnknownCategory):
			field = FieldCategory
		}
		verr := &ValidationError{Err: err}
		if field != "" {
			verr.Fields = []string{field}
		}
		return Transaction{}, verr
	}
	return tx, nil
}

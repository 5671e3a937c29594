package account

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Field identifies an account attribute targeted by a field update.
// Only FirstName, LastName, Balance, MinimumBalance and Active may be updated.
type Field int

const (
	FieldUnknown Field = iota
	FieldID
	FieldAccountID
	FieldFirstName
	FieldLastName
	FieldBalance
	FieldMinimumBalance
	FieldActive
	FieldCreatedAt
	FieldUpdatedAt
)

var fieldNames = map[Field]string{
	FieldUnknown:        "UNKNOWN",
	FieldID:             "ID",
	FieldAccountID:      "ACCOUNT_ID",
	FieldFirstName:      "FIRST_NAME",
	FieldLastName:       "LAST_NAME",
	FieldBalance:        "BALANCE",
	FieldMinimumBalance: "MINIMUM_BALANCE",
	FieldActive:         "ACTIVE",
	FieldCreatedAt:      "CREATED_AT",
	FieldUpdatedAt:      "UPDATED_AT",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FIELD(%d)", int(f))
}

// ParseField maps a field tag such as "MINIMUM_BALANCE" to its Field.
// Unrecognised tags map to FieldUnknown.
func ParseField(name string) Field {
	name = strings.ToUpper(strings.TrimSpace(name))
	for f, n := range fieldNames {
		if n == name && f != FieldUnknown {
			return f
		}
	}
	return FieldUnknown
}

// FieldUpdate is a single (field, textual value) pair
type FieldUpdate struct {
	Field Field
	Value string
}

// UnauthorizedFieldError is returned when an update names a field outside the whitelist
type UnauthorizedFieldError struct {
	Field Field
}

func (e UnauthorizedFieldError) Error() string {
	return "you are unauthorized to update field " + e.Field.String()
}

// ParseError is returned when a decimal field value cannot be parsed
type ParseError struct {
	Field Field
	Value string
	Err   error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("invalid value %q for field %s: %v", e.Value, e.Field, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

// Apply returns a copy of acc with the updates applied in order; a later update
// of the same field overrides an earlier one. The original is never modified, so
// a failing batch leaves nothing behind.
//
// ACTIVE is parsed leniently: anything other than "true" (any case) means false.
func Apply(acc Account, updates []FieldUpdate) (Account, error) {
	for _, u := range updates {
		switch u.Field {
		case FieldFirstName:
			acc.FirstName = u.Value
		case FieldLastName:
			acc.LastName = u.Value
		case FieldBalance:
			d, err := parseDecimal(u)
			if err != nil {
				return Account{}, err
			}
			acc.Balance = d
		case FieldMinimumBalance:
			d, err := parseDecimal(u)
			if err != nil {
				return Account{}, err
			}
			acc.MinimumBalance = d
		case FieldActive:
			acc.Active = strings.EqualFold(u.Value, "true")
		case FieldUnknown, FieldID, FieldAccountID, FieldCreatedAt, FieldUpdatedAt:
			return Account{}, UnauthorizedFieldError{Field: u.Field}
		default:
			return Account{}, UnauthorizedFieldError{Field: u.Field}
		}
	}
	return acc, nil
}

func parseDecimal(u FieldUpdate) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(u.Value))
	if err != nil {
		return decimal.Decimal{}, ParseError{Field: u.Field, Value: u.Value, Err: err}
	}
	return d, nil
}

// Package valueobject contains immutable domain values with their own
// validation and behavior.
package valueobject

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrInvalidURN        = errors.New("invalid urn")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrNegativeAmount    = errors.New("amount cannot be negative")
	ErrInvalidCurrency   = errors.New("currency must be a three-letter code")
	errInsufficientFunds = errors.New("resulting amount would be negative")
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email is a validated, lowercased email address.
type Email struct {
	value string
}

// NewEmail validates and normalizes an email address.
func NewEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if !emailPattern.MatchString(normalized) {
		return Email{}, ErrInvalidEmail
	}
	return Email{value: normalized}, nil
}

// String returns the normalized address.
func (e Email) String() string {
	return e.value
}

// Domain returns the part after the @.
func (e Email) Domain() string {
	at := strings.LastIndex(e.value, "@")
	return e.value[at+1:]
}

// Money is an amount in minor units (cents) with a currency code.
type Money struct {
	cents    int64
	currency string
}

// NewMoney creates a Money value. Currency must be a three-letter code.
func NewMoney(cents int64, currency string) (Money, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	if cents < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{cents: cents, currency: code}, nil
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 {
	return m.cents
}

// Currency returns the three-letter currency code.
func (m Money) Currency() string {
	return m.currency
}

// Add returns the sum of two amounts in the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{cents: m.cents + other.cents, currency: m.currency}, nil
}

// Subtract returns the difference, failing if the result would be negative.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	if other.cents > m.cents {
		return Money{}, errInsufficientFunds
	}
	return Money{cents: m.cents - other.cents, currency: m.currency}, nil
}

// Multiply scales the amount by a non-negative factor.
func (m Money) Multiply(factor int64) (Money, error) {
	if factor < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{cents: m.cents * factor, currency: m.currency}, nil
}

// String formats the amount as "12.34 USD".
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.cents/100, m.cents%100, m.currency)
}

// URN is a uniform resource name of the form "urn:<kind>:<uuid>".
type URN struct {
	kind string
	id   string
}

// NewURN generates a fresh URN for a kind.
func NewURN(kind string) (URN, error) {
	if kind == "" || strings.ContainsRune(kind, ':') {
		return URN{}, ErrInvalidURN
	}
	return URN{kind: kind, id: uuid.NewString()}, nil
}

// ParseURN parses "urn:<kind>:<uuid>" into a URN.
func ParseURN(raw string) (URN, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 || parts[0] != "urn" || parts[1] == "" {
		return URN{}, ErrInvalidURN
	}
	if _, err := uuid.Parse(parts[2]); err != nil {
		return URN{}, ErrInvalidURN
	}
	return URN{kind: parts[1], id: parts[2]}, nil
}

// Kind returns the resource kind segment.
func (u URN) Kind() string {
	return u.kind
}

// ID returns the uuid segment.
func (u URN) ID() string {
	return u.id
}

// String returns the canonical "urn:<kind>:<uuid>" form.
func (u URN) String() string {
	return "urn:" + u.kind + ":" + u.id
}

package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Monthly BillingCycle = "monthly"
	Yearly  BillingCycle = "yearly"
)

const (
	KRW Currency = "KRW"
	USD Currency = "USD"
)

const (
	Personal ExpenseType = "personal"
	Company  ExpenseType = "company"
)

const (
	Streaming Category = "streaming"
	Music     Category = "music"
	Software  Category = "software"
	Shopping  Category = "shopping"
	Fitness   Category = "fitness"
	Other     Category = "other"
)

type (
	BillingCycle string
	Currency     string
	ExpenseType  string
	Category     string

	// Subscription is a persisted recurring-service record. Price is
	// denominated in Currency; its meaning depends on BillingCycle.
	Subscription struct {
		ID           string
		Name         string
		ExpenseType  ExpenseType
		Category     Category
		Currency     Currency
		Price        decimal.Decimal
		BillingCycle BillingCycle
		StartDate    time.Time
		EndDate      *time.Time // nil means indefinite
		Description  string
	}
)

var (
	ErrEmptyID          = errors.New("empty id")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidCycle     = errors.New("invalid billing cycle")
	ErrInvalidCurrency  = errors.New("invalid currency")
	ErrInvalidType      = errors.New("invalid expense type")
	ErrZeroStartDate    = errors.New("start date cannot be zero")
	ErrInvalidDateRange = errors.New("end date must be on or after start date")
	ErrNameTooLong      = errors.New("name too long (max 200 characters)")
	ErrDescTooLong      = errors.New("description too long (max 500 characters)")
)

// NewID returns a fresh opaque subscription identifier.
func NewID() string {
	return uuid.NewString()
}

// NewDate creates a calendar date (midnight UTC) from year, month, day.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Normalize returns a canonical copy of a possibly-legacy record: records
// written before expense types and currencies existed carry empty fields,
// and unrecognized categories map to Other. Downstream computations assume
// a normalized record and never default on their own.
func (s Subscription) Normalize() Subscription {
	if s.ExpenseType != Personal && s.ExpenseType != Company {
		s.ExpenseType = Personal
	}
	if s.Currency != KRW && s.Currency != USD {
		s.Currency = KRW
	}
	switch s.Category {
	case Streaming, Music, Software, Shopping, Fitness, Other:
	default:
		s.Category = Other
	}
	s.Name = strings.TrimSpace(s.Name)
	s.Description = strings.TrimSpace(s.Description)
	return s
}

// Validate checks a normalized record before it is persisted.
func (s Subscription) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if len(s.Name) > 200 {
		return ErrNameTooLong
	}
	if s.Price.Sign() <= 0 {
		return ErrInvalidPrice
	}
	switch s.BillingCycle {
	case Monthly, Yearly:
	default:
		return ErrInvalidCycle
	}
	switch s.Currency {
	case KRW, USD:
	default:
		return ErrInvalidCurrency
	}
	switch s.ExpenseType {
	case Personal, Company:
	default:
		return ErrInvalidType
	}
	if s.StartDate.IsZero() {
		return ErrZeroStartDate
	}
	if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
		return ErrInvalidDateRange
	}
	if len(s.Description) > 500 {
		return ErrDescTooLong
	}
	return nil
}

// Matches reports whether the record belongs to the given tab
// ("all", "personal" or "company").
func (s Subscription) Matches(tab string) bool {
	return tab == "all" || tab == "" || string(s.ExpenseType) == tab
}

package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	KindTransaction Kind = "transaction"
	KindTask        Kind = "task"
	KindNote        Kind = "note"
	KindGoal        Kind = "goal"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusPaid      = "paid"
)

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type (
	// Kind discriminates the shape of an Item's Properties.
	Kind string

	Direction string

	Priority string

	// Money is a signed amount in cents. Positive means income,
	// negative means expense.
	Money struct {
		Cents int64
	}

	TransactionProperties struct {
		Amount    Money     `json:"amount_cents"`
		Currency  string    `json:"currency"`
		Direction Direction `json:"direction"`
		Category  string    `json:"category"`
	}

	TaskProperties struct {
		IsChecked        bool     `json:"is_checked"`
		Priority         Priority `json:"priority"`
		EstimatedMinutes int      `json:"estimated_minutes,omitempty"`
	}

	NoteProperties struct {
		BodyContent string `json:"body_content,omitempty"`
	}

	GoalProperties struct {
		TargetAmount    *Money     `json:"target_amount_cents,omitempty"`
		Deadline        *time.Time `json:"deadline,omitempty"`
		CurrentProgress int        `json:"current_progress"`
	}

	// Properties is the variant payload of an Item. Exactly one field is
	// non-nil and it must be the one selected by the Item's Kind.
	Properties struct {
		Transaction *TransactionProperties `json:"transaction,omitempty"`
		Task        *TaskProperties        `json:"task,omitempty"`
		Note        *NoteProperties        `json:"note,omitempty"`
		Goal        *GoalProperties        `json:"goal,omitempty"`
	}

	// Item is the unit of record: a single life event of any kind.
	Item struct {
		ID          uuid.UUID  `json:"id"`
		OwnerID     string     `json:"owner_id"`
		Kind        Kind       `json:"kind"`
		Title       string     `json:"title"`
		Description string     `json:"description,omitempty"`
		OccurredAt  time.Time  `json:"occurred_at"`
		CreatedAt   time.Time  `json:"created_at"`
		Status      string     `json:"status"`
		Properties  Properties `json:"properties"`
	}
)

var (
	ErrInvalidKind        = errors.New("invalid item kind")
	ErrEmptyTitle         = errors.New("empty title")
	ErrZeroOccurredAt     = errors.New("occurred_at cannot be zero")
	ErrPropertiesMismatch = errors.New("properties shape does not match kind")
	ErrAmountDirection    = errors.New("amount sign does not agree with direction")
	ErrInvalidPriority    = errors.New("invalid task priority")
	ErrInvalidProgress    = errors.New("goal progress must be between 0 and 100")
)

// validationError marks ad-hoc invariant violations so callers can treat
// them like the sentinel errors above.
type validationError string

func (e validationError) Error() string { return string(e) }

// IsValidation reports whether err is a domain validation failure, as
// opposed to an infrastructure error.
func IsValidation(err error) bool {
	var ve validationError
	if errors.As(err, &ve) {
		return true
	}
	for _, sentinel := range []error{
		ErrInvalidKind, ErrEmptyTitle, ErrZeroOccurredAt, ErrPropertiesMismatch,
		ErrAmountDirection, ErrInvalidPriority, ErrInvalidProgress,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// IsValid returns true if the kind is one of the known discriminants.
func (k Kind) IsValid() bool {
	switch k {
	case KindTransaction, KindTask, KindNote, KindGoal:
		return true
	default:
		return false
	}
}

// DefaultStatus returns the status assigned to a freshly created item.
func (k Kind) DefaultStatus() string {
	if k == KindTransaction {
		return StatusPaid
	}
	return StatusPending
}

// Validate checks that exactly the variant selected by kind is present and
// that the variant's own invariants hold.
func (p Properties) Validate(kind Kind) error {
	if !kind.IsValid() {
		return ErrInvalidKind
	}

	set := 0
	if p.Transaction != nil {
		set++
	}
	if p.Task != nil {
		set++
	}
	if p.Note != nil {
		set++
	}
	if p.Goal != nil {
		set++
	}
	if set != 1 {
		return ErrPropertiesMismatch
	}

	switch kind {
	case KindTransaction:
		if p.Transaction == nil {
			return ErrPropertiesMismatch
		}
		return p.Transaction.Validate()
	case KindTask:
		if p.Task == nil {
			return ErrPropertiesMismatch
		}
		return p.Task.Validate()
	case KindNote:
		if p.Note == nil {
			return ErrPropertiesMismatch
		}
		return nil
	case KindGoal:
		if p.Goal == nil {
			return ErrPropertiesMismatch
		}
		return p.Goal.Validate()
	}
	return ErrInvalidKind
}

func (tp TransactionProperties) Validate() error {
	switch tp.Direction {
	case DirectionIncome:
		if tp.Amount.Cents < 0 {
			return ErrAmountDirection
		}
	case DirectionExpense:
		if tp.Amount.Cents > 0 {
			return ErrAmountDirection
		}
	default:
		return validationError("invalid transaction direction")
	}
	return nil
}

func (tp TaskProperties) Validate() error {
	switch tp.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return ErrInvalidPriority
	}
	if tp.EstimatedMinutes < 0 {
		return validationError("estimated minutes cannot be negative")
	}
	return nil
}

func (gp GoalProperties) Validate() error {
	if gp.CurrentProgress < 0 || gp.CurrentProgress > 100 {
		return ErrInvalidProgress
	}
	return nil
}

// Validate checks the invariants of a fully populated item, including the
// task status/is_checked coupling.
func (it Item) Validate() error {
	if !it.Kind.IsValid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(it.Title) == "" {
		return ErrEmptyTitle
	}
	if len(it.Title) > 200 {
		return validationError("title too long (max 200 characters)")
	}
	if it.OccurredAt.IsZero() {
		return ErrZeroOccurredAt
	}
	if err := it.Properties.Validate(it.Kind); err != nil {
		return err
	}
	if it.Kind == KindTask {
		checked := it.Properties.Task.IsChecked
		if checked && it.Status != StatusCompleted {
			return validationError("checked task must have status completed")
		}
		if !checked && it.Status == StatusCompleted {
			return validationError("completed task must be checked")
		}
	}
	return nil
}

// Reais returns the amount as a float for display purposes. Calculations
// stay in cents to avoid floating point drift.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

package reminder

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"remindbot/internal/recurrence"
)

// ErrNotFound is returned for a bad index or id. The store never panics on lookup.
var ErrNotFound = errors.New("reminder not found")

var ErrDuplicateID = errors.New("reminder id already registered")

type Kind int

const (
	Medicine Kind = iota + 1
	Water
)

func (k Kind) String() string {
	switch k {
	case Medicine:
		return "medicina"
	case Water:
		return "agua"
	default:
		return "desconocido"
	}
}

type Status int

const (
	Active Status = iota + 1
	Stopped
)

// Spec is one active reminder as the user defined it.
type Spec struct {
	ID        string
	ChatID    int64
	Kind      Kind
	Label     string
	Rule      recurrence.Rule
	Status    Status
	CreatedAt time.Time
}

// Handle is the live timer behind a Spec.
type Handle interface {
	Stop() bool
	Next() time.Time
}

// Listing is one row of a chat's reminder list. Index is 0-based insertion order.
type Listing struct {
	Index int
	ID    string
	Kind  Kind
	Label string
	Rule  recurrence.Rule
	Next  time.Time
}

// NewID returns a fresh reminder id.
func NewID() string { return uuid.NewString() }

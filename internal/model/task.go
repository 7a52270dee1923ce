package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
)

var (
	ErrEmptyTitle    = errors.New("model: task title is required")
	ErrTitleTooLong  = fmt.Errorf("model: task title cannot exceed %d characters", MaxTitleLen)
	ErrDescTooLong   = fmt.Errorf("model: task description cannot exceed %d characters", MaxDescriptionLen)
	ErrInvalidTaskID = errors.New("model: invalid task id")
)

// TaskID is either a server-assigned numeric id or a client-generated
// temporary token that exists only until the create call is confirmed.
// The zero value is invalid.
type TaskID struct {
	num  int64
	temp string
}

func PersistedID(n int64) TaskID {
	return TaskID{num: n}
}

func NewTempID() TaskID {
	return TaskID{temp: uuid.NewString()}
}

// ParseID accepts the form produced by String: a decimal number for
// persisted ids, or "tmp-<token>" for temporary ones.
func ParseID(raw string) (TaskID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return TaskID{}, ErrInvalidTaskID
	}
	if token, ok := strings.CutPrefix(raw, "tmp-"); ok {
		if token == "" {
			return TaskID{}, ErrInvalidTaskID
		}
		return TaskID{temp: token}, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return TaskID{}, ErrInvalidTaskID
	}
	return TaskID{num: n}, nil
}

func (id TaskID) IsTemp() bool { return id.temp != "" }

func (id TaskID) IsZero() bool { return id.num == 0 && id.temp == "" }

// Num returns the persisted numeric id, valid only when !IsTemp().
func (id TaskID) Num() int64 { return id.num }

func (id TaskID) String() string {
	if id.temp != "" {
		return "tmp-" + id.temp
	}
	return strconv.FormatInt(id.num, 10)
}

// Key returns a stable map key. Persisted and temporary ids never collide
// because temporary keys carry the prefix.
func (id TaskID) Key() string { return id.String() }

type Task struct {
	ID          TaskID
	Title       string
	Description string
	IsDone      bool
	Position    int
}

func (t Task) IsTemp() bool { return t.ID.IsTemp() }

func (t Task) Validate() error {
	if t.ID.IsZero() {
		return ErrInvalidTaskID
	}
	return ValidateContent(t.Title, t.Description)
}

// ValidateContent checks the client-side mirror of the server bounds.
func ValidateContent(title, description string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if len(title) > MaxTitleLen {
		return ErrTitleTooLong
	}
	if len(description) > MaxDescriptionLen {
		return ErrDescTooLong
	}
	return nil
}

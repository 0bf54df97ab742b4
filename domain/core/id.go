package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	AlertID ID
	EventID ID
)

// String conversions for domain IDs
func (id AlertID) String() string { return ID(id).String() }
func (id EventID) String() string { return ID(id).String() }

// NewAlertID creates a new alert identifier
func NewAlertID() AlertID { return AlertID(NewID()) }

// NewEventID creates a new event identifier
func NewEventID() EventID { return EventID(NewID()) }

// ParseAlertID parses a string into AlertID
func ParseAlertID(s string) (AlertID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("alert ID cannot be empty")
	}
	return AlertID(s), nil
}

// ParseEventID parses a string into EventID
func ParseEventID(s string) (EventID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("event ID cannot be empty")
	}
	return EventID(s), nil
}

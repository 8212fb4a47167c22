package domain

import (
	"fmt"
	"strings"
)

// Status represents the lifecycle copy a versionable entity row belongs to.
// Every block, layout, zone and collection exists as up to three independent
// rows sharing the same identifier, one per status.
type Status string

const (
	// StatusDraft identifies the editable working copy
	StatusDraft Status = "draft"
	// StatusPublished identifies the copy served to consumers
	StatusPublished Status = "published"
	// StatusArchived identifies the copy retained after a publication was replaced
	StatusArchived Status = "archived"
)

// Statuses lists every known status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusDraft, StatusPublished, StatusArchived}
}

// Valid reports whether the status is one of the known lifecycle values.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus normalises user supplied status strings.
func ParseStatus(input string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(input)))
	if !status.Valid() {
		return "", fmt.Errorf("domain: unknown status %q", input)
	}
	return status, nil
}

// StatusesOrAll expands an optional status filter into the statuses it covers.
func StatusesOrAll(status *Status) []Status {
	if status == nil {
		return Statuses()
	}
	return []Status{*status}
}

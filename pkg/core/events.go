package core

import "fmt"

// EventType represents the kind of change observed in a type catalog.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event reports a change to the type catalog of a file repository.
// Types holds the ids defined by the affected file after the reload.
type Event struct {
	Type      EventType
	Path      string
	Types     []string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s (%d types)", e.Type, e.Path, len(e.Types))
}

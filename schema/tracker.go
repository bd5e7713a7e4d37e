package schema

import (
	"sort"
	"time"

	"github.com/c360/topiclens/errors"
	"github.com/c360/topiclens/pkg/jsonfield"
	"github.com/c360/topiclens/pkg/ring"
)

// ChangeType classifies one schema difference.
type ChangeType int

const (
	// FieldAdded marks a field present now but not before.
	FieldAdded ChangeType = iota
	// FieldRemoved marks a field present before but not now.
	FieldRemoved
	// TypeChanged marks a field whose type differs.
	TypeChanged
)

func (c ChangeType) String() string {
	switch c {
	case FieldAdded:
		return "added"
	case FieldRemoved:
		return "removed"
	default:
		return "type_changed"
	}
}

// Symbol is the one character form used in compact views.
func (c ChangeType) Symbol() string {
	switch c {
	case FieldAdded:
		return "+"
	case FieldRemoved:
		return "-"
	default:
		return "~"
	}
}

// Change records one detected schema difference on a topic.
type Change struct {
	Topic     string          `json:"topic"`
	Type      ChangeType      `json:"-"`
	FieldPath string          `json:"field_path"`
	OldType   *jsonfield.Type `json:"old_type,omitempty"`
	NewType   *jsonfield.Type `json:"new_type,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Tracker stores the last seen schema per topic and a capped history
// of detected changes. Not safe for concurrent use.
type Tracker struct {
	schemas map[string]map[string]jsonfield.Type
	changes *ring.Ring[Change]

	now func() time.Time
}

// NewTracker keeps at most maxChanges recent changes.
func NewTracker(maxChanges int) (*Tracker, error) {
	if maxChanges <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Tracker", "NewTracker", "max changes must be positive")
	}
	return &Tracker{
		schemas: map[string]map[string]jsonfield.Type{},
		changes: ring.MustNew[Change](maxChanges),
		now:     time.Now,
	}, nil
}

// Process diffs a payload against the topic's stored schema and
// returns the detected changes. The first JSON sighting on a topic
// establishes the schema without reporting anything. Non-JSON payloads
// are a no-op.
func (t *Tracker) Process(topic string, payload []byte) []Change {
	v, ok := jsonfield.Parse(payload)
	if !ok {
		return nil
	}
	fields := jsonfield.Flatten(v)

	old, known := t.schemas[topic]
	t.schemas[topic] = fields
	if !known {
		return nil
	}

	detected := t.diff(topic, old, fields)
	for _, c := range detected {
		t.changes.Push(c)
	}
	return detected
}

// diff reports added fields, removed fields and type changes, each
// group in path order.
func (t *Tracker) diff(topic string, old, new map[string]jsonfield.Type) []Change {
	now := t.now()
	var changes []Change

	for _, path := range sortedPaths(new) {
		if _, ok := old[path]; !ok {
			newType := new[path]
			changes = append(changes, Change{
				Topic:     topic,
				Type:      FieldAdded,
				FieldPath: path,
				NewType:   &newType,
				Timestamp: now,
			})
		}
	}
	for _, path := range sortedPaths(old) {
		if _, ok := new[path]; !ok {
			oldType := old[path]
			changes = append(changes, Change{
				Topic:     topic,
				Type:      FieldRemoved,
				FieldPath: path,
				OldType:   &oldType,
				Timestamp: now,
			})
		}
	}
	for _, path := range sortedPaths(old) {
		newType, ok := new[path]
		if !ok {
			continue
		}
		if oldType := old[path]; oldType != newType {
			ot, nt := oldType, newType
			changes = append(changes, Change{
				Topic:     topic,
				Type:      TypeChanged,
				FieldPath: path,
				OldType:   &ot,
				NewType:   &nt,
				Timestamp: now,
			})
		}
	}
	return changes
}

// RecentChanges returns the retained change history, oldest first.
func (t *Tracker) RecentChanges() []Change {
	return t.changes.Items()
}

// HasRecentChanges reports whether any retained change happened within
// the given interval.
func (t *Tracker) HasRecentChanges(within time.Duration) bool {
	cutoff := t.now().Add(-within)
	for _, c := range t.changes.Items() {
		if c.Timestamp.After(cutoff) {
			return true
		}
	}
	return false
}

// Schema returns the stored field map for a topic.
func (t *Tracker) Schema(topic string) (map[string]jsonfield.Type, bool) {
	s, ok := t.schemas[topic]
	return s, ok
}

// TopicCount reports how many topics have an established schema.
func (t *Tracker) TopicCount() int {
	return len(t.schemas)
}

// ClearChanges drops the change history, keeping stored schemas.
func (t *Tracker) ClearChanges() {
	t.changes.Clear()
}

// Clear forgets schemas and history both.
func (t *Tracker) Clear() {
	t.schemas = map[string]map[string]jsonfield.Type{}
	t.changes.Clear()
}

func sortedPaths(fields map[string]jsonfield.Type) []string {
	paths := make([]string, 0, len(fields))
	for p := range fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

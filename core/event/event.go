package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrNotMapping is returned when a payload handed to Materialize is not a JSON object.
var ErrNotMapping = errors.New("payload is not a mapping")

var keyReplacer = strings.NewReplacer("-", "_", " ", "_", ".", "_")

// SanitizeKey maps a raw payload key to the field name exposed on an Event.
// "-", " " and "." become "_", and the key "from" becomes "from_user".
func SanitizeKey(key string) string {
	if key == "from" {
		return "from_user"
	}
	return keyReplacer.Replace(key)
}

// Event is a read-only view over one update payload. Nested objects are
// themselves Events; every other value is kept as decoded.
type Event struct {
	name   string
	fields map[string]any
}

// Materialize builds an Event named name from payload. payload must be a
// map[string]any (or a nil-able equivalent produced by encoding/json).
func Materialize(name string, payload any) (*Event, error) {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("materialize %s: %w (got %T)", name, ErrNotMapping, payload)
	}
	return materialize(name, m), nil
}

func materialize(name string, m map[string]any) *Event {
	// Sorted so that colliding sanitized keys resolve the same way every time.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make(map[string]any, len(m))
	for _, k := range keys {
		sk := SanitizeKey(k)
		if nested, ok := m[k].(map[string]any); ok {
			fields[sk] = materialize(sk, nested)
			continue
		}
		fields[sk] = m[k]
	}
	return &Event{name: name, fields: fields}
}

// Decode parses a JSON object and materializes it. Numbers are kept as
// json.Number so large identifiers survive intact.
func Decode(name string, data []byte) (*Event, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return Materialize(name, v)
}

// Name is the type name the event was materialized under.
func (e *Event) Name() string {
	if e == nil {
		return ""
	}
	return e.name
}

// Fields returns the sanitized field names in sorted order.
func (e *Event) Fields() []string {
	if e == nil {
		return nil
	}
	names := make([]string, 0, len(e.fields))
	for k := range e.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Has reports whether the field is present, even when its value is null.
func (e *Event) Has(field string) bool {
	if e == nil {
		return false
	}
	_, ok := e.fields[field]
	return ok
}

// Get returns the raw value of a field.
func (e *Event) Get(field string) (any, bool) {
	if e == nil {
		return nil, false
	}
	v, ok := e.fields[field]
	return v, ok
}

// String returns the field as a string, or "" when absent or not a string.
func (e *Event) String(field string) string {
	v, _ := e.Get(field)
	s, _ := v.(string)
	return s
}

// Int returns the field as an int64. Missing or non-numeric fields yield 0.
func (e *Event) Int(field string) int64 {
	v, _ := e.Get(field)
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i
		}
	}
	return 0
}

// Float returns the field as a float64. Missing or non-numeric fields yield 0.
func (e *Event) Float(field string) float64 {
	v, _ := e.Get(field)
	switch n := v.(type) {
	case json.Number:
		f, _ := n.Float64()
		return f
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// Bool returns the field as a bool.
func (e *Event) Bool(field string) bool {
	v, _ := e.Get(field)
	b, _ := v.(bool)
	return b
}

// Event returns a nested event, or nil when the field is absent or not an object.
// Accessors on a nil *Event are safe, so chains like e.Event("chat").Int("id") work.
func (e *Event) Event(field string) *Event {
	v, _ := e.Get(field)
	nested, _ := v.(*Event)
	return nested
}

// List returns the field as a slice, unchanged from the payload.
func (e *Event) List(field string) []any {
	v, _ := e.Get(field)
	l, _ := v.([]any)
	return l
}

// Events materializes the object elements of a list field. Non-object
// elements are skipped.
func (e *Event) Events(field string) []*Event {
	list := e.List(field)
	out := make([]*Event, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, materialize(field, m))
		}
	}
	return out
}

// Map converts the event back into plain maps with sanitized keys.
func (e *Event) Map() map[string]any {
	if e == nil {
		return nil
	}
	out := make(map[string]any, len(e.fields))
	for k, v := range e.fields {
		if nested, ok := v.(*Event); ok {
			out[k] = nested.Map()
			continue
		}
		out[k] = v
	}
	return out
}

// MarshalJSON renders the sanitized view.
func (e *Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Map())
}

func (e *Event) GoString() string {
	data, err := e.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%s(<unprintable: %v>)", e.Name(), err)
	}
	return fmt.Sprintf("%s(%s)", e.Name(), data)
}

// Package message implements the event envelope carried on the ingress path.
//
// Two encodings are accepted on input:
//
//   - structured: a JSON object {"event_name": "...", "msg": "..."}
//   - simple: "<event_name>:<payload>", split on the first colon only
//
// Decode never fails. Anything that is not a valid structured envelope is
// read in the simple form, and input without an event name is routed to
// DefaultEvent.
package message

import (
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// DefaultEvent is the routing key assigned when a line carries no event name.
const DefaultEvent = "default"

// EventMessage is one decoded ingress line.
type EventMessage struct {
	Msg       string `json:"msg"`
	EventName string `json:"event_name"`
}

// New returns an EventMessage; an empty event name becomes DefaultEvent.
func New(eventName, msg string) EventMessage {
	if eventName == "" {
		eventName = DefaultEvent
	}
	return EventMessage{Msg: msg, EventName: eventName}
}

// Decode parses raw as a structured envelope, falling back to the simple form.
func Decode(raw string) EventMessage {
	if m, err := DecodeJSON(raw); err == nil {
		return m
	}
	return ParseSimple(raw)
}

// DecodeJSON parses the structured form only. Both fields must be present
// and be strings; unknown fields are ignored.
func DecodeJSON(raw string) (EventMessage, error) {
	if !gjson.Valid(raw) {
		return EventMessage{}, decodeError{reason: "invalid json"}
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return EventMessage{}, decodeError{reason: "not an object"}
	}
	name := doc.Get("event_name")
	msg := doc.Get("msg")
	if name.Type != gjson.String {
		return EventMessage{}, decodeError{reason: "event_name missing or not a string"}
	}
	if msg.Type != gjson.String {
		return EventMessage{}, decodeError{reason: "msg missing or not a string"}
	}
	return New(name.String(), msg.String()), nil
}

// ParseSimple parses "<event_name>:<payload>". Only the first colon splits;
// surrounding whitespace is trimmed from both halves. Without a colon, or
// with nothing after it, the whole input is the payload.
func ParseSimple(raw string) EventMessage {
	prefix, rest, ok := strings.Cut(raw, ":")
	if !ok || rest == "" {
		return EventMessage{Msg: raw, EventName: DefaultEvent}
	}
	return New(strings.TrimSpace(prefix), strings.TrimSpace(rest))
}

// Encode returns the structured encoding of m.
func Encode(m EventMessage) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// JSON is shorthand for Encode(m).
func (m EventMessage) JSON() (string, error) { return Encode(m) }

// String renders the simple form.
func (m EventMessage) String() string { return m.EventName + ":" + m.Msg }

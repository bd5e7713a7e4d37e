package message

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Message is a decoded inbound publish. Created on arrival and
// immutable thereafter; owned by whichever per-topic log slot holds it
// until evicted.
type Message struct {
	Topic     string    `json:"topic"`
	Payload   []byte    `json:"payload"`
	QoS       byte      `json:"qos"`
	Retain    bool      `json:"retain"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates a message stamped with the current time.
func New(topic string, payload []byte, qos byte, retain bool) Message {
	return Message{
		Topic:     topic,
		Payload:   payload,
		QoS:       qos,
		Retain:    retain,
		Timestamp: time.Now(),
	}
}

// Size returns the payload size in bytes.
func (m Message) Size() int {
	return len(m.Payload)
}

// PayloadString returns the payload as a string when it is valid UTF-8.
func (m Message) PayloadString() (string, bool) {
	if !utf8.Valid(m.Payload) {
		return "", false
	}
	return string(m.Payload), true
}

// PayloadJSONIndent pretty-prints the payload when it is valid JSON.
func (m Message) PayloadJSONIndent() (string, bool) {
	var v any
	if err := json.Unmarshal(m.Payload, &v); err != nil {
		return "", false
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", false
	}
	return string(out), true
}

// PayloadHex renders the payload as space-separated hex bytes.
func (m Message) PayloadHex() string {
	var b strings.Builder
	for i, by := range m.Payload {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02x", by)
	}
	return b.String()
}

package message

import (
	"sort"

	"github.com/c360/topiclens/errors"
	"github.com/c360/topiclens/pkg/ring"
)

// Log stores the last N messages per topic, evicting the oldest entry
// on overflow. Not safe for concurrent use; the dispatcher owns it.
type Log struct {
	buffers     map[string]*ring.Ring[Message]
	maxPerTopic int
	totalStored int
}

// NewLog creates a log keeping at most maxPerTopic messages per topic.
// A non-positive capacity is a configuration error.
func NewLog(maxPerTopic int) (*Log, error) {
	if maxPerTopic <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Log", "NewLog", "per-topic capacity must be positive")
	}
	return &Log{
		buffers:     make(map[string]*ring.Ring[Message]),
		maxPerTopic: maxPerTopic,
	}, nil
}

// Push appends a message to its topic's queue, evicting the oldest
// entry first when the queue is at capacity.
func (l *Log) Push(msg Message) {
	buf, ok := l.buffers[msg.Topic]
	if !ok {
		buf = ring.MustNew[Message](l.maxPerTopic)
		l.buffers[msg.Topic] = buf
	}

	if buf.Push(msg) {
		l.totalStored--
	}
	l.totalStored++
}

// Get returns the messages for a topic, newest first.
func (l *Log) Get(topic string) []Message {
	buf, ok := l.buffers[topic]
	if !ok {
		return nil
	}
	items := buf.Items()
	out := make([]Message, len(items))
	for i, m := range items {
		out[len(items)-1-i] = m
	}
	return out
}

// Latest returns the most recent message for a topic.
func (l *Log) Latest(topic string) (Message, bool) {
	buf, ok := l.buffers[topic]
	if !ok {
		return Message{}, false
	}
	return buf.Newest()
}

// CountForTopic returns the number of stored messages for a topic.
func (l *Log) CountForTopic(topic string) int {
	buf, ok := l.buffers[topic]
	if !ok {
		return 0
	}
	return buf.Len()
}

// TotalStored returns the message count summed across all topics.
func (l *Log) TotalStored() int {
	return l.totalStored
}

// TopicCount returns the number of topics with stored messages.
func (l *Log) TopicCount() int {
	return len(l.buffers)
}

// RecentAll returns up to limit messages across all topics, newest
// first by capture time.
func (l *Log) RecentAll(limit int) []Message {
	var all []Message
	for _, buf := range l.buffers {
		all = append(all, buf.Items()...)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// Clear drops all topics.
func (l *Log) Clear() {
	l.buffers = make(map[string]*ring.Ring[Message])
	l.totalStored = 0
}

// ClearTopic drops the queue for a single topic.
func (l *Log) ClearTopic(topic string) {
	if buf, ok := l.buffers[topic]; ok {
		l.totalStored -= buf.Len()
		delete(l.buffers, topic)
	}
}

package metric

import (
	"sort"
	"time"

	"github.com/c360/topiclens/errors"
	"github.com/c360/topiclens/pkg/jsonfield"
	"github.com/c360/topiclens/pkg/ring"
	"github.com/c360/topiclens/topic"
)

// Sample is one observed value of a tracked metric.
type Sample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// TrackedMetric is a named series bound to a topic wildcard filter and
// a JSON field path. Mutated only by its Tracker on message match.
type TrackedMetric struct {
	Label        string `json:"label"`
	TopicPattern string `json:"topic_pattern"`
	FieldPath    string `json:"field_path"`

	series *ring.Ring[Sample]
	min    float64
	max    float64
	sum    float64
	count  uint64
}

func newTrackedMetric(label, pattern, fieldPath string, maxPoints int) *TrackedMetric {
	return &TrackedMetric{
		Label:        label,
		TopicPattern: pattern,
		FieldPath:    fieldPath,
		series:       ring.MustNew[Sample](maxPoints),
	}
}

func (m *TrackedMetric) record(at time.Time, value float64) {
	m.series.Push(Sample{Time: at, Value: value})

	if m.count == 0 || value < m.min {
		m.min = value
	}
	if m.count == 0 || value > m.max {
		m.max = value
	}
	m.sum += value
	m.count++
}

// Min returns the smallest value ever recorded, or 0 before any sample.
func (m *TrackedMetric) Min() float64 {
	if m.count == 0 {
		return 0
	}
	return m.min
}

// Max returns the largest value ever recorded, or 0 before any sample.
func (m *TrackedMetric) Max() float64 {
	if m.count == 0 {
		return 0
	}
	return m.max
}

// Sum returns the sum of all recorded values.
func (m *TrackedMetric) Sum() float64 {
	return m.sum
}

// Count returns the number of values ever recorded, including samples
// evicted from the capped series.
func (m *TrackedMetric) Count() uint64 {
	return m.count
}

// Avg returns the running mean, or 0 before any sample.
func (m *TrackedMetric) Avg() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// Latest returns the most recent value.
func (m *TrackedMetric) Latest() (float64, bool) {
	s, ok := m.series.Newest()
	if !ok {
		return 0, false
	}
	return s.Value, true
}

// Samples returns the retained series oldest-first.
func (m *TrackedMetric) Samples() []Sample {
	return m.series.Items()
}

// Sparkline produces up to width samples normalized to [0,1] by linear
// min-max scaling over the running extremes, evenly subsampling when
// the series holds more points than width. When max equals min every
// sample is 0. An empty series yields nil.
func (m *TrackedMetric) Sparkline(width int) []float64 {
	n := m.series.Len()
	if n == 0 || width <= 0 {
		return nil
	}
	if m.max <= m.min {
		return make([]float64, min(width, n))
	}

	valueRange := m.max - m.min
	step := 1
	if n > width {
		step = n / width
	}

	var out []float64
	for i := 0; i < n && len(out) < width; i += step {
		out = append(out, (m.series.At(i).Value-m.min)/valueRange)
	}
	return out
}

// Tracker owns all tracked metric series. Not safe for concurrent use;
// the dispatcher owns it.
type Tracker struct {
	metrics   map[string]*TrackedMetric
	maxPoints int

	now func() time.Time
}

// NewTracker creates a tracker whose series retain at most maxPoints
// samples each.
func NewTracker(maxPoints int) (*Tracker, error) {
	if maxPoints <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Tracker", "NewTracker", "series capacity must be positive")
	}
	return &Tracker{
		metrics:   make(map[string]*TrackedMetric),
		maxPoints: maxPoints,
		now:       time.Now,
	}, nil
}

// Track inserts a series under label, replacing any existing series
// with that label.
func (t *Tracker) Track(label, topicPattern, fieldPath string) {
	t.metrics[label] = newTrackedMetric(label, topicPattern, fieldPath, t.maxPoints)
}

// Untrack removes the series with the given label.
func (t *Tracker) Untrack(label string) {
	delete(t.metrics, label)
}

// Process feeds a message to every series whose filter matches topic.
// A series only records when its field path resolves to a number (or a
// numeric string) in the payload; resolution failure silently skips
// that series — payload shapes vary by design.
func (t *Tracker) Process(topic string, payload []byte) {
	if len(t.metrics) == 0 {
		return
	}

	v, ok := jsonfield.Parse(payload)
	if !ok {
		return
	}

	now := t.now()
	for _, m := range t.metrics {
		if !matchesPattern(m.TopicPattern, topic) {
			continue
		}
		if value, resolved := jsonfield.Numeric(v, m.FieldPath); resolved {
			m.record(now, value)
		}
	}
}

func matchesPattern(pattern, t string) bool {
	return topic.Match(pattern, t)
}

// Metrics returns all tracked series sorted by label.
func (t *Tracker) Metrics() []*TrackedMetric {
	out := make([]*TrackedMetric, 0, len(t.metrics))
	for _, m := range t.metrics {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Metric returns the series with the given label.
func (t *Tracker) Metric(label string) (*TrackedMetric, bool) {
	m, ok := t.metrics[label]
	return m, ok
}

// HasMetrics reports whether any series is tracked.
func (t *Tracker) HasMetrics() bool {
	return len(t.metrics) > 0
}

// Count reports the number of tracked series.
func (t *Tracker) Count() int {
	return len(t.metrics)
}

// Clear drops every tracked series. Used on transport switch.
func (t *Tracker) Clear() {
	t.metrics = make(map[string]*TrackedMetric)
}

package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/topiclens/config"
	"github.com/c360/topiclens/device"
	"github.com/c360/topiclens/health"
	"github.com/c360/topiclens/latency"
	"github.com/c360/topiclens/message"
	"github.com/c360/topiclens/metric"
	"github.com/c360/topiclens/pkg/jsonfield"
	"github.com/c360/topiclens/resilience"
	"github.com/c360/topiclens/schema"
	"github.com/c360/topiclens/stats"
	"github.com/c360/topiclens/topic"
)

// refreshInterval paces periodic device reclassification while the
// event loop is otherwise idle.
const refreshInterval = 10 * time.Second

// Dispatcher routes events to every analytics subsystem under one
// lock. Safe for concurrent use.
type Dispatcher struct {
	mu sync.RWMutex

	tree     *topic.Tree
	log      *message.Log
	traffic  *stats.Stats
	metrics  *metric.Tracker
	devices  *device.Tracker
	latency  *latency.Tracker
	schemas  *schema.Tracker
	monitor  *health.Monitor
	state    resilience.State
	platform *metric.PlatformMetrics

	logger *slog.Logger
}

// New builds a dispatcher with trackers sized from the config limits.
func New(cfg *config.Config, reg *metric.Registry, logger *slog.Logger) (*Dispatcher, error) {
	traffic, err := stats.New(cfg.Limits.StatsWindow)
	if err != nil {
		return nil, err
	}
	log, err := message.NewLog(cfg.Limits.MessageLogSize)
	if err != nil {
		return nil, err
	}
	metrics, err := metric.NewTracker(cfg.Limits.SeriesPoints)
	if err != nil {
		return nil, err
	}
	devices, err := device.NewTracker(device.Config{
		Patterns:    cfg.Limits.DevicePatterns,
		Window:      cfg.Limits.DeviceWindow,
		StaleAfter:  cfg.Limits.DeviceStaleAfter,
		HealthyRate: cfg.Limits.HealthyRate,
		WarningRate: cfg.Limits.WarningRate,
	})
	if err != nil {
		return nil, err
	}
	latencies, err := latency.NewTracker(cfg.Limits.LatencySamples)
	if err != nil {
		return nil, err
	}
	schemas, err := schema.NewTracker(cfg.Limits.SchemaChanges)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		tree:     topic.NewTree(),
		log:      log,
		traffic:  traffic,
		metrics:  metrics,
		devices:  devices,
		latency:  latencies,
		schemas:  schemas,
		monitor:  health.NewMonitor(),
		platform: reg.Platform,
		logger:   logger.With("component", "dispatch"),
	}, nil
}

// Run consumes events until the context ends or the channel closes.
// Device health is refreshed periodically so silent devices decay.
func (d *Dispatcher) Run(ctx context.Context, events <-chan Event) {
	d.monitor.UpdateHealthy("dispatch", "running")
	defer d.monitor.UpdateUnhealthy("dispatch", "stopped")

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.RefreshDevices()
		case ev, ok := <-events:
			if !ok {
				return
			}
			d.Handle(ev)
		}
	}
}

// Handle routes one event to its handler.
func (d *Dispatcher) Handle(ev Event) {
	d.platform.EventsTotal.WithLabelValues(ev.eventType()).Inc()
	switch e := ev.(type) {
	case MessageEvent:
		d.handleMessage(e.Message)
	case StateEvent:
		d.handleState(e)
	case ErrorEvent:
		d.logger.Warn("subsystem error", "subsystem", e.Component, "error", e.Err)
	}
}

func (d *Dispatcher) handleMessage(msg message.Message) {
	start := time.Now()

	d.mu.Lock()
	d.tree.Insert(msg.Topic, msg.Size())
	d.log.Push(msg)
	d.traffic.Record(msg.Size())
	d.metrics.Process(msg.Topic, msg.Payload)
	d.latency.Record(msg.Payload)
	changes := d.schemas.Process(msg.Topic, msg.Payload)
	_, attributed := d.devices.Process(msg.Topic, msg.Size())
	counts := d.devices.CountByStatus()
	series := d.metrics.Count()
	d.mu.Unlock()

	d.platform.MessagesReceived.Inc()
	d.platform.BytesReceived.Add(float64(msg.Size()))
	d.platform.SchemaChanges.Add(float64(len(changes)))
	d.platform.TrackedSeries.Set(float64(series))
	if attributed {
		d.setDeviceGauges(counts)
	}
	d.platform.ProcessingDuration.Observe(time.Since(start).Seconds())

	for _, c := range changes {
		d.logger.Info("schema change",
			"topic", c.Topic,
			"change", c.Type.String(),
			"field", c.FieldPath)
	}
}

func (d *Dispatcher) handleState(e StateEvent) {
	d.mu.Lock()
	prev := d.state
	d.state = e.State
	d.mu.Unlock()

	d.platform.ConnectionState.Set(float64(e.State))
	d.platform.ConsecutiveFails.Set(float64(e.Failures))
	if e.State == resilience.StateConnected && prev == resilience.StateReconnecting {
		d.platform.Reconnects.Inc()
	}

	switch e.State {
	case resilience.StateConnected:
		d.monitor.UpdateHealthy("transport", "connected")
		d.logger.Info("connected")
	case resilience.StateReconnecting:
		d.monitor.UpdateDegraded("transport", "reconnecting")
		d.logger.Warn("reconnecting", "failures", e.Failures, "error", e.Err)
	case resilience.StateDisconnected:
		d.monitor.UpdateUnhealthy("transport", "disconnected")
		d.logger.Warn("disconnected", "error", e.Err)
	default:
		d.monitor.UpdateDegraded("transport", "connecting")
	}
}

// RefreshDevices reclassifies device health against the current time.
func (d *Dispatcher) RefreshDevices() {
	d.mu.Lock()
	d.devices.RefreshAll()
	counts := d.devices.CountByStatus()
	d.mu.Unlock()

	d.setDeviceGauges(counts)
}

func (d *Dispatcher) setDeviceGauges(counts map[device.Status]int) {
	for _, s := range []device.Status{
		device.StatusHealthy, device.StatusWarning, device.StatusStale, device.StatusUnknown,
	} {
		d.platform.DevicesByStatus.WithLabelValues(s.String()).Set(float64(counts[s]))
	}
}

// State returns the last reported connection state.
func (d *Dispatcher) State() resilience.State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Monitor exposes the subsystem health monitor.
func (d *Dispatcher) Monitor() *health.Monitor {
	return d.monitor
}

// VisibleTopics lists the topic index rows for the given expansion set.
func (d *Dispatcher) VisibleTopics(expanded map[string]bool) []topic.Info {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tree.VisibleTopics(expanded)
}

// SearchTopics finds topics whose path contains the query.
func (d *Dispatcher) SearchTopics(query string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tree.Search(query)
}

// TopicStats returns per-topic counters from the index.
func (d *Dispatcher) TopicStats(name string) (topic.Stats, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tree.TopicStats(name)
}

// Messages returns the retained messages for a topic, newest first.
func (d *Dispatcher) Messages(topic string) []message.Message {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.log.Get(topic)
}

// RecentMessages returns the newest retained messages across topics.
func (d *Dispatcher) RecentMessages(limit int) []message.Message {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.log.RecentAll(limit)
}

// Devices lists device health records, most recently seen first.
func (d *Dispatcher) Devices() []*device.Health {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.devices.Devices()
}

// TrackMetric starts recording a metric series.
func (d *Dispatcher) TrackMetric(label, topicPattern, fieldPath string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metrics.Track(label, topicPattern, fieldPath)
}

// UntrackMetric stops recording a metric series.
func (d *Dispatcher) UntrackMetric(label string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metrics.Untrack(label)
}

// Metrics lists tracked metric series in label order.
func (d *Dispatcher) Metrics() []*metric.TrackedMetric {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.metrics.Metrics()
}

// NumericFields discovers numeric field paths in the latest retained
// payload on a topic, for metric field selection.
func (d *Dispatcher) NumericFields(topic string) ([]jsonfield.NumericField, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	msg, ok := d.log.Latest(topic)
	if !ok {
		return nil, false
	}
	v, ok := jsonfield.Parse(msg.Payload)
	if !ok {
		return nil, true
	}
	return jsonfield.NumericFields(v), true
}

// SchemaChanges returns the retained schema change history.
func (d *Dispatcher) SchemaChanges() []schema.Change {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.schemas.RecentChanges()
}

// TopicSchema returns the stored field map for a topic.
func (d *Dispatcher) TopicSchema(topic string) (map[string]jsonfield.Type, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.schemas.Schema(topic)
}

// Snapshot is a point-in-time summary of the whole system.
type Snapshot struct {
	State           string          `json:"state"`
	Uptime          string          `json:"uptime"`
	TotalMessages   uint64          `json:"total_messages"`
	TotalBytes      uint64          `json:"total_bytes"`
	MessageRate     float64         `json:"message_rate"`
	ByteRate        float64         `json:"byte_rate"`
	TopicCount      int             `json:"topic_count"`
	StoredMessages  int             `json:"stored_messages"`
	DeviceCount     int             `json:"device_count"`
	DevicesByStatus map[string]int  `json:"devices_by_status"`
	TrackedMetrics  []MetricSummary `json:"tracked_metrics"`
	SchemaChanges   int             `json:"schema_changes"`
	AvgInterArrival string          `json:"avg_inter_arrival,omitempty"`
	Jitter          string          `json:"jitter,omitempty"`
	HighLatency     bool            `json:"high_latency"`
}

// MetricSummary is the aggregate view of one tracked series.
type MetricSummary struct {
	Label  string  `json:"label"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	Latest float64 `json:"latest"`
	Count  uint64  `json:"count"`
}

// Snapshot captures the current state of every subsystem.
func (d *Dispatcher) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	statusCounts := map[string]int{}
	for s, n := range d.devices.CountByStatus() {
		statusCounts[s.String()] = n
	}

	metrics := d.metrics.Metrics()
	summaries := make([]MetricSummary, 0, len(metrics))
	for _, m := range metrics {
		latest, _ := m.Latest()
		summaries = append(summaries, MetricSummary{
			Label:  m.Label,
			Min:    m.Min(),
			Max:    m.Max(),
			Avg:    m.Avg(),
			Latest: latest,
			Count:  m.Count(),
		})
	}

	snap := Snapshot{
		State:           d.state.String(),
		Uptime:          d.traffic.UptimeString(),
		TotalMessages:   d.traffic.TotalMessages(),
		TotalBytes:      d.traffic.TotalBytes(),
		MessageRate:     d.traffic.Rate(),
		ByteRate:        d.traffic.ByteRate(),
		TopicCount:      d.tree.TopicCount(),
		StoredMessages:  d.log.TotalStored(),
		DeviceCount:     d.devices.DeviceCount(),
		DevicesByStatus: statusCounts,
		TrackedMetrics:  summaries,
		SchemaChanges:   len(d.schemas.RecentChanges()),
		HighLatency:     d.latency.HighLatency(),
	}
	if avg, ok := d.latency.AvgInterArrival(); ok {
		snap.AvgInterArrival = latency.FormatDuration(avg)
	}
	if j, ok := d.latency.Jitter(); ok {
		snap.Jitter = latency.FormatDuration(j)
	}
	return snap
}

// Reset clears all accumulated analytics state. Connection state and
// health reports are kept.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.tree.Clear()
	d.log.Clear()
	d.traffic.Reset()
	d.metrics.Clear()
	d.devices.Clear()
	d.latency.Reset()
	d.schemas.Clear()
	d.logger.Info("analytics state reset")
}

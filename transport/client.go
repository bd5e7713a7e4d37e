package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/c360/topiclens/config"
	"github.com/c360/topiclens/dispatch"
	"github.com/c360/topiclens/errors"
	"github.com/c360/topiclens/message"
	"github.com/c360/topiclens/resilience"
)

const (
	connectTimeout    = 10 * time.Second
	disconnectQuiesce = 250 // milliseconds granted to in-flight work
)

// Client owns the broker session and its reconnect loop. Safe for
// concurrent use.
type Client struct {
	cfg    config.BrokerConfig
	events chan<- dispatch.Event
	logger *slog.Logger

	mu            sync.Mutex
	mqtt          mqtt.Client
	health        *resilience.Health
	subscriptions map[string]byte
	reconnecting  bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient prepares a broker session. No network activity happens
// until Run.
func NewClient(cfg config.BrokerConfig, backoff *resilience.Backoff, events chan<- dispatch.Event, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:           cfg,
		events:        events,
		logger:        logger.With("component", "transport"),
		health:        resilience.NewHealth(backoff),
		subscriptions: make(map[string]byte),
	}
	for _, filter := range cfg.SubscribeTopics {
		c.subscriptions[filter] = cfg.QoS
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.URI()).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.EffectiveUsername()).
		SetPassword(cfg.Token).
		SetKeepAlive(cfg.KeepAlive).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost).
		SetDefaultPublishHandler(c.onMessage)
	c.mqtt = mqtt.NewClient(opts)
	return c
}

// Run connects and keeps the session alive until the context ends.
// Returns once the context is done or the attempt budget is exhausted.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.ctx = ctx
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	c.emit(dispatch.StateEvent{State: resilience.StateConnecting})
	if err := c.connectOnce(ctx); err != nil {
		c.health.RecordFailure(err)
		if err := c.reconnectLoop(ctx); err != nil {
			return err
		}
	}

	<-ctx.Done()
	c.Disconnect()
	return nil
}

// connectOnce performs a single connect attempt.
func (c *Client) connectOnce(ctx context.Context) error {
	token := c.mqtt.Connect()
	select {
	case <-ctx.Done():
		return errors.WrapTransient(ctx.Err(), "Client", "connectOnce", "connect canceled")
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return errors.WrapTransient(err, "Client", "connectOnce", "connect to broker")
	}
	return nil
}

// reconnectLoop retries with backoff until connected, the context
// ends, or the attempt budget runs out.
func (c *Client) reconnectLoop(ctx context.Context) error {
	c.mu.Lock()
	if c.reconnecting {
		c.mu.Unlock()
		return nil
	}
	c.reconnecting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	for {
		if !c.health.ShouldReconnect() {
			c.emit(dispatch.StateEvent{
				State:    resilience.StateDisconnected,
				Failures: c.health.FailureCount(),
				Err:      errors.ErrAttemptsExhausted,
			})
			return errors.WrapFatal(errors.ErrAttemptsExhausted, "Client", "reconnectLoop", "reconnect to broker")
		}

		delay, ok := c.health.NextDelay()
		if !ok {
			c.emit(dispatch.StateEvent{
				State:    resilience.StateDisconnected,
				Failures: c.health.FailureCount(),
				Err:      errors.ErrAttemptsExhausted,
			})
			return errors.WrapFatal(errors.ErrAttemptsExhausted, "Client", "reconnectLoop", "reconnect to broker")
		}

		c.emit(dispatch.StateEvent{
			State:    resilience.StateReconnecting,
			Failures: c.health.FailureCount(),
			Err:      c.health.LastError(),
		})
		c.logger.Warn("reconnecting",
			"attempt", c.health.FailureCount(),
			"delay", delay,
			"error", c.health.LastError())

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.WrapTransient(ctx.Err(), "Client", "reconnectLoop", "reconnect canceled")
		case <-timer.C:
		}

		if err := c.connectOnce(ctx); err != nil {
			c.health.RecordFailure(err)
			continue
		}
		return nil
	}
}

// onConnect restores subscriptions and reports the connected state.
// Runs on every successful connect, including reconnects.
func (c *Client) onConnect(_ mqtt.Client) {
	c.health.RecordSuccess()
	c.emit(dispatch.StateEvent{State: resilience.StateConnected})
	c.logger.Info("connected", "broker", c.cfg.URI(), "client_id", c.cfg.ClientID)

	c.mu.Lock()
	filters := make(map[string]byte, len(c.subscriptions))
	for filter, qos := range c.subscriptions {
		filters[filter] = qos
	}
	c.mu.Unlock()

	for filter, qos := range filters {
		if err := c.subscribe(filter, qos); err != nil {
			c.emit(dispatch.ErrorEvent{Component: "transport", Err: err})
		}
	}
}

// onConnectionLost kicks the backoff-driven reconnect loop.
func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.health.RecordFailure(errors.WrapTransient(err, "Client", "onConnectionLost", "connection lost"))
	c.logger.Warn("connection lost", "error", err)

	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	go func() {
		if err := c.reconnectLoop(ctx); err != nil {
			c.logger.Error("reconnect abandoned", "error", err)
		}
	}()
}

// onMessage converts a broker publish into a dispatch event.
func (c *Client) onMessage(_ mqtt.Client, m mqtt.Message) {
	c.emit(dispatch.MessageEvent{
		Message: message.New(m.Topic(), m.Payload(), m.Qos(), m.Retained()),
	})
}

func (c *Client) emit(ev dispatch.Event) {
	c.events <- ev
}

// Subscribe adds a topic filter, effective immediately when connected
// and restored after every reconnect.
func (c *Client) Subscribe(filter string, qos byte) error {
	c.mu.Lock()
	c.subscriptions[filter] = qos
	connected := c.mqtt.IsConnected()
	c.mu.Unlock()

	if !connected {
		return nil
	}
	return c.subscribe(filter, qos)
}

func (c *Client) subscribe(filter string, qos byte) error {
	token := c.mqtt.Subscribe(filter, qos, nil)
	if !token.WaitTimeout(connectTimeout) {
		return errors.WrapTransient(errors.ErrConnectionTimeout, "Client", "subscribe", "subscribe to "+filter)
	}
	if err := token.Error(); err != nil {
		return errors.WrapTransient(errors.ErrSubscribeFailed, "Client", "subscribe", "subscribe to "+filter+": "+err.Error())
	}
	c.logger.Info("subscribed", "filter", filter, "qos", qos)
	return nil
}

// Unsubscribe removes a topic filter.
func (c *Client) Unsubscribe(filter string) error {
	c.mu.Lock()
	delete(c.subscriptions, filter)
	connected := c.mqtt.IsConnected()
	c.mu.Unlock()

	if !connected {
		return nil
	}
	token := c.mqtt.Unsubscribe(filter)
	if !token.WaitTimeout(connectTimeout) {
		return errors.WrapTransient(errors.ErrConnectionTimeout, "Client", "Unsubscribe", "unsubscribe from "+filter)
	}
	return token.Error()
}

// Publish sends a message to the broker.
func (c *Client) Publish(topic string, qos byte, retain bool, payload []byte) error {
	if !c.mqtt.IsConnected() {
		return errors.WrapTransient(errors.ErrNoConnection, "Client", "Publish", "publish to "+topic)
	}
	token := c.mqtt.Publish(topic, qos, retain, payload)
	if !token.WaitTimeout(connectTimeout) {
		return errors.WrapTransient(errors.ErrConnectionTimeout, "Client", "Publish", "publish to "+topic)
	}
	if err := token.Error(); err != nil {
		return errors.WrapTransient(errors.ErrPublishFailed, "Client", "Publish", "publish to "+topic+": "+err.Error())
	}
	return nil
}

// IsConnected reports whether the session is up.
func (c *Client) IsConnected() bool {
	return c.mqtt.IsConnected()
}

// Health exposes connection health counters.
func (c *Client) Health() *resilience.Health {
	return c.health
}

// Disconnect closes the session and stops the reconnect loop.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	if c.mqtt.IsConnected() {
		c.mqtt.Disconnect(disconnectQuiesce)
	}
	c.logger.Info("disconnected")
}

package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/config"
)

// Client is a paho connection that remembers its subscriptions, announces
// the bridge on the status topic and shields paho from handler panics.
//
// All methods are safe for concurrent use. Subscriptions are restored after
// every reconnect.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig

	connected atomic.Bool

	subMu         sync.RWMutex
	subscriptions map[string]subscription

	// hookMu guards the callbacks and logger.
	hookMu       sync.RWMutex
	onConnect    func()
	onDisconnect func(err error)
	logger       Logger
}

// Logger is satisfied by logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

type subscription struct {
	qos     byte
	handler MessageHandler
}

// MessageHandler receives messages for a subscription. Paho calls it on its
// own goroutine; a returned error is logged and otherwise ignored.
type MessageHandler func(topic string, payload []byte) error

// Connect dials the broker described by cfg with a Last Will registered and
// blocks until the first connection succeeds or defaultConnectTimeout passes.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	c := &Client{
		cfg:           cfg,
		subscriptions: make(map[string]subscription),
	}

	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.Broker.ClientID)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.handleConnect() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.handleDisconnect(err) })
	c.client = pahomqtt.NewClient(opts)

	if err := await(c.client.Connect(), defaultConnectTimeout, ErrConnectionFailed); err != nil {
		return nil, err
	}
	// The connect handler runs asynchronously and may not have fired yet.
	c.setConnected(true)
	return c, nil
}

// await waits for token and wraps a timeout or failure in sentinel.
func await(token pahomqtt.Token, timeout time.Duration, sentinel error) error {
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: timeout after %v", sentinel, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return nil
}

func (c *Client) setConnected(v bool) {
	c.connected.Store(v)
}

func (c *Client) publishStatus(status, reason string) pahomqtt.Token {
	id := c.cfg.Broker.ClientID
	return c.client.Publish(Topics{}.Status(id), byte(c.cfg.QoS), true, statusPayload(status, id, reason))
}

func (c *Client) handleConnect() {
	c.setConnected(true)

	c.subMu.RLock()
	for topic, sub := range c.subscriptions {
		c.client.Subscribe(topic, sub.qos, c.wrapHandler(sub.handler))
	}
	c.subMu.RUnlock()

	c.publishStatus(StatusOnline, "")

	c.hookMu.RLock()
	fn := c.onConnect
	c.hookMu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) handleDisconnect(err error) {
	c.setConnected(false)

	c.hookMu.RLock()
	fn := c.onDisconnect
	c.hookMu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

// Close marks the bridge offline and disconnects. It is a no-op on a client
// that never connected.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	if c.IsConnected() {
		c.publishStatus(StatusOffline, "graceful_shutdown").WaitTimeout(defaultPublishTimeout)
	}
	c.client.Disconnect(defaultDisconnectQuiesce)
	c.setConnected(false)
	return nil
}

// HealthCheck reports ErrNotConnected while the connection is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected returns the last known connection state.
func (c *Client) IsConnected() bool {
	return c.connected.Load() && c.client != nil && c.client.IsConnected()
}

// SetOnConnect sets a callback run after the initial connect and every reconnect.
func (c *Client) SetOnConnect(fn func()) {
	c.hookMu.Lock()
	c.onConnect = fn
	c.hookMu.Unlock()
}

// SetOnDisconnect sets a callback run when the connection is lost.
func (c *Client) SetOnDisconnect(fn func(err error)) {
	c.hookMu.Lock()
	c.onDisconnect = fn
	c.hookMu.Unlock()
}

// SetLogger sets the logger for handler errors and panics.
func (c *Client) SetLogger(logger Logger) {
	c.hookMu.Lock()
	c.logger = logger
	c.hookMu.Unlock()
}

func (c *Client) log(fn func(Logger)) {
	c.hookMu.RLock()
	logger := c.logger
	c.hookMu.RUnlock()
	if logger != nil {
		fn(logger)
	}
}

// wrapHandler adapts handler to paho. Errors are logged as warnings and
// panics are recovered and logged as errors.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		topic := msg.Topic()
		defer func() {
			if r := recover(); r != nil {
				c.log(func(l Logger) { l.Error("mqtt handler panicked", "topic", topic, "panic", r) })
			}
		}()
		if err := handler(topic, msg.Payload()); err != nil {
			c.log(func(l Logger) { l.Warn("mqtt handler failed", "topic", topic, "error", err) })
		}
	}
}

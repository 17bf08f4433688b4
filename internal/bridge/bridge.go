package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/raspicam-bridge/internal/camera"
	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/mqtt"
)

// commandTimeout bounds the persistence work done for one command.
const commandTimeout = 5 * time.Second

// MQTTClient is the transport used by the bridge. *mqtt.Client satisfies it
// through a small adapter in main.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
	IsConnected() bool
}

// Logger is satisfied by logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures a Bridge.
type Options struct {
	Controller *camera.Controller
	MQTTClient MQTTClient

	// QoS for subscriptions and publications. Default 1.
	QoS byte

	// HealthInterval between health publications. Default 30s.
	HealthInterval time.Duration

	// Version is reported in health messages.
	Version string

	// Recorder receives health samples. Optional.
	Recorder HealthRecorder

	Logger Logger
}

// Bridge exposes a camera Controller over MQTT. It applies commands,
// answers read requests and keeps the retained state and health topics
// current.
type Bridge struct {
	ctrl           *camera.Controller
	mqtt           MQTTClient
	cameraID       string
	topics         mqtt.Topics
	qos            byte
	healthInterval time.Duration
	version        string
	recorder       HealthRecorder
	logger         Logger

	stats     stats
	startTime time.Time

	// stateMu orders state publications so the retained message is the latest.
	stateMu sync.Mutex

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New validates opts and returns a bridge. Call Start to begin.
func New(opts Options) (*Bridge, error) {
	if opts.Controller == nil {
		return nil, errors.New("bridge: controller is required")
	}
	if opts.MQTTClient == nil {
		return nil, errors.New("bridge: MQTT client is required")
	}

	qos := opts.QoS
	if qos == 0 {
		qos = 1
	}
	interval := opts.HealthInterval
	if interval <= 0 {
		interval = defaultHealthInterval
	}

	return &Bridge{
		ctrl:           opts.Controller,
		mqtt:           opts.MQTTClient,
		cameraID:       opts.Controller.CameraID(),
		qos:            qos,
		healthInterval: interval,
		version:        opts.Version,
		recorder:       opts.Recorder,
		logger:         opts.Logger,
		done:           make(chan struct{}),
	}, nil
}

// Start subscribes to the command and request topics, publishes the
// current state and starts health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	b.startTime = time.Now()
	b.publishHealth(HealthStarting, "bridge starting")

	commandTopic := b.topics.Command(b.cameraID)
	if err := b.mqtt.Subscribe(commandTopic, b.qos, b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	requestTopic := b.topics.AllRequests(b.cameraID)
	if err := b.mqtt.Subscribe(requestTopic, b.qos, b.handleRequest); err != nil {
		return fmt.Errorf("subscribe to requests: %w", err)
	}

	b.ctrl.OnChange(func(camera.Change) {
		select {
		case <-b.done:
		default:
			b.PublishState()
		}
	})

	b.PublishState()
	b.publishHealth(b.currentHealth())

	b.wg.Add(1)
	go b.healthLoop(ctx)

	b.logInfo("bridge started", "camera_id", b.cameraID, "commands", commandTopic, "requests", requestTopic)
	return nil
}

// Stop ends health reporting and publishes a final "stopping" health
// message. Safe to call more than once.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.wg.Wait()
		b.publishHealth(HealthStopping, "")
		b.logInfo("bridge stopped")
	})
}

// Statistics returns the message counters.
func (b *Bridge) Statistics() BridgeStatistics {
	return b.stats.snapshot()
}

// PublishState publishes the full property map as a retained message.
func (b *Bridge) PublishState() {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()

	msg := StateMessage{
		CameraID:   b.cameraID,
		Timestamp:  time.Now().UTC(),
		Properties: b.ctrl.GetAll(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("failed to marshal state", err)
		return
	}
	if err := b.mqtt.Publish(b.topics.State(b.cameraID), payload, b.qos, true); err != nil {
		b.logError("failed to publish state", err)
	}
}

func (b *Bridge) handleCommand(_ string, payload []byte) {
	b.stats.commandsReceived.Add(1)

	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.stats.commandsFailed.Add(1)
		b.publishAck(commandRejected(b.cameraID, "", fmt.Sprintf("malformed command: %v", err)))
		return
	}
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	if len(cmd.Properties) == 0 {
		b.stats.commandsFailed.Add(1)
		b.publishAck(commandRejected(b.cameraID, cmd.ID, "command has no properties"))
		return
	}
	source := cmd.Source
	if source == "" {
		source = camera.SourceMQTT
	}

	b.logDebug("received command", "command_id", cmd.ID, "properties", len(cmd.Properties))

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	failed := b.ctrl.SetMany(ctx, cmd.Properties, source)

	applied := make([]string, 0, len(cmd.Properties))
	for _, name := range camera.Names() {
		if _, ok := cmd.Properties[name]; ok && failed[name] == nil {
			applied = append(applied, name)
		}
	}

	ack := newAck(b.cameraID, cmd, applied, failed)
	if ack.Status != AckAccepted {
		b.stats.commandsFailed.Add(1)
	}
	b.publishAck(ack)
}

func (b *Bridge) publishAck(ack AckMessage) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("failed to marshal ack", err)
		return
	}
	if err := b.mqtt.Publish(b.topics.Ack(b.cameraID), payload, b.qos, false); err != nil {
		b.logError("failed to publish ack", err)
	}
}

func (b *Bridge) handleRequest(topic string, payload []byte) {
	topicID := topic[strings.LastIndexByte(topic, '/')+1:]

	var req RequestMessage
	if err := json.Unmarshal(payload, &req); err != nil {
		b.publishResponse(topicID, requestFailed(topicID, fmt.Sprintf("malformed request: %v", err)))
		return
	}
	if req.RequestID == "" {
		req.RequestID = topicID
	}

	var resp ResponseMessage
	switch req.Action {
	case ActionGet:
		resp = b.handleGet(req)
	case ActionGetAll:
		resp = ResponseMessage{
			RequestID: req.RequestID,
			Success:   true,
			Data:      map[string]any{"properties": b.ctrl.GetAll()},
		}
	case ActionListModes:
		resp = ResponseMessage{
			RequestID: req.RequestID,
			Success:   true,
			Data:      map[string]any{"modes": camera.ModeNames()},
		}
	default:
		resp = requestFailed(req.RequestID, fmt.Sprintf("unknown action: %q", req.Action))
	}
	resp.Timestamp = time.Now().UTC()

	b.stats.requestsServed.Add(1)
	b.publishResponse(topicID, resp)
}

func (b *Bridge) handleGet(req RequestMessage) ResponseMessage {
	if len(req.Properties) == 0 {
		return requestFailed(req.RequestID, "properties is required for get")
	}

	values := make(map[string]string, len(req.Properties))
	var unknown []string
	for _, name := range req.Properties {
		v, err := b.ctrl.Get(name)
		if err != nil {
			unknown = append(unknown, name)
			continue
		}
		values[name] = v
	}

	data := map[string]any{"properties": values}
	if len(unknown) > 0 {
		data["unknown"] = unknown
	}
	return ResponseMessage{RequestID: req.RequestID, Success: true, Data: data}
}

// publishResponse answers on the topic matching the request topic, so
// callers can subscribe before sending.
func (b *Bridge) publishResponse(topicID string, resp ResponseMessage) {
	payload, err := json.Marshal(resp)
	if err != nil {
		b.logError("failed to marshal response", err)
		return
	}
	if err := b.mqtt.Publish(b.topics.Response(b.cameraID, topicID), payload, b.qos, false); err != nil {
		b.logError("failed to publish response", err)
	}
}

func (b *Bridge) logInfo(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}

func (b *Bridge) logDebug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func (b *Bridge) logError(msg string, err error) {
	if b.logger != nil {
		b.logger.Error(msg, "error", err)
	}
}

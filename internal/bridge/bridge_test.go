package bridge

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/raspicam-bridge/internal/camera"
)

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

// MockMQTTClient implements MQTTClient for testing.
type MockMQTTClient struct {
	mu        sync.Mutex
	published []mockPublish
	handlers  map[string]func(topic string, payload []byte)
	connected bool
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{
		connected: true,
		handlers:  make(map[string]func(topic string, payload []byte)),
	}
}

func (m *MockMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, mockPublish{Topic: topic, Payload: payload, QoS: qos, Retained: retained})
	return nil
}

func (m *MockMQTTClient) Subscribe(topic string, _ byte, handler func(topic string, payload []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *MockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// SimulateMessage delivers payload to the handler registered for pattern.
func (m *MockMQTTClient) SimulateMessage(pattern, topic string, payload []byte) {
	m.mu.Lock()
	handler := m.handlers[pattern]
	m.mu.Unlock()
	if handler != nil {
		handler(topic, payload)
	}
}

// PublishedTo returns the messages published on topic, oldest first.
func (m *MockMQTTClient) PublishedTo(topic string) []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mockPublish
	for _, p := range m.published {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

func (m *MockMQTTClient) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = nil
}

type fakeHealthRecorder struct {
	mu      sync.Mutex
	samples int
}

func (f *fakeHealthRecorder) WriteBridgeHealth(string, time.Duration, int64, int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples++
}

const testCamera = "porch"

func createTestBridge(t *testing.T) (*Bridge, *MockMQTTClient) {
	t.Helper()

	ctrl, err := camera.NewController(camera.ControllerOptions{
		CameraID: testCamera,
		Adapter:  camera.NewPropertyAdapter(camera.NewSimulatedDevice()),
	})
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	client := NewMockMQTTClient()
	b, err := New(Options{
		Controller:     ctrl,
		MQTTClient:     client,
		HealthInterval: time.Hour,
		Version:        "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(b.Stop)
	return b, client
}

func lastAck(t *testing.T, client *MockMQTTClient) AckMessage {
	t.Helper()
	msgs := client.PublishedTo("raspicam/ack/" + testCamera)
	if len(msgs) == 0 {
		t.Fatal("no ack published")
	}
	var ack AckMessage
	if err := json.Unmarshal(msgs[len(msgs)-1].Payload, &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	return ack
}

func lastResponse(t *testing.T, client *MockMQTTClient, requestID string) ResponseMessage {
	t.Helper()
	msgs := client.PublishedTo("raspicam/response/" + testCamera + "/" + requestID)
	if len(msgs) == 0 {
		t.Fatalf("no response published for %s", requestID)
	}
	var resp ResponseMessage
	if err := json.Unmarshal(msgs[len(msgs)-1].Payload, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return resp
}

func sendCommand(client *MockMQTTClient, payload string) {
	client.SimulateMessage("raspicam/command/"+testCamera, "raspicam/command/"+testCamera, []byte(payload))
}

func sendRequest(client *MockMQTTClient, requestID, payload string) {
	client.SimulateMessage("raspicam/request/"+testCamera+"/+", "raspicam/request/"+testCamera+"/"+requestID, []byte(payload))
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Options{MQTTClient: NewMockMQTTClient()}); err == nil {
		t.Error("New() without controller should fail")
	}

	ctrl, _ := camera.NewController(camera.ControllerOptions{
		CameraID: testCamera,
		Adapter:  camera.NewPropertyAdapter(camera.NewSimulatedDevice()),
	})
	if _, err := New(Options{Controller: ctrl}); err == nil {
		t.Error("New() without MQTT client should fail")
	}
}

func TestStartPublishesStateAndHealth(t *testing.T) {
	_, client := createTestBridge(t)

	states := client.PublishedTo("raspicam/state/" + testCamera)
	if len(states) != 1 {
		t.Fatalf("state publications = %d, want 1", len(states))
	}
	if !states[0].Retained {
		t.Error("state should be retained")
	}
	var state StateMessage
	if err := json.Unmarshal(states[0].Payload, &state); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if len(state.Properties) != len(camera.Names()) {
		t.Errorf("state has %d properties, want %d", len(state.Properties), len(camera.Names()))
	}
	if state.Properties["brightness"] != "50" {
		t.Errorf("brightness = %q, want 50", state.Properties["brightness"])
	}

	health := client.PublishedTo("raspicam/health/" + testCamera)
	if len(health) != 2 {
		t.Fatalf("health publications = %d, want starting + healthy", len(health))
	}
	var msg HealthMessage
	if err := json.Unmarshal(health[1].Payload, &msg); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if msg.Status != HealthHealthy || msg.Version != "test" {
		t.Errorf("health = %+v", msg)
	}
}

func TestCommandAccepted(t *testing.T) {
	b, client := createTestBridge(t)
	client.Clear()

	sendCommand(client, `{"id":"cmd-1","properties":{"hflip":"1","awb":"Sunlight"}}`)

	ack := lastAck(t, client)
	if ack.CommandID != "cmd-1" || ack.Status != AckAccepted {
		t.Errorf("ack = %+v", ack)
	}
	if strings.Join(ack.Applied, ",") != "hflip,awb" {
		t.Errorf("Applied = %v, want [hflip awb]", ack.Applied)
	}

	got, _ := b.ctrl.Get("awb")
	if got != "Sunlight" {
		t.Errorf("awb = %q, want Sunlight", got)
	}

	// One retained state per changed property.
	if n := len(client.PublishedTo("raspicam/state/" + testCamera)); n != 2 {
		t.Errorf("state publications = %d, want 2", n)
	}
}

func TestCommandPartialAndFailed(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus AckStatus
		wantCodes  map[string]string
	}{
		{
			name:       "partial",
			payload:    `{"id":"c","properties":{"brightness":"70","zoom":"2"}}`,
			wantStatus: AckPartial,
			wantCodes:  map[string]string{"zoom": ErrCodeUnknownProperty},
		},
		{
			name:       "invalid value",
			payload:    `{"id":"c","properties":{"awb":"purple"}}`,
			wantStatus: AckFailed,
			wantCodes:  map[string]string{"awb": ErrCodeInvalidValue},
		},
		{
			name:       "device rejected",
			payload:    `{"id":"c","properties":{"brightness":"150"}}`,
			wantStatus: AckFailed,
			wantCodes:  map[string]string{"brightness": ErrCodeDeviceRejected},
		},
		{
			name:       "malformed",
			payload:    `{not json`,
			wantStatus: AckFailed,
			wantCodes:  map[string]string{"": ErrCodeInvalidCommand},
		},
		{
			name:       "empty",
			payload:    `{"id":"c","properties":{}}`,
			wantStatus: AckFailed,
			wantCodes:  map[string]string{"": ErrCodeInvalidCommand},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := createTestBridge(t)
			sendCommand(client, tt.payload)

			ack := lastAck(t, client)
			if ack.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", ack.Status, tt.wantStatus)
			}
			if len(ack.Errors) != len(tt.wantCodes) {
				t.Errorf("Errors = %v, want %v", ack.Errors, tt.wantCodes)
			}
			for name, code := range tt.wantCodes {
				if ack.Errors[name].Code != code {
					t.Errorf("Errors[%q].Code = %q, want %q", name, ack.Errors[name].Code, code)
				}
			}
		})
	}
}

func TestCommandWithoutIDGetsOne(t *testing.T) {
	_, client := createTestBridge(t)
	sendCommand(client, `{"properties":{"vflip":"true"}}`)

	if ack := lastAck(t, client); ack.CommandID == "" {
		t.Error("ack should carry a generated command ID")
	}
}

func TestCommandStatistics(t *testing.T) {
	b, client := createTestBridge(t)
	sendCommand(client, `{"properties":{"contrast":"10"}}`)
	sendCommand(client, `{"properties":{"contrast":"x"}}`)
	sendRequest(client, "r1", `{"action":"get_all"}`)

	got := b.Statistics()
	want := BridgeStatistics{CommandsReceived: 2, CommandsFailed: 1, RequestsServed: 1}
	if got != want {
		t.Errorf("Statistics() = %+v, want %+v", got, want)
	}
}

func TestRequests(t *testing.T) {
	_, client := createTestBridge(t)

	t.Run("get", func(t *testing.T) {
		sendRequest(client, "r-get", `{"action":"get","properties":["brightness","zoom"]}`)
		resp := lastResponse(t, client, "r-get")
		if !resp.Success || resp.RequestID != "r-get" {
			t.Fatalf("resp = %+v", resp)
		}
		props := resp.Data["properties"].(map[string]any)
		if props["brightness"] != "50" {
			t.Errorf("brightness = %v", props["brightness"])
		}
		unknown := resp.Data["unknown"].([]any)
		if len(unknown) != 1 || unknown[0] != "zoom" {
			t.Errorf("unknown = %v", unknown)
		}
	})

	t.Run("get without properties", func(t *testing.T) {
		sendRequest(client, "r-empty", `{"action":"get"}`)
		resp := lastResponse(t, client, "r-empty")
		if resp.Success || resp.Error == nil || resp.Error.Code != ErrCodeInvalidRequest {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("get_all", func(t *testing.T) {
		sendRequest(client, "r-all", `{"action":"get_all"}`)
		resp := lastResponse(t, client, "r-all")
		props := resp.Data["properties"].(map[string]any)
		if len(props) != len(camera.Names()) {
			t.Errorf("got %d properties", len(props))
		}
	})

	t.Run("list_modes", func(t *testing.T) {
		sendRequest(client, "r-modes", `{"action":"list_modes"}`)
		resp := lastResponse(t, client, "r-modes")
		modes := resp.Data["modes"].(map[string]any)
		if _, ok := modes["awb"]; !ok {
			t.Errorf("modes = %v, want awb entry", modes)
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		sendRequest(client, "r-bad", `{"action":"reboot"}`)
		if resp := lastResponse(t, client, "r-bad"); resp.Success {
			t.Error("unknown action should fail")
		}
	})

	t.Run("malformed", func(t *testing.T) {
		sendRequest(client, "r-junk", `nope`)
		if resp := lastResponse(t, client, "r-junk"); resp.Success {
			t.Error("malformed request should fail")
		}
	})
}

func TestStateFollowsControllerChanges(t *testing.T) {
	b, client := createTestBridge(t)
	client.Clear()

	if err := b.ctrl.Set(context.Background(), "effect", "Sketch", camera.SourceAPI); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	states := client.PublishedTo("raspicam/state/" + testCamera)
	if len(states) != 1 {
		t.Fatalf("state publications = %d, want 1", len(states))
	}
	var state StateMessage
	json.Unmarshal(states[0].Payload, &state) //nolint:errcheck // checked via field
	if state.Properties["effect"] != "Sketch" {
		t.Errorf("effect = %q, want Sketch", state.Properties["effect"])
	}
}

func TestStopPublishesStopping(t *testing.T) {
	b, client := createTestBridge(t)
	b.Stop()
	b.Stop()

	health := client.PublishedTo("raspicam/health/" + testCamera)
	var last HealthMessage
	if err := json.Unmarshal(health[len(health)-1].Payload, &last); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if last.Status != HealthStopping {
		t.Errorf("final status = %q, want stopping", last.Status)
	}

	client.Clear()
	b.ctrl.Set(context.Background(), "sharpness", "5", camera.SourceAPI) //nolint:errcheck // not under test
	if n := len(client.PublishedTo("raspicam/state/" + testCamera)); n != 0 {
		t.Errorf("state published %d times after Stop", n)
	}
}

func TestHealthDegradedAndRecorded(t *testing.T) {
	ctrl, _ := camera.NewController(camera.ControllerOptions{
		CameraID: testCamera,
		Adapter:  camera.NewPropertyAdapter(camera.NewSimulatedDevice()),
	})
	client := NewMockMQTTClient()
	recorder := &fakeHealthRecorder{}
	b, err := New(Options{Controller: ctrl, MQTTClient: client, Recorder: recorder})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	client.connected = false
	status, reason := b.currentHealth()
	if status != HealthDegraded || reason == "" {
		t.Errorf("currentHealth() = %q, %q", status, reason)
	}

	b.publishHealth(status, reason)
	if recorder.samples != 1 {
		t.Errorf("recorded samples = %d, want 1", recorder.samples)
	}
}

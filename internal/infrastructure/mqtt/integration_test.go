//go:build integration

package mqtt

import (
	"sync/atomic"
	"testing"
	"time"
)

// These tests require a broker at 127.0.0.1:1883.
//
//	go test -tags=integration ./internal/infrastructure/mqtt/...

func connectOrSkip(t *testing.T, clientID string) *Client {
	t.Helper()
	cfg := testConfig()
	cfg.Broker.ClientID = clientID

	client, err := Connect(cfg)
	if err != nil {
		t.Skipf("no MQTT broker available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestIntegration_PublishSubscribeRoundtrip(t *testing.T) {
	client := connectOrSkip(t, "raspicam-int-roundtrip")

	received := make(chan []byte, 1)
	topic := Topics{}.Command("int-cam")
	if err := client.Subscribe(topic, 1, func(_ string, payload []byte) error {
		received <- payload
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !client.HasSubscription(topic) {
		t.Error("subscription not tracked")
	}

	if err := client.Publish(topic, []byte(`{"properties":{"hflip":"1"}}`), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if string(got) != `{"properties":{"hflip":"1"}}` {
			t.Errorf("payload = %s", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message not received")
	}
}

func TestIntegration_WildcardRequests(t *testing.T) {
	client := connectOrSkip(t, "raspicam-int-wildcard")

	var count atomic.Int32
	topics := Topics{}
	if err := client.Subscribe(topics.AllRequests("int-cam"), 1, func(string, []byte) error {
		count.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	for _, id := range []string{"a", "b", "c"} {
		if err := client.Publish(topics.Request("int-cam", id), []byte(`{}`), 1, false); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for count.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if count.Load() != 3 {
		t.Errorf("received %d messages, want 3", count.Load())
	}
}

func TestIntegration_Unsubscribe(t *testing.T) {
	client := connectOrSkip(t, "raspicam-int-unsub")

	topic := Topics{}.State("int-cam")
	if err := client.Subscribe(topic, 0, func(string, []byte) error { return nil }); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := client.Unsubscribe(topic); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
}

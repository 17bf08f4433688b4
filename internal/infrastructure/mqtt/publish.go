package mqtt

import "fmt"

// maxPayloadSize caps outgoing payloads at 1 MiB.
const maxPayloadSize = 1 << 20

// checkTopic validates the arguments shared by Publish and Subscribe.
func checkTopic(topic string, qos byte) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	}
	return nil
}

// Publish sends payload to topic and waits for the broker to accept it.
// State topics are published retained so late subscribers see the current
// property values.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := checkTopic(topic, qos); err != nil {
		return err
	}
	if n := len(payload); n > maxPayloadSize {
		return fmt.Errorf("%w: %d byte payload exceeds %d", ErrPublishFailed, n, maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return await(c.client.Publish(topic, qos, retained, payload), defaultPublishTimeout, ErrPublishFailed)
}

// PublishRetained publishes a retained message at the configured QoS.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}

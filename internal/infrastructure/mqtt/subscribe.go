package mqtt

import "fmt"

// Subscribe registers handler for topic, which may contain + and #
// wildcards. The subscription is remembered and restored after reconnects;
// a subscription the broker rejects is forgotten.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if err := checkTopic(topic, qos); err != nil {
		return err
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.track(topic, &subscription{qos: qos, handler: handler})
	err := await(c.client.Subscribe(topic, qos, c.wrapHandler(handler)), defaultPublishTimeout, ErrSubscribeFailed)
	if err != nil {
		c.track(topic, nil)
	}
	return err
}

// Unsubscribe removes a subscription. Messages already in flight may still
// be delivered.
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	c.track(topic, nil)
	return await(c.client.Unsubscribe(topic), defaultPublishTimeout, ErrUnsubscribeFailed)
}

// track records sub for topic, or forgets topic when sub is nil.
func (c *Client) track(topic string, sub *subscription) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if sub == nil {
		delete(c.subscriptions, topic)
		return
	}
	c.subscriptions[topic] = *sub
}

// SubscriptionCount returns the number of remembered subscriptions.
func (c *Client) SubscriptionCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subscriptions)
}

// HasSubscription reports whether topic, compared literally, is subscribed.
func (c *Client) HasSubscription(topic string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	_, ok := c.subscriptions[topic]
	return ok
}

// Package mqtt connects the camera bridge to an MQTT broker.
//
// It wraps eclipse/paho.mqtt.golang with:
//   - automatic reconnection and subscription restore
//   - a retained online/offline status per client, with the offline
//     message registered as Last Will
//   - panic recovery around message handlers
//   - Topics, the builder for every raspicam/... topic
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.Command("porch"), 1,
//	    func(topic string, payload []byte) error {
//	        return handle(payload)
//	    })
package mqtt

package mqtt

import "fmt"

// TopicPrefix is the root of every topic used by the camera bridge.
const TopicPrefix = "raspicam"

// Topics builds the bridge's MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Command("porch") // raspicam/command/porch
type Topics struct{}

// Command is where property writes for a camera arrive.
func (Topics) Command(cameraID string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, cameraID)
}

// Ack carries the outcome of each command.
func (Topics) Ack(cameraID string) string {
	return fmt.Sprintf("%s/ack/%s", TopicPrefix, cameraID)
}

// Request is where read requests arrive. Each request names its own ID in
// the last level so the response topic can mirror it.
func (Topics) Request(cameraID, requestID string) string {
	return fmt.Sprintf("%s/request/%s/%s", TopicPrefix, cameraID, requestID)
}

// Response carries the answer to the request with the same ID.
func (Topics) Response(cameraID, requestID string) string {
	return fmt.Sprintf("%s/response/%s/%s", TopicPrefix, cameraID, requestID)
}

// State carries the retained full property map of a camera.
func (Topics) State(cameraID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, cameraID)
}

// Health carries the retained health report of a camera bridge.
func (Topics) Health(cameraID string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, cameraID)
}

// Status carries the retained online/offline status of an MQTT client.
// It is also the Last Will topic.
func (Topics) Status(clientID string) string {
	return fmt.Sprintf("%s/status/%s", TopicPrefix, clientID)
}

// AllRequests matches every request for a camera.
func (Topics) AllRequests(cameraID string) string {
	return fmt.Sprintf("%s/request/%s/+", TopicPrefix, cameraID)
}

// AllStates matches the state topics of every camera.
func (Topics) AllStates() string {
	return fmt.Sprintf("%s/state/+", TopicPrefix)
}

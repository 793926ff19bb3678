package slack

import "encoding/json"

// Socket Mode envelope types.
const (
	envelopeHello      = "hello"
	envelopeDisconnect = "disconnect"
	envelopeEventsAPI  = "events_api"
)

// Envelope is the outer frame of every Socket Mode message.
type Envelope struct {
	Type       string          `json:"type"`
	EnvelopeID string          `json:"envelope_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}

// Ack acknowledges receipt of an envelope.
type Ack struct {
	EnvelopeID string `json:"envelope_id"`
}

// eventsAPIPayload wraps the inner Events API callback.
type eventsAPIPayload struct {
	Event Event `json:"event"`
}

// Event is the subset of Events API fields the bot reacts to.
type Event struct {
	Type        string `json:"type"`
	User        string `json:"user"`
	Text        string `json:"text"`
	Channel     string `json:"channel"`
	ChannelType string `json:"channel_type"`
	TS          string `json:"ts"`
	ThreadTS    string `json:"thread_ts"`
	BotID       string `json:"bot_id"`
	Subtype     string `json:"subtype"`
}

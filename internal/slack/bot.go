package slack

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nanairo/memobot/internal/logging"
)

// reconnectDelay is the pause before re-opening a dropped connection.
const reconnectDelay = 3 * time.Second

// errorReply is posted when the message handler fails.
const errorReply = "Sorry, something went wrong processing your message."

// greeting is posted when the bot is mentioned with no message text.
const greeting = "Hi! Mention me with a message and I'll answer. I remember our past conversations."

// mentionRe matches Slack user mentions like <@U12345>.
var mentionRe = regexp.MustCompile(`<@[A-Z0-9]+>`)

// MessageHandler produces a reply for an inbound user message.
type MessageHandler func(ctx context.Context, text string) (string, error)

// Bot runs the Socket Mode event loop: it opens a WebSocket via
// apps.connections.open, acks every envelope, and routes app mentions and
// direct messages to the handler. The connection is re-opened after
// disconnects until the context is cancelled.
type Bot struct {
	api     *API
	handler MessageHandler
	log     *logging.Logger
	dialer  *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewBot creates a Socket Mode bot.
func NewBot(api *API, handler MessageHandler, log *logging.Logger) *Bot {
	return &Bot{
		api:     api,
		handler: handler,
		log:     log.Sub("slack.bot"),
		dialer:  websocket.DefaultDialer,
	}
}

// Run connects and processes events until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	for {
		if err := b.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.log.Warn().Err(err).Msg("connection lost, reconnecting")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// runOnce opens one Socket Mode connection and reads it until it drops or
// Slack asks for a reconnect.
func (b *Bot) runOnce(ctx context.Context) error {
	wsURL, err := b.api.ConnectionsOpen(ctx)
	if err != nil {
		return err
	}

	conn, _, err := b.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	b.setConn(conn)
	defer b.closeConn()

	// Unblock ReadMessage when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			b.closeConn()
		case <-done:
		}
	}()

	b.log.Info().Msg("socket mode connected")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			b.log.Warn().Err(err).Msg("unparseable envelope")
			continue
		}

		switch env.Type {
		case envelopeHello:
			b.log.Debug().Msg("hello received")

		case envelopeDisconnect:
			b.log.Info().Str("reason", env.Reason).Msg("disconnect requested")
			return nil

		case envelopeEventsAPI:
			b.ackEnvelope(env.EnvelopeID)
			b.handleEventsAPI(ctx, env.Payload)

		default:
			b.ackEnvelope(env.EnvelopeID)
			b.log.Debug().Str("type", env.Type).Msg("ignoring envelope")
		}
	}
}

func (b *Bot) handleEventsAPI(ctx context.Context, payload json.RawMessage) {
	var p eventsAPIPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		b.log.Warn().Err(err).Msg("unparseable events_api payload")
		return
	}

	ev := p.Event
	switch {
	case ev.Type == "app_mention":
		text := StripMentions(ev.Text)
		if text == "" {
			b.reply(ctx, ev, greeting)
			return
		}
		b.respond(ctx, ev, text)

	case ev.Type == "message" && ev.ChannelType == "im" && ev.BotID == "" && ev.Subtype == "" && ev.ThreadTS == "":
		b.respond(ctx, ev, strings.TrimSpace(ev.Text))

	default:
		b.log.Debug().Str("event", ev.Type).Msg("ignoring event")
	}
}

// respond runs the handler and posts the reply, or a generic error message.
func (b *Bot) respond(ctx context.Context, ev Event, text string) {
	b.log.Info().Str("channel", ev.Channel).Str("user", ev.User).Msg("handling message")

	reply, err := b.handler(ctx, text)
	if err != nil {
		b.log.Error().Err(err).Msg("message handler failed")
		b.reply(ctx, ev, errorReply)
		return
	}
	b.reply(ctx, ev, reply)
}

// reply posts into the event's thread when there is one, otherwise starts a
// thread on the triggering message in channels and replies inline in DMs.
func (b *Bot) reply(ctx context.Context, ev Event, text string) {
	threadTS := ev.ThreadTS
	if threadTS == "" && ev.ChannelType != "im" {
		threadTS = ev.TS
	}
	if err := b.api.PostMessage(ctx, ev.Channel, threadTS, text); err != nil {
		b.log.Error().Err(err).Str("channel", ev.Channel).Msg("posting reply failed")
	}
}

func (b *Bot) ackEnvelope(id string) {
	if id == "" {
		return
	}
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return
	}
	if err := conn.WriteJSON(Ack{EnvelopeID: id}); err != nil {
		b.log.Warn().Err(err).Str("envelopeId", id).Msg("ack failed")
	}
}

func (b *Bot) setConn(conn *websocket.Conn) {
	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()
}

func (b *Bot) closeConn() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
}

// StripMentions removes Slack user mention markup and trims the remainder.
func StripMentions(text string) string {
	return strings.TrimSpace(mentionRe.ReplaceAllString(text, ""))
}

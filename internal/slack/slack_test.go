package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanairo/memobot/internal/logging"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

// --- StripMentions tests ---

func TestStripMentions(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"<@U12345> hello", "hello"},
		{"hello <@U12345>", "hello"},
		{"<@U12345> <@U67890> both", "both"},
		{"no mentions here", "no mentions here"},
		{"<@U12345>", ""},
		{"  <@U12345>   spaced  ", "spaced"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StripMentions(tc.in), "input %q", tc.in)
	}
}

// --- API tests ---

func testAPI(t *testing.T, handler http.Handler) *API {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api := NewAPI("xoxb-bot", "xapp-app", silentLog())
	api.SetBaseURL(srv.URL)
	return api
}

func TestConnectionsOpen(t *testing.T) {
	api := testAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apps.connections.open", r.URL.Path)
		// Socket Mode connections authenticate with the app-level token.
		assert.Equal(t, "Bearer xapp-app", r.Header.Get("Authorization"))
		w.Write([]byte(`{"ok": true, "url": "wss://example.com/socket"}`))
	}))

	url, err := api.ConnectionsOpen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "wss://example.com/socket", url)
}

func TestConnectionsOpen_SlackError(t *testing.T) {
	api := testAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": false, "error": "invalid_auth"}`))
	}))

	_, err := api.ConnectionsOpen(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_auth")
}

func TestPostMessage(t *testing.T) {
	var body map[string]string
	api := testAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		assert.Equal(t, "Bearer xoxb-bot", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"ok": true}`))
	}))

	err := api.PostMessage(context.Background(), "C123", "111.222", "hello")
	require.NoError(t, err)
	assert.Equal(t, "C123", body["channel"])
	assert.Equal(t, "111.222", body["thread_ts"])
	assert.Equal(t, "hello", body["text"])
}

func TestPostMessage_NoThread(t *testing.T) {
	var body map[string]string
	api := testAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"ok": true}`))
	}))

	require.NoError(t, api.PostMessage(context.Background(), "D123", "", "hi"))
	_, hasThread := body["thread_ts"]
	assert.False(t, hasThread)
}

// --- Bot tests ---

// socketFixture runs one fake Socket Mode session: it serves the WebSocket,
// delivers the given events, collects acks, and records chat.postMessage
// bodies.
type socketFixture struct {
	api    *API
	acks   chan string
	posted chan map[string]string
}

func newSocketFixture(t *testing.T, events []Event) *socketFixture {
	t.Helper()
	f := &socketFixture{
		acks:   make(chan string, len(events)),
		posted: make(chan map[string]string, len(events)),
	}

	upgrader := websocket.Upgrader{}
	wsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(Envelope{Type: envelopeHello}))

		for i, ev := range events {
			payload, err := json.Marshal(eventsAPIPayload{Event: ev})
			require.NoError(t, err)
			require.NoError(t, conn.WriteJSON(Envelope{
				Type:       envelopeEventsAPI,
				EnvelopeID: fmt.Sprintf("env-%d", i),
				Payload:    payload,
			}))

			var ack Ack
			require.NoError(t, conn.ReadJSON(&ack))
			f.acks <- ack.EnvelopeID
		}

		conn.WriteJSON(Envelope{Type: envelopeDisconnect, Reason: "test_over"})
	}))
	t.Cleanup(wsSrv.Close)

	wsURL := "ws" + strings.TrimPrefix(wsSrv.URL, "http")

	mux := http.NewServeMux()
	mux.HandleFunc("/apps.connections.open", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"ok": true, "url": %q}`, wsURL)
	})
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.posted <- body
		w.Write([]byte(`{"ok": true}`))
	})
	apiSrv := httptest.NewServer(mux)
	t.Cleanup(apiSrv.Close)

	f.api = NewAPI("xoxb-bot", "xapp-app", silentLog())
	f.api.SetBaseURL(apiSrv.URL)
	return f
}

func TestBot_AppMention(t *testing.T) {
	f := newSocketFixture(t, []Event{{
		Type:    "app_mention",
		User:    "U777",
		Text:    "<@UBOT> what do you remember?",
		Channel: "C123",
		TS:      "111.222",
	}})

	bot := NewBot(f.api, func(ctx context.Context, text string) (string, error) {
		assert.Equal(t, "what do you remember?", text)
		return "Quite a lot.", nil
	}, silentLog())

	require.NoError(t, bot.runOnce(context.Background()))

	assert.Equal(t, "env-0", <-f.acks)
	body := <-f.posted
	assert.Equal(t, "C123", body["channel"])
	assert.Equal(t, "111.222", body["thread_ts"])
	assert.Equal(t, "Quite a lot.", body["text"])
}

func TestBot_AppMentionInThread(t *testing.T) {
	f := newSocketFixture(t, []Event{{
		Type:     "app_mention",
		Text:     "<@UBOT> and then?",
		Channel:  "C123",
		TS:       "333.444",
		ThreadTS: "111.222",
	}})

	bot := NewBot(f.api, func(ctx context.Context, text string) (string, error) {
		return "reply", nil
	}, silentLog())

	require.NoError(t, bot.runOnce(context.Background()))

	body := <-f.posted
	// Replies stay in the existing thread.
	assert.Equal(t, "111.222", body["thread_ts"])
}

func TestBot_EmptyMentionGetsGreeting(t *testing.T) {
	f := newSocketFixture(t, []Event{{
		Type:    "app_mention",
		Text:    "<@UBOT>",
		Channel: "C123",
		TS:      "111.222",
	}})

	handlerCalled := false
	bot := NewBot(f.api, func(ctx context.Context, text string) (string, error) {
		handlerCalled = true
		return "", nil
	}, silentLog())

	require.NoError(t, bot.runOnce(context.Background()))

	body := <-f.posted
	assert.Equal(t, greeting, body["text"])
	assert.False(t, handlerCalled)
}

func TestBot_DirectMessage(t *testing.T) {
	f := newSocketFixture(t, []Event{{
		Type:        "message",
		ChannelType: "im",
		User:        "U777",
		Text:        "hello",
		Channel:     "D123",
		TS:          "111.222",
	}})

	bot := NewBot(f.api, func(ctx context.Context, text string) (string, error) {
		assert.Equal(t, "hello", text)
		return "hi!", nil
	}, silentLog())

	require.NoError(t, bot.runOnce(context.Background()))

	body := <-f.posted
	assert.Equal(t, "D123", body["channel"])
	// DM replies are posted inline, not threaded.
	_, hasThread := body["thread_ts"]
	assert.False(t, hasThread)
}

func TestBot_IgnoresBotAndSubtypeMessages(t *testing.T) {
	f := newSocketFixture(t, []Event{
		{Type: "message", ChannelType: "im", BotID: "B999", Text: "from a bot", Channel: "D1", TS: "1.0"},
		{Type: "message", ChannelType: "im", Subtype: "message_changed", Text: "edited", Channel: "D1", TS: "2.0"},
		{Type: "message", ChannelType: "channel", Text: "channel chatter", Channel: "C1", TS: "3.0"},
	})

	bot := NewBot(f.api, func(ctx context.Context, text string) (string, error) {
		t.Fatalf("handler should not run for ignored events, got %q", text)
		return "", nil
	}, silentLog())

	require.NoError(t, bot.runOnce(context.Background()))

	// Every envelope is still acked even when the event is ignored.
	assert.Equal(t, "env-0", <-f.acks)
	assert.Equal(t, "env-1", <-f.acks)
	assert.Equal(t, "env-2", <-f.acks)
	assert.Empty(t, f.posted)
}

func TestBot_HandlerErrorPostsGenericReply(t *testing.T) {
	f := newSocketFixture(t, []Event{{
		Type:    "app_mention",
		Text:    "<@UBOT> break please",
		Channel: "C123",
		TS:      "111.222",
	}})

	bot := NewBot(f.api, func(ctx context.Context, text string) (string, error) {
		return "", fmt.Errorf("model unavailable")
	}, silentLog())

	require.NoError(t, bot.runOnce(context.Background()))

	body := <-f.posted
	assert.Equal(t, errorReply, body["text"])
}

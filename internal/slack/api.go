// Package slack connects memobot to Slack over Socket Mode. The API type
// covers the small slice of the Web API the bot needs; Bot owns the
// WebSocket event loop.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nanairo/memobot/internal/logging"
)

const defaultBaseURL = "https://slack.com/api"

// API is a minimal Slack Web API client.
type API struct {
	botToken string
	appToken string
	baseURL  string
	client   *http.Client
	log      *logging.Logger
}

// NewAPI creates a Slack Web API client. The bot token is used for posting
// messages, the app-level token for opening Socket Mode connections.
func NewAPI(botToken, appToken string, log *logging.Logger) *API {
	return &API{
		botToken: botToken,
		appToken: appToken,
		baseURL:  defaultBaseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log.Sub("slack.api"),
	}
}

// SetBaseURL overrides the Web API base URL (used in tests).
func (a *API) SetBaseURL(url string) { a.baseURL = url }

// apiResponse is the common envelope of Slack Web API responses.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	URL   string `json:"url,omitempty"`
}

// ConnectionsOpen requests a Socket Mode WebSocket URL.
func (a *API) ConnectionsOpen(ctx context.Context) (string, error) {
	resp, err := a.call(ctx, "apps.connections.open", a.appToken, nil)
	if err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("apps.connections.open returned no url")
	}
	return resp.URL, nil
}

// PostMessage posts text to a channel. When threadTS is non-empty the
// message is posted as a thread reply.
func (a *API) PostMessage(ctx context.Context, channel, threadTS, text string) error {
	body := map[string]string{
		"channel": channel,
		"text":    text,
	}
	if threadTS != "" {
		body["thread_ts"] = threadTS
	}
	_, err := a.call(ctx, "chat.postMessage", a.botToken, body)
	return err
}

func (a *API) call(ctx context.Context, method, token string, body any) (*apiResponse, error) {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s request: %w", method, err)
		}
		payload = bytes.NewReader(raw)
	}

	a.log.Debug().Str("method", method).Msg("calling slack api")

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/"+method, payload)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", method, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", method, err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("slack %s failed: %s", method, parsed.Error)
	}
	return &parsed, nil
}

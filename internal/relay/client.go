package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/citygrid/concierge/internal/apperr"
	"github.com/citygrid/concierge/internal/common"
)

const (
	// chatFnIndex routes to the backend's synchronous chat function.
	chatFnIndex = 1

	predictTimeout = 60 * time.Second
	queueTimeout   = 30 * time.Second
	statusTimeout  = 10 * time.Second

	defaultMaxPolls     = 30
	defaultPollInterval = 1 * time.Second
)

// gradioPayload is the wire shape shared by every backend endpoint.
// EventData always serializes as null; Hash is set only on queue pushes.
type gradioPayload struct {
	FnIndex     int    `json:"fn_index"`
	Data        []any  `json:"data,omitempty"`
	SessionHash string `json:"session_hash"`
	EventData   any    `json:"event_data"`
	Hash        string `json:"hash,omitempty"`
}

// Client drives the chat backend protocol negotiation. One Client is shared
// across calls; all per-call state lives in a job.
type Client struct {
	baseURL string
	token   string
	http    *http.Client

	pollInterval time.Duration
	maxPolls     int
	sleep        func(time.Duration)
}

// NewClient builds a backend client. The base URL points at the deployed
// space; token is the bearer credential required on every call.
func NewClient(client *http.Client, baseURL, token string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        token,
		http:         client,
		pollInterval: defaultPollInterval,
		maxPolls:     defaultMaxPolls,
		sleep:        time.Sleep,
	}
}

// Chat relays one (possibly enriched) message and returns the normalized
// turn. The protocol walk is strictly sequential: direct predict, queue
// join/push/poll when the backend asks for it, then legacy predict. Failures
// before the legacy attempt are absorbed; a legacy failure surfaces the
// upstream's status and body verbatim.
func (c *Client) Chat(ctx context.Context, logger zerolog.Logger, message, city string, history [][]string, sessionID string) (Turn, error) {
	if c.token == "" {
		return Turn{}, apperr.New(apperr.ConfigMissing, "chat backend token not configured")
	}

	j := &job{variant: VariantDirect, status: StatusRunning}
	payload := gradioPayload{
		FnIndex:     chatFnIndex,
		Data:        []any{message, city, history},
		SessionHash: sessionID,
	}

	status, body, err := c.post(ctx, "/api/predict", predictTimeout, payload)
	if err == nil && is2xx(status) {
		j.status = StatusComplete
		return c.finish(logger, j, backendResult{kind: resultDirect, body: body}, history, sessionID), nil
	}

	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("primary predict failed, trying legacy endpoint")
	case hasQueueMarker(body):
		logger.Info().Int("status", status).Msg("backend requires queue protocol")
		j.variant = VariantQueue
		if res, ok := c.runQueue(ctx, logger, j, payload, sessionID); ok {
			return c.finish(logger, j, res, history, sessionID), nil
		}
	default:
		logger.Warn().Int("status", status).Str("body", common.Truncate(string(body), 200)).
			Msg("primary predict rejected, trying legacy endpoint")
	}

	j.variant = VariantLegacy
	status, body, err = c.post(ctx, "/run/predict", predictTimeout, payload)
	if err != nil {
		j.status = StatusFailed
		if isTimeout(err) {
			return Turn{}, apperr.Wrap(err, apperr.UpstreamTimeout, "chat backend timed out")
		}
		return Turn{}, apperr.Wrap(err, apperr.UpstreamUnreachable, "chat backend unreachable")
	}
	if !is2xx(status) {
		j.status = StatusFailed
		logger.Error().Int("status", status).Msg("all protocol variants failed")
		return Turn{}, apperr.Rejected(status, string(body))
	}

	j.status = StatusComplete
	return c.finish(logger, j, backendResult{kind: resultDirect, body: body}, history, sessionID), nil
}

// runQueue drives join, push, poll. Any failure along the way reports
// ok=false so the caller falls back to the legacy endpoint; nothing here is
// a caller-visible error.
func (c *Client) runQueue(ctx context.Context, logger zerolog.Logger, j *job, payload gradioPayload, sessionID string) (backendResult, bool) {
	join := gradioPayload{FnIndex: chatFnIndex, SessionHash: sessionID}
	status, body, err := c.post(ctx, "/queue/join", queueTimeout, join)
	if err != nil || !is2xx(status) {
		logger.Warn().Err(err).Int("status", status).Msg("queue join failed")
		return backendResult{}, false
	}

	var joined struct {
		Hash      string `json:"hash"`
		QueueHash string `json:"queue_hash"`
	}
	if err := json.Unmarshal(body, &joined); err != nil {
		logger.Warn().Err(err).Msg("queue join returned malformed payload")
		return backendResult{}, false
	}
	token := joined.Hash
	if token == "" {
		token = joined.QueueHash
	}
	if token == "" {
		logger.Warn().Msg("queue join returned no token")
		return backendResult{}, false
	}
	j.queueToken = token

	push := payload
	push.Hash = token
	status, _, err = c.post(ctx, "/queue/push", queueTimeout, push)
	if err != nil || !is2xx(status) {
		logger.Warn().Err(err).Int("status", status).Msg("queue push failed")
		return backendResult{}, false
	}

	for j.pollCount < c.maxPolls {
		c.sleep(c.pollInterval)
		j.pollCount++

		status, body, err = c.post(ctx, "/queue/status", statusTimeout, map[string]string{"hash": token})
		if err != nil || !is2xx(status) {
			// Transient status failures are tolerated; the poll budget is
			// the only ceiling.
			continue
		}

		var polled struct {
			Status string          `json:"status"`
			Data   json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &polled); err != nil {
			continue
		}
		if polled.Status == "COMPLETE" && len(polled.Data) > 0 && string(polled.Data) != "null" {
			logger.Info().Int("polls", j.pollCount).Msg("queue job complete")
			j.status = StatusComplete
			return backendResult{kind: resultQueue, data: polled.Data}, true
		}
	}

	j.status = StatusTimedOut
	logger.Warn().Int("polls", j.pollCount).
		Str("kind", string(apperr.QueueExhausted)).
		Msg("queue polling exhausted, falling back to legacy endpoint")
	return backendResult{}, false
}

func (c *Client) finish(logger zerolog.Logger, j *job, res backendResult, history [][]string, sessionID string) Turn {
	turn := extractTurn(res, history)
	turn.SessionID = sessionID
	logger.Info().
		Stringer("variant", j.variant).
		Int("polls", j.pollCount).
		Int("history_len", len(turn.History)).
		Msg("chat turn complete")
	return turn
}

// extractTurn normalizes either result variant into a Turn. The backend's
// payload is a bare object or an envelope with a data array; data[0], when
// it is a list of (user, bot) pairs, carries the updated history and the
// reply is the bot half of the last pair. Anything malformed degrades to
// the sentinel reply and the caller's own history.
func extractTurn(res backendResult, fallbackHistory [][]string) Turn {
	var responseData json.RawMessage
	switch res.kind {
	case resultQueue:
		responseData = res.data
	default:
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(res.body, &envelope); err == nil &&
			len(envelope.Data) > 0 && string(envelope.Data) != "null" {
			responseData = envelope.Data
		} else {
			responseData = res.body
		}
	}

	turn := Turn{Data: responseData, History: fallbackHistory, Reply: NoResponseSentinel}

	// Deployments differ on nesting: data is either the pairs list itself
	// or an array whose first element is the pairs list.
	var pairs [][]string
	if err := json.Unmarshal(responseData, &pairs); err != nil {
		var elements []json.RawMessage
		if err := json.Unmarshal(responseData, &elements); err != nil || len(elements) == 0 {
			return turn
		}
		if err := json.Unmarshal(elements[0], &pairs); err != nil {
			return turn
		}
	}

	turn.History = pairs
	if len(pairs) > 0 {
		if last := pairs[len(pairs)-1]; len(last) > 1 {
			turn.Reply = last[1]
		}
	}
	return turn
}

func (c *Client) post(ctx context.Context, path string, timeout time.Duration, payload any) (int, []byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, raw, nil
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}

func hasQueueMarker(body []byte) bool {
	return common.HasAny(strings.ToLower(string(body)), "queue", "join")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citygrid/concierge/internal/apperr"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.Client(), server.URL, "test-token")
	client.sleep = func(time.Duration) {}
	return client, server
}

func TestChatDirectPredictSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/predict", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var payload gradioPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, 1, payload.FnIndex)
		assert.Equal(t, "sess-1", payload.SessionHash)

		w.Write([]byte(`{"data":[[["hi","hello there"]],""]}`))
	})

	client, _ := newTestClient(t, mux)

	turn, err := client.Chat(context.Background(), zerolog.Nop(), "hi", "Norfolk, VA", nil, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "hello there", turn.Reply)
	assert.Equal(t, [][]string{{"hi", "hello there"}}, turn.History)
	assert.Equal(t, "sess-1", turn.SessionID)
}

func TestChatQueueProtocolCompletesOnThirdPoll(t *testing.T) {
	var polls, legacyHits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/predict", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"queue required"}`))
	})
	mux.HandleFunc("/queue/join", func(w http.ResponseWriter, r *http.Request) {
		var payload gradioPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Nil(t, payload.Data, "join carries no data")
		w.Write([]byte(`{"hash":"tok-42"}`))
	})
	mux.HandleFunc("/queue/push", func(w http.ResponseWriter, r *http.Request) {
		var payload gradioPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "tok-42", payload.Hash)
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/queue/status", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			w.Write([]byte(`{"status":"PENDING"}`))
			return
		}
		w.Write([]byte(`{"status":"COMPLETE","data":[["hi","hello"]]}`))
	})
	mux.HandleFunc("/run/predict", func(w http.ResponseWriter, r *http.Request) {
		legacyHits.Add(1)
		w.Write([]byte(`{}`))
	})

	client, _ := newTestClient(t, mux)

	var sleeps []time.Duration
	client.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	turn, err := client.Chat(context.Background(), zerolog.Nop(), "hi", "Norfolk, VA", nil, "sess-q")
	require.NoError(t, err)
	assert.Equal(t, "hello", turn.Reply)
	assert.Equal(t, int32(3), polls.Load())
	assert.Equal(t, int32(0), legacyHits.Load(), "legacy fallback must not run after queue completion")

	require.Len(t, sleeps, 3)
	for _, d := range sleeps {
		assert.Equal(t, time.Second, d, "polls must be spaced by exactly one interval")
	}
}

func TestChatQueueExhaustionFallsBackToLegacy(t *testing.T) {
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/predict", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`please join the queue`))
	})
	mux.HandleFunc("/queue/join", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"queue_hash":"tok-alt"}`))
	})
	mux.HandleFunc("/queue/push", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/queue/status", func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		w.Write([]byte(`{"status":"PENDING"}`))
	})
	mux.HandleFunc("/run/predict", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[[["hi","legacy says hi"]],""]}`))
	})

	client, _ := newTestClient(t, mux)
	client.maxPolls = 5

	turn, err := client.Chat(context.Background(), zerolog.Nop(), "hi", "Norfolk, VA", nil, "sess-x")
	require.NoError(t, err)
	assert.Equal(t, "legacy says hi", turn.Reply)
	assert.Equal(t, int32(5), polls.Load(), "polling must stop at the attempt ceiling")
}

func TestChatPollingToleratesTransientStatusErrors(t *testing.T) {
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/predict", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`queue`))
	})
	mux.HandleFunc("/queue/join", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hash":"tok"}`))
	})
	mux.HandleFunc("/queue/push", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/queue/status", func(w http.ResponseWriter, r *http.Request) {
		switch polls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusBadGateway)
		case 2:
			w.Write([]byte(`not json at all`))
		default:
			w.Write([]byte(`{"status":"COMPLETE","data":[["hi","eventually"]]}`))
		}
	})

	client, _ := newTestClient(t, mux)

	turn, err := client.Chat(context.Background(), zerolog.Nop(), "hi", "Norfolk, VA", nil, "s")
	require.NoError(t, err)
	assert.Equal(t, "eventually", turn.Reply)
	assert.Equal(t, int32(3), polls.Load())
}

func TestChatAllVariantsFailSurfacesLegacyResponseVerbatim(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/predict", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`backend down`))
	})
	mux.HandleFunc("/run/predict", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`legacy broken`))
	})

	client, _ := newTestClient(t, mux)

	_, err := client.Chat(context.Background(), zerolog.Nop(), "hi", "Norfolk, VA", nil, "s")
	require.Error(t, err)

	e, ok := apperr.AsError(err)
	require.True(t, ok)
	assert.Equal(t, apperr.UpstreamRejected, e.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, e.Status)
	assert.Equal(t, "legacy broken", e.Body)
}

func TestChatMissingTokenIsConfigMissing(t *testing.T) {
	client := NewClient(http.DefaultClient, "http://unused", "")

	_, err := client.Chat(context.Background(), zerolog.Nop(), "hi", "Norfolk, VA", nil, "s")
	require.Error(t, err)
	assert.Equal(t, apperr.ConfigMissing, apperr.KindOf(err))
}

func TestChatMalformedReplyDegradesToSentinel(t *testing.T) {
	input := [][]string{{"earlier", "turn"}}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/predict", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"unexpected":"shape"}`)
	})

	client, _ := newTestClient(t, mux)

	turn, err := client.Chat(context.Background(), zerolog.Nop(), "hi", "Norfolk, VA", input, "s")
	require.NoError(t, err)
	assert.Equal(t, NoResponseSentinel, turn.Reply)
	assert.Equal(t, input, turn.History, "caller history must pass through unchanged")
}

func TestExtractTurn(t *testing.T) {
	tests := []struct {
		name        string
		res         backendResult
		wantReply   string
		wantHistory [][]string
	}{
		{
			name:        "direct envelope with nested pairs",
			res:         backendResult{kind: resultDirect, body: []byte(`{"data":[[["q1","a1"],["q2","a2"]],""]}`)},
			wantReply:   "a2",
			wantHistory: [][]string{{"q1", "a1"}, {"q2", "a2"}},
		},
		{
			name:        "queue data as bare pairs list",
			res:         backendResult{kind: resultQueue, data: []byte(`[["hi","hello"]]`)},
			wantReply:   "hello",
			wantHistory: [][]string{{"hi", "hello"}},
		},
		{
			name:        "empty pairs list keeps fallback history",
			res:         backendResult{kind: resultDirect, body: []byte(`{"data":[[],""]}`)},
			wantReply:   NoResponseSentinel,
			wantHistory: [][]string{},
		},
		{
			name:        "malformed pair yields sentinel",
			res:         backendResult{kind: resultQueue, data: []byte(`[["only-user"]]`)},
			wantReply:   NoResponseSentinel,
			wantHistory: [][]string{{"only-user"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turn := extractTurn(tt.res, nil)
			assert.Equal(t, tt.wantReply, turn.Reply)
			assert.Equal(t, tt.wantHistory, turn.History)
		})
	}
}

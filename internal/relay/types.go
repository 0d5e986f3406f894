// Package relay implements the client for the Gradio-style chat backend.
//
// The backend's accepted protocol varies by deployment, so the client
// probes: direct predict first, then the queue protocol (join, push, poll)
// when the backend demands it, then the legacy predict endpoint as a last
// resort. Only a failure of the final fallback reaches the caller.
package relay

import "encoding/json"

// NoResponseSentinel is returned as the reply when the backend's payload
// carried no usable bot message. A malformed reply degrades to this instead
// of failing the call.
const NoResponseSentinel = "I'm sorry, I didn't get a response."

// ProtocolVariant identifies which wire protocol a relay call ended up using.
type ProtocolVariant int

const (
	VariantDirect ProtocolVariant = iota
	VariantQueue
	VariantLegacy
)

func (v ProtocolVariant) String() string {
	switch v {
	case VariantQueue:
		return "queue"
	case VariantLegacy:
		return "legacy"
	default:
		return "direct"
	}
}

// JobStatus tracks the backend job through one relay call.
type JobStatus int

const (
	StatusPending JobStatus = iota
	StatusRunning
	StatusComplete
	StatusFailed
	StatusTimedOut
)

// job is the per-call backend job state. It is created at the start of a
// relay call, mutated only by the state machine, and discarded when the
// call returns. Never persisted.
type job struct {
	variant    ProtocolVariant
	queueToken string
	pollCount  int
	status     JobStatus
}

// Turn is the normalized chat turn handed back to the relay handler.
// Data is the backend's response data verbatim; History is the caller's
// history with at most one new pair appended.
type Turn struct {
	Data      json.RawMessage
	History   [][]string
	Reply     string
	SessionID string
}

// resultKind tags the two shapes a successful backend exchange produces:
// a direct HTTP response body, or the data array lifted out of a polled
// queue status payload.
type resultKind int

const (
	resultDirect resultKind = iota
	resultQueue
)

// backendResult is the tagged union consumed by extractTurn. body is set
// for resultDirect, data for resultQueue.
type backendResult struct {
	kind resultKind
	body []byte
	data json.RawMessage
}

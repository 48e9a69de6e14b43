// Package subscribe implements the Subscription Manager (C4) and Event
// Publisher (C5): ownership-checked (channel, requestId) subscriber sets,
// pending-subscribe activation, bounded backlog, and typed event delivery.
package subscribe

import "time"

// Channel is one of the closed set of logical event streams.
type Channel string

const (
	ChannelSearch    Channel = "search"
	ChannelAssistant Channel = "assistant"
	ChannelProvider  Channel = "provider"
)

// Identity is the (userId?, sessionId) pair a subscribe carries, checked
// against a job's ownership contract (§3).
type Identity struct {
	UserID    string
	SessionID string
}

// Subscriber is anything that can receive events for one connection. Send
// must be non-blocking and return false if the subscriber's outbound queue
// is full — in which case the Manager logs a warning and that event is lost
// for that subscriber; the transport layer is responsible for disconnecting
// it (Cleanup). This
// mirrors the teacher's single-goroutine writePump idiom: an implementation
// backed by a bounded channel drained by one goroutine per connection
// preserves in-order delivery to that subscriber.
type Subscriber interface {
	ID() string
	Send(evt Event) bool
}

// Event is the discriminated union of wire messages delivered to
// subscribers, following the teacher's Chunk/chunkType() marker-method
// pattern so only the types declared in this package can implement it.
type Event interface {
	eventType() string
}

// StatusEvent is a progress update: {type:"status", requestId, status, progress}.
type StatusEvent struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
}

func (StatusEvent) eventType() string { return "status" }

// TerminalKind enumerates the four terminal wire message types.
type TerminalKind string

const (
	TerminalResult  TerminalKind = "result"
	TerminalClarify TerminalKind = "clarify"
	TerminalStopped TerminalKind = "stopped"
	TerminalFailed  TerminalKind = "failed"
)

// TerminalEvent carries the full terminal payload for a job, retained in
// the backlog until delivered or the job is garbage-collected (§3).
type TerminalEvent struct {
	RequestID string       `json:"requestId"`
	Kind      TerminalKind `json:"type"`
	Payload   any          `json:"payload"`
}

func (TerminalEvent) eventType() string { return "terminal" }

// IsTerminal reports whether e is a TerminalEvent — used by the backlog to
// decide which events survive an overflow eviction.
func IsTerminal(e Event) bool {
	_, ok := e.(TerminalEvent)
	return ok
}

// AssistantPayloadType enumerates the Narrator's three response shapes.
type AssistantPayloadType string

const (
	AssistantGateFail AssistantPayloadType = "GATE_FAIL"
	AssistantClarify  AssistantPayloadType = "CLARIFY"
	AssistantSummary  AssistantPayloadType = "SUMMARY"
)

// AssistantEvent carries the Narrator's short message to the user.
type AssistantEvent struct {
	RequestID string                `json:"requestId"`
	Payload   AssistantEventPayload `json:"payload"`
}

// AssistantEventPayload is the Narrator's typed output (§4.8).
type AssistantEventPayload struct {
	Type         AssistantPayloadType `json:"type"`
	Message      string               `json:"message"`
	Question     *string              `json:"question"`
	SuggestedAction string            `json:"suggestedAction,omitempty"`
	BlocksSearch bool                 `json:"blocksSearch"`
}

func (AssistantEvent) eventType() string { return "assistant" }

// ProviderStatus enumerates an enrichment cache entry's resolution state.
type ProviderStatus string

const (
	ProviderPending  ProviderStatus = "PENDING"
	ProviderFound    ProviderStatus = "FOUND"
	ProviderNotFound ProviderStatus = "NOT_FOUND"
)

// ProviderPatchEvent is the out-of-band update for one result's third-party
// deep link (§4.9 step 5).
type ProviderPatchEvent struct {
	RequestID string         `json:"requestId"`
	PlaceID   string         `json:"placeId"`
	Provider  string         `json:"provider"`
	Status    ProviderStatus `json:"status"`
	URL       *string        `json:"url"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Meta      map[string]any `json:"meta,omitempty"`
}

func (ProviderPatchEvent) eventType() string { return "result_patch" }

// AckResult is returned from Subscribe.
type AckResult struct {
	Pending bool // true iff the job did not yet exist and this is a pending subscribe
}

// NackReason enumerates why a subscribe was rejected.
type NackReason string

const (
	NackOwnershipMismatch NackReason = "session/owner mismatch"
	NackInternal          NackReason = "internal error"
)

// Nack is returned (as an error) when a subscribe is rejected.
type Nack struct {
	Reason NackReason
}

func (n *Nack) Error() string { return string(n.Reason) }

// SubAckEvent is pushed directly to a single subscriber being activated —
// either synchronously by the caller of Subscribe or asynchronously by
// ActivatePending once the job is created — never broadcast via Publish.
type SubAckEvent struct {
	Channel   Channel `json:"channel"`
	RequestID string  `json:"requestId"`
	Pending   bool    `json:"pending,omitempty"`
}

func (SubAckEvent) eventType() string { return "sub_ack" }

// SubNackEvent is pushed directly to a single subscriber when its subscribe
// was rejected.
type SubNackEvent struct {
	Channel   Channel    `json:"channel"`
	RequestID string     `json:"requestId"`
	Reason    NackReason `json:"reason"`
}

func (SubNackEvent) eventType() string { return "sub_nack" }

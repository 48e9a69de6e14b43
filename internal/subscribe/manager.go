package subscribe

import (
	"context"
	"log/slog"
	"sync"
)

// defaultBacklogLimit bounds the number of events held per (channel,
// requestId) before any subscriber has attached. Overflow drops the oldest
// non-terminal event and increments a counter (§4.5).
const defaultBacklogLimit = 256

// OwnerLookup resolves a job's ownership for the ownership check in
// Subscribe (§3). Satisfied by internal/job.Store in production wiring.
type OwnerLookup interface {
	Owner(ctx context.Context, requestID string) (ownerUserID, ownerSessionID string, found bool, err error)
}

type topicKey struct {
	channel   Channel
	requestID string
}

// topic is the single-logical-owner structure for one (channel, requestId):
// its current subscribers and its backlog, guarded by its own mutex so
// unrelated topics never contend — the "fine-grained synchronisation on the
// key" the design calls for (§5).
type topic struct {
	mu            sync.Mutex
	subs          []Subscriber
	backlog       []Event
	overflowCount int
}

type pendingEntry struct {
	subscriber Subscriber
	channel    Channel
	identity   Identity
}

// Manager is the Subscription Manager (C4), generalized from the teacher's
// ConnectionManager (connections/channels maps with separate locks,
// reference-counted subscribe/unsubscribe, catchup/backlog drain).
type Manager struct {
	owners OwnerLookup

	mu     sync.RWMutex
	topics map[topicKey]*topic

	pendingMu sync.Mutex
	pending   map[string][]pendingEntry // requestID -> waiting subscribes

	// reverse index for O(1) Cleanup instead of scanning every topic.
	bySubMu sync.Mutex
	bySub   map[string]map[topicKey]bool
	pendBy  map[string]map[string]bool // subscriberID -> requestIDs with a pending entry

	backlogLimit int
}

func NewManager(owners OwnerLookup) *Manager {
	return &Manager{
		owners:       owners,
		topics:       make(map[topicKey]*topic),
		pending:      make(map[string][]pendingEntry),
		bySub:        make(map[string]map[topicKey]bool),
		pendBy:       make(map[string]map[string]bool),
		backlogLimit: defaultBacklogLimit,
	}
}

// Subscribe implements the three-way contract in §4.4: Ack with backlog
// drain when the job exists and ownership matches; pending registration
// (Ack{Pending:true}) when the job does not yet exist; Nack with no
// subscription created when ownership mismatches.
func (m *Manager) Subscribe(ctx context.Context, channel Channel, requestID string, sub Subscriber, identity Identity) (AckResult, error) {
	ownerUserID, ownerSessionID, found, err := m.owners.Owner(ctx, requestID)
	if err != nil {
		return AckResult{}, &Nack{Reason: NackInternal}
	}

	if !found {
		m.registerPending(requestID, channel, sub, identity)
		return AckResult{Pending: true}, nil
	}

	if !ownershipMatches(ownerUserID, ownerSessionID, identity) {
		return AckResult{}, &Nack{Reason: NackOwnershipMismatch}
	}

	m.attach(channel, requestID, sub, true)
	return AckResult{Pending: false}, nil
}

func ownershipMatches(ownerUserID, ownerSessionID string, identity Identity) bool {
	if ownerSessionID != identity.SessionID {
		return false
	}
	if ownerUserID != "" && ownerUserID != identity.UserID {
		return false
	}
	return true
}

func (m *Manager) registerPending(requestID string, channel Channel, sub Subscriber, identity Identity) {
	m.pendingMu.Lock()
	m.pending[requestID] = append(m.pending[requestID], pendingEntry{subscriber: sub, channel: channel, identity: identity})
	m.pendingMu.Unlock()

	m.bySubMu.Lock()
	if m.pendBy[sub.ID()] == nil {
		m.pendBy[sub.ID()] = make(map[string]bool)
	}
	m.pendBy[sub.ID()][requestID] = true
	m.bySubMu.Unlock()
}

// attach registers sub as a live subscriber of (channel, requestID) and, if
// sendAck, delivers a sub_ack followed by any backlogged events in FIFO
// order — preserving ordering invariant (d) in §5: the ack precedes all
// subsequent progress events for that subscriber.
func (m *Manager) attach(channel Channel, requestID string, sub Subscriber, sendAck bool) {
	t := m.topicFor(channel, requestID)

	t.mu.Lock()
	t.subs = append(t.subs, sub)
	backlogCopy := append([]Event(nil), t.backlog...)
	t.mu.Unlock()

	m.bySubMu.Lock()
	if m.bySub[sub.ID()] == nil {
		m.bySub[sub.ID()] = make(map[topicKey]bool)
	}
	m.bySub[sub.ID()][topicKey{channel: channel, requestID: requestID}] = true
	m.bySubMu.Unlock()

	if sendAck {
		sub.Send(SubAckEvent{Channel: channel, RequestID: requestID, Pending: false})
	}
	for _, evt := range backlogCopy {
		sub.Send(evt)
	}
}

// ActivatePending promotes every pending subscribe recorded for requestID
// (called by the Orchestrator once the job is created, before any progress
// event is published — §4.10), sending each an activation ack and draining
// backlog in FIFO order.
func (m *Manager) ActivatePending(requestID string) {
	m.pendingMu.Lock()
	entries := m.pending[requestID]
	delete(m.pending, requestID)
	m.pendingMu.Unlock()

	if len(entries) == 0 {
		return
	}

	m.bySubMu.Lock()
	for _, e := range entries {
		if set := m.pendBy[e.subscriber.ID()]; set != nil {
			delete(set, requestID)
			if len(set) == 0 {
				delete(m.pendBy, e.subscriber.ID())
			}
		}
	}
	m.bySubMu.Unlock()

	for _, e := range entries {
		e.subscriber.Send(SubAckEvent{Channel: e.channel, RequestID: requestID, Pending: true})
		m.attach(e.channel, requestID, e.subscriber, false)
	}
}

// Unsubscribe removes sub from (channel, requestID). Idempotent.
func (m *Manager) Unsubscribe(channel Channel, requestID string, sub Subscriber) {
	key := topicKey{channel: channel, requestID: requestID}

	m.mu.RLock()
	t, ok := m.topics[key]
	m.mu.RUnlock()
	if ok {
		t.mu.Lock()
		t.subs = removeSubscriber(t.subs, sub.ID())
		t.mu.Unlock()
	}

	m.bySubMu.Lock()
	if set := m.bySub[sub.ID()]; set != nil {
		delete(set, key)
		if len(set) == 0 {
			delete(m.bySub, sub.ID())
		}
	}
	m.bySubMu.Unlock()
}

// Cleanup removes all of sub's subscriptions and pending entries on
// connection loss, without further notification (§4.4).
func (m *Manager) Cleanup(sub Subscriber) {
	m.bySubMu.Lock()
	keys := m.bySub[sub.ID()]
	delete(m.bySub, sub.ID())
	pendingReqs := m.pendBy[sub.ID()]
	delete(m.pendBy, sub.ID())
	m.bySubMu.Unlock()

	for key := range keys {
		m.mu.RLock()
		t, ok := m.topics[key]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		t.mu.Lock()
		t.subs = removeSubscriber(t.subs, sub.ID())
		t.mu.Unlock()
	}

	if len(pendingReqs) == 0 {
		return
	}
	m.pendingMu.Lock()
	for requestID := range pendingReqs {
		m.pending[requestID] = removePendingEntry(m.pending[requestID], sub.ID())
		if len(m.pending[requestID]) == 0 {
			delete(m.pending, requestID)
		}
	}
	m.pendingMu.Unlock()
}

// SubscribersOf returns the current live subscribers of (channel, requestID).
func (m *Manager) SubscribersOf(channel Channel, requestID string) []Subscriber {
	t, ok := m.existingTopic(channel, requestID)
	if !ok {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Subscriber(nil), t.subs...)
}

// Publish delivers evt to every current subscriber of (channel, requestID);
// if there are none, it is appended to the bounded backlog. Terminal events
// (for which the job will never publish again) are never evicted on
// overflow — only the oldest non-terminal entry is dropped.
func (m *Manager) Publish(channel Channel, requestID string, evt Event) {
	t := m.topicFor(channel, requestID)

	t.mu.Lock()
	subs := append([]Subscriber(nil), t.subs...)
	if len(subs) == 0 {
		t.backlog = appendBounded(t.backlog, evt, m.backlogLimit, &t.overflowCount)
	}
	overflow := t.overflowCount
	t.mu.Unlock()

	if overflow > 0 {
		slog.Debug("subscribe: backlog overflow", "channel", channel, "requestId", requestID, "dropped", overflow)
	}

	for _, sub := range subs {
		if !sub.Send(evt) {
			slog.Warn("subscribe: subscriber outbound queue full, dropping", "subscriber", sub.ID(), "channel", channel, "requestId", requestID)
		}
	}

	if IsTerminal(evt) {
		m.discardBacklogExceptTerminal(channel, requestID, evt)
	}
}

// discardBacklogExceptTerminal implements the terminal-transition discard
// rule in §3: backlog is cleared on terminal transition, except the
// terminal event itself is retained (for late subscribers) until delivered
// or the job is garbage-collected.
func (m *Manager) discardBacklogExceptTerminal(channel Channel, requestID string, terminal Event) {
	t := m.topicFor(channel, requestID)
	t.mu.Lock()
	t.backlog = []Event{terminal}
	t.mu.Unlock()
}

func appendBounded(backlog []Event, evt Event, limit int, overflowCount *int) []Event {
	if len(backlog) < limit {
		return append(backlog, evt)
	}
	// Evict the oldest non-terminal entry to make room.
	for i, e := range backlog {
		if !IsTerminal(e) {
			backlog = append(backlog[:i], backlog[i+1:]...)
			*overflowCount++
			return append(backlog, evt)
		}
	}
	// Entire backlog is terminal events (should not normally happen, since a
	// terminal transition resets the backlog to one entry) — drop the
	// incoming event rather than a retained terminal.
	*overflowCount++
	return backlog
}

func (m *Manager) topicFor(channel Channel, requestID string) *topic {
	key := topicKey{channel: channel, requestID: requestID}

	m.mu.RLock()
	t, ok := m.topics[key]
	m.mu.RUnlock()
	if ok {
		return t
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.topics[key]; ok {
		return t
	}
	t = &topic{}
	m.topics[key] = t
	return t
}

func (m *Manager) existingTopic(channel Channel, requestID string) (*topic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.topics[topicKey{channel: channel, requestID: requestID}]
	return t, ok
}

func removeSubscriber(subs []Subscriber, id string) []Subscriber {
	out := subs[:0]
	for _, s := range subs {
		if s.ID() != id {
			out = append(out, s)
		}
	}
	return out
}

func removePendingEntry(entries []pendingEntry, subscriberID string) []pendingEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.subscriber.ID() != subscriberID {
			out = append(out, e)
		}
	}
	return out
}

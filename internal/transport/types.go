// Package transport implements the external interfaces (C14): the HTTP
// submission/health surface and the WebSocket subscription surface, wired
// on top of the Orchestrator (C10) and Subscription Manager (C4).
package transport

import (
	"time"

	"github.com/shacharon/pizzasearch/internal/pipeline"
)

// SubmitBody is the wire shape of the HTTP submission endpoint's body (§6).
type SubmitBody struct {
	Query        string           `json:"query" binding:"required"`
	SessionID    string           `json:"sessionId"`
	UserLocation *WireCoordinates `json:"userLocation"`
	Filters      *WireFilters     `json:"filters"`
	ClearContext bool             `json:"clearContext"`
}

// WireCoordinates is the submission's optional lat/lng pair.
type WireCoordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c *WireCoordinates) toPipeline() *pipeline.Coordinates {
	if c == nil {
		return nil
	}
	return &pipeline.Coordinates{Lat: c.Lat, Lng: c.Lng}
}

// WireFilters is the submission's optional filter set.
type WireFilters struct {
	OpenNow    *bool    `json:"openNow"`
	PriceLevel *int     `json:"priceLevel"`
	Dietary    []string `json:"dietary"`
	MustHave   []string `json:"mustHave"`
}

// SubmitResponse is the wire shape returned from a successful submission.
type SubmitResponse struct {
	RequestID string `json:"requestId"`
}

// ErrorResponse is the wire shape returned on a rejected request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ClientMessage is the envelope for every message a subscriber sends (§6):
// {v, action, channel, requestId, sessionId}.
type ClientMessage struct {
	V         int    `json:"v"`
	Action    string `json:"action"`
	Channel   string `json:"channel"`
	RequestID string `json:"requestId"`
	SessionID string `json:"sessionId"`
}

const (
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
)

// CloseReason is one of the structured close codes a subscription
// connection may be terminated with (§5).
type CloseReason string

const (
	CloseIdleTimeout      CloseReason = "IDLE_TIMEOUT"
	CloseHeartbeatTimeout CloseReason = "HEARTBEAT_TIMEOUT"
	CloseServerClose      CloseReason = "SERVER_CLOSE"
)

// HeartbeatConfig controls the ping/pong and idle-timeout cadence for a
// subscription connection, sourced from config.ServerConfig.
type HeartbeatConfig struct {
	Interval    time.Duration
	IdleTimeout time.Duration
}

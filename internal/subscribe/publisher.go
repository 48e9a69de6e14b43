package subscribe

import "time"

// Publisher is the Event Publisher (C5): typed publish methods that build a
// canonical envelope and delegate to the one internal Manager.Publish
// primitive, mirroring the teacher's EventPublisher (PublishTimelineCreated/
// PublishStageStatus/... each building a payload and calling persistAndNotify
// or notifyOnly). C5 depends only on C4.
type Publisher struct {
	manager *Manager
}

func NewPublisher(manager *Manager) *Publisher {
	return &Publisher{manager: manager}
}

// PublishProgress publishes a {type:"status"} event on the search channel.
func (p *Publisher) PublishProgress(requestID, status string, progress int) {
	p.manager.Publish(ChannelSearch, requestID, StatusEvent{
		RequestID: requestID,
		Status:    status,
		Progress:  progress,
	})
}

// PublishTerminal publishes the job's terminal payload on the search channel.
func (p *Publisher) PublishTerminal(requestID string, kind TerminalKind, payload any) {
	p.manager.Publish(ChannelSearch, requestID, TerminalEvent{
		RequestID: requestID,
		Kind:      kind,
		Payload:   payload,
	})
}

// PublishAssistant publishes the Narrator's message on the assistant channel.
func (p *Publisher) PublishAssistant(requestID string, payload AssistantEventPayload) {
	p.manager.Publish(ChannelAssistant, requestID, AssistantEvent{
		RequestID: requestID,
		Payload:   payload,
	})
}

// PublishProviderPatch builds the canonical provider-patch event and
// publishes it on the provider channel (§4.5).
func (p *Publisher) PublishProviderPatch(provider, placeID, requestID string, status ProviderStatus, url *string, updatedAt time.Time, meta map[string]any) {
	p.manager.Publish(ChannelProvider, requestID, ProviderPatchEvent{
		RequestID: requestID,
		PlaceID:   placeID,
		Provider:  provider,
		Status:    status,
		URL:       url,
		UpdatedAt: updatedAt,
		Meta:      meta,
	})
}

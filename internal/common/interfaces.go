package common

// ChatEvent is what the synchronization controller reports to UI observers.
type ChatEvent struct {
	Type          string `json:"type"`
	CounterpartID string `json:"counterpart_id,omitempty"`
	MessageID     string `json:"message_id,omitempty"`
}

// Event types delivered to observers.
const (
	EventConversationUpdated = "conversation_updated" // the open conversation changed, reload the view
	EventSummariesChanged    = "summaries_changed"    // another conversation changed, refresh badges only
)

type Observer interface {
	Update(event ChatEvent) error
	Name() string
}

type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	Notify(event ChatEvent)
}

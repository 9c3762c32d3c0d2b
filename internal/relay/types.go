package relay

// WebhookPayload is the body LINE posts to the webhook.
type WebhookPayload struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

type Event struct {
	Type            string           `json:"type"`
	WebhookEventID  string           `json:"webhookEventId,omitempty"`
	ReplyToken      string           `json:"replyToken"`
	Timestamp       int64            `json:"timestamp,omitempty"`
	Source          Source           `json:"source"`
	Message         *EventMessage    `json:"message,omitempty"`
	DeliveryContext *DeliveryContext `json:"deliveryContext,omitempty"`
}

type Source struct {
	Type    string `json:"type,omitempty"`
	UserID  string `json:"userId"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

type EventMessage struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type DeliveryContext struct {
	IsRedelivery bool `json:"isRedelivery"`
}

// IsText reports whether the event is a text message, the only kind the relay answers.
func (e Event) IsText() bool {
	return e.Type == "message" && e.Message != nil && e.Message.Type == "text"
}

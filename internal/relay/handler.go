package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/sirupsen/logrus"
)

const maxWebhookBody = 1 << 20

type Handler struct {
	svc           Service
	channelSecret string
	log           logrus.FieldLogger
}

// NewHandler builds the webhook handler. With an empty channelSecret the
// X-Line-Signature header is not checked.
func NewHandler(svc Service, channelSecret string, log logrus.FieldLogger) *Handler {
	return &Handler{
		svc:           svc,
		channelSecret: channelSecret,
		log:           log.WithField("component", "webhook"),
	}
}

// HandleWebhook is the LINE entry point. Every accepted batch is answered with 200
// whatever happened to its events.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	if h.channelSecret != "" && !webhook.ValidateSignature(h.channelSecret, r.Header.Get("X-Line-Signature"), body) {
		h.log.Warn("invalid webhook signature")
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.log.WithError(err).Warn("invalid webhook json")
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	// events run to completion even if LINE drops the connection
	h.svc.HandleBatch(context.WithoutCancel(r.Context()), payload.Events)

	w.WriteHeader(http.StatusOK)
}

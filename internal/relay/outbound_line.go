package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// maxTextRunes is LINE's limit for a text message.
const maxTextRunes = 5000

type LineOutbound struct {
	api *messaging_api.MessagingApiAPI
}

// NewLineOutbound builds a reply client. An empty endpoint means the public LINE API.
func NewLineOutbound(channelToken, endpoint string, timeout time.Duration) (*LineOutbound, error) {
	channelToken = strings.TrimSpace(channelToken)
	if channelToken == "" {
		return nil, errors.New("line: channel access token is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := []messaging_api.MessagingApiAPIOption{
		messaging_api.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if endpoint != "" {
		opts = append(opts, messaging_api.WithEndpoint(strings.TrimRight(endpoint, "/")))
	}

	api, err := messaging_api.NewMessagingApiAPI(channelToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("line: create messaging api client: %w", err)
	}

	return &LineOutbound{api: api}, nil
}

// Reply answers a message event with one text message. The client is not bound to ctx;
// its own HTTP timeout bounds the call.
func (o *LineOutbound) Reply(_ context.Context, replyToken, text string) error {
	if replyToken == "" {
		return errors.New("line: empty reply token")
	}

	_, err := o.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: truncateRunes(text, maxTextRunes)},
		},
	})
	if err != nil {
		return fmt.Errorf("line reply: %w", err)
	}
	return nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

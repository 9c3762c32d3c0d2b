package nlu

import (
	"context"
	"errors"
	"fmt"

	dialogflow "cloud.google.com/go/dialogflow/apiv2"
	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// sessionsClient is the subset of *dialogflow.SessionsClient the resolver uses.
type sessionsClient interface {
	DetectIntent(ctx context.Context, req *dialogflowpb.DetectIntentRequest, opts ...gax.CallOption) (*dialogflowpb.DetectIntentResponse, error)
	Close() error
}

type DialogflowConfig struct {
	ProjectID       string
	LanguageCode    string
	CredentialsJSON []byte
}

type DialogflowResolver struct {
	client    sessionsClient
	projectID string
	language  string
	log       logrus.FieldLogger
}

func NewDialogflowResolver(ctx context.Context, cfg DialogflowConfig, log logrus.FieldLogger) (*DialogflowResolver, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("dialogflow: project id is required")
	}

	var opts []option.ClientOption
	if len(cfg.CredentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	}

	client, err := dialogflow.NewSessionsClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("dialogflow: create sessions client: %w", err)
	}

	return newDialogflowResolver(client, cfg, log), nil
}

func newDialogflowResolver(client sessionsClient, cfg DialogflowConfig, log logrus.FieldLogger) *DialogflowResolver {
	lang := cfg.LanguageCode
	if lang == "" {
		lang = "th"
	}
	return &DialogflowResolver{
		client:    client,
		projectID: cfg.ProjectID,
		language:  lang,
		log:       log.WithField("component", "dialogflow"),
	}
}

func (r *DialogflowResolver) sessionPath(userID string) string {
	return fmt.Sprintf("projects/%s/agent/sessions/%s", r.projectID, SessionID(userID))
}

func (r *DialogflowResolver) Resolve(ctx context.Context, userID, text string) (Result, error) {
	resp, err := r.client.DetectIntent(ctx, &dialogflowpb.DetectIntentRequest{
		Session: r.sessionPath(userID),
		QueryInput: &dialogflowpb.QueryInput{
			Input: &dialogflowpb.QueryInput_Text{
				Text: &dialogflowpb.TextInput{
					Text:         text,
					LanguageCode: r.language,
				},
			},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrResolve, err)
	}

	res := resultFromQuery(resp.GetQueryResult())
	r.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"intent":     res.Intent,
		"confidence": res.Confidence,
	}).Debug("intent detected")

	return res, nil
}

func (r *DialogflowResolver) Close() error {
	return r.client.Close()
}

// resultFromQuery never fails: missing pieces of the query result become empty values.
func resultFromQuery(qr *dialogflowpb.QueryResult) Result {
	// AsMap tolerates a nil struct.
	params := qr.GetParameters().AsMap()
	if params == nil {
		params = map[string]any{}
	}

	return Result{
		Intent:          qr.GetIntent().GetDisplayName(),
		FulfillmentText: qr.GetFulfillmentText(),
		Parameters:      params,
		Confidence:      qr.GetIntentDetectionConfidence(),
		QueryText:       qr.GetQueryText(),
		LanguageCode:    qr.GetLanguageCode(),
	}
}

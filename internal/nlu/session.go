package nlu

import "github.com/google/uuid"

var sessionNamespace = uuid.MustParse("5b0e6f0c-3f51-4c7a-9a55-0d1f7c6b2e41")

// SessionID maps a chat user to a Dialogflow session id. The mapping is stable, so every
// message of one user lands in the same session, and always fits the 36-byte limit.
func SessionID(userID string) string {
	return uuid.NewSHA1(sessionNamespace, []byte(userID)).String()
}

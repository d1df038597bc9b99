// Package httpapi implements a Provider that hands the whole dispatch to a
// remote bulk-mail HTTP endpoint.
package httpapi

import "github.com/shineum/bulkmail-lite/internal/email"

// sendRequest is the JSON body posted to the bulk endpoint.
type sendRequest struct {
	Subject    string   `json:"subject"`
	Text       string   `json:"text"`
	Recipients []string `json:"recipients"`
}

// sendResponse is the JSON body returned by the bulk endpoint.
// Results stays nil when the field is absent.
type sendResponse struct {
	Results []email.Result `json:"results"`
}

// buildSendRequest converts an email.Message into the endpoint's request body.
func buildSendRequest(msg *email.Message) *sendRequest {
	return &sendRequest{
		Subject:    msg.Subject,
		Text:       msg.Text,
		Recipients: msg.Recipients,
	}
}

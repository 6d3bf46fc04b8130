// Package handlers exposes the REST API: admin CRUD for users and projects,
// reply-key minting for outbound notifications, the delivery audit trail, and
// the inbound Mailgun webhook.
package handlers

// ErrorResponse is the error payload rendered for failed requests.
type ErrorResponse struct {
	Message string `json:"message"`
}

package models

import "github.com/google/uuid"

// Session is the ephemeral proof of identity supplied by the external auth
// collaborator: the authenticated user plus the raw bearer credential, which
// is forwarded verbatim to the inference endpoint.
type Session struct {
	UserID      uuid.UUID
	AccessToken string
}

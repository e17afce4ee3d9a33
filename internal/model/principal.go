package model

import "github.com/google/uuid"

// Principal is the authenticated caller extracted from a bearer token.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     string
}

func (p Principal) IsAdmin() bool {
	return p.Role == "admin"
}

package auth

import "strings"

// Actor is the authenticated identity attached to every mutating request.
// Domain code receives it from middleware and never reads raw headers.
type Actor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	AccessLevel string `json:"accessLevel"`
	CompanyID   string `json:"companyId"`
}

func (a Actor) Valid() bool {
	return strings.TrimSpace(a.ID) != ""
}

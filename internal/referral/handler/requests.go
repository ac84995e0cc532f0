package handler

import (
	"strings"

	dErrors "creditnet/pkg/domain-errors"
)

// HTTP Request DTOs - contain JSON tags for API serialization.

type CreateInvitationRequest struct {
	InviteeEmail string `json:"invitee_email"`
	Message      string `json:"message"`
}

func (r *CreateInvitationRequest) Normalize() {
	if r == nil {
		return
	}
	r.InviteeEmail = strings.TrimSpace(strings.ToLower(r.InviteeEmail))
	r.Message = strings.TrimSpace(r.Message)
}

func (r *CreateInvitationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.InviteeEmail == "" {
		return dErrors.New(dErrors.CodeValidation, "invitee_email is required")
	}
	if !strings.Contains(r.InviteeEmail, "@") {
		return dErrors.New(dErrors.CodeValidation, "invitee_email is malformed")
	}
	return nil
}

type AcceptInvitationRequest struct {
	// Optional verification email; when supplied it must match the
	// invitation's recorded invitee email.
	Email string `json:"email"`
}

func (r *AcceptInvitationRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
}

package handler

import (
	"time"

	"creditnet/internal/referral/models"
	"creditnet/internal/referral/service"
	id "creditnet/pkg/domain"
)

type InvitationResponse struct {
	Token        string     `json:"token"`
	InviterEmail string     `json:"inviter_email"`
	InviteeEmail string     `json:"invitee_email"`
	Message      string     `json:"message,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

type InvitationListResponse struct {
	Sent     []*InvitationResponse `json:"sent"`
	Received []*InvitationResponse `json:"received"`
}

type AcceptInvitationResponse struct {
	InviterID    string `json:"inviter_id"`
	InviterEmail string `json:"inviter_email"`
}

type ReferralPathResponse struct {
	Path []string `json:"path"`
}

// Response mapping functions - convert domain objects to HTTP DTOs

func toInvitationResponse(invitation *models.Invitation) *InvitationResponse {
	return &InvitationResponse{
		Token:        invitation.Token.String(),
		InviterEmail: invitation.InviterEmail,
		InviteeEmail: invitation.InviteeEmail,
		Message:      invitation.Message,
		Status:       string(invitation.Status),
		CreatedAt:    invitation.CreatedAt,
		ExpiresAt:    invitation.ExpiresAt,
		ResolvedAt:   invitation.ResolvedAt,
	}
}

func toInvitationListResponse(view *service.InvitationsView) *InvitationListResponse {
	out := &InvitationListResponse{
		Sent:     make([]*InvitationResponse, 0, len(view.Sent)),
		Received: make([]*InvitationResponse, 0, len(view.Received)),
	}
	for _, invitation := range view.Sent {
		out.Sent = append(out.Sent, toInvitationResponse(invitation))
	}
	for _, invitation := range view.Received {
		out.Received = append(out.Received, toInvitationResponse(invitation))
	}
	return out
}

func toReferralPathResponse(path []id.IdentityID) *ReferralPathResponse {
	out := &ReferralPathResponse{Path: make([]string, 0, len(path))}
	for _, identityID := range path {
		out.Path = append(out.Path, identityID.String())
	}
	return out
}

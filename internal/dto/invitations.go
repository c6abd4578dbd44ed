package dto

// CreateInvitationRequest represents the payload to create an invitation
// link. Email is optional; when present the link is also sent by email.
type CreateInvitationRequest struct {
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// CreateInvitationResponse carries the shareable join link
type CreateInvitationResponse struct {
	ShareableLink string `json:"shareable_link"`
	ExpiresAt     string `json:"expires_at"`
}

// AcceptInvitationRequest represents the payload to redeem an invitation
type AcceptInvitationRequest struct {
	Token string `json:"token" validate:"required"`
}

// AcceptInvitationData is the data payload after redemption, used by the
// client to redirect into the joined trip.
type AcceptInvitationData struct {
	TripID string `json:"tripId"`
}

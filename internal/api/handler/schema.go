package handler

import "time"

// --- Request types ---

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"  validate:"required"`
}

type profileUpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	PhotoURL  *string `json:"photo_url"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending active disabled"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

type archiveRequest struct {
	Reason            string     `json:"reason"`
	RetentionDeleteAt *time.Time `json:"retention_delete_at"`
}

type smsStartRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type smsCompleteRequest struct {
	OTP string `json:"otp" validate:"required"`
}

type mfaChallengeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type mfaSmsStartRequest struct {
	Email          string `json:"email"           validate:"required,email"`
	ChallengeToken string `json:"challenge_token" validate:"required"`
	Phone          string `json:"phone"           validate:"required"`
}

type mfaSmsCompleteRequest struct {
	Email          string `json:"email"           validate:"required,email"`
	ChallengeToken string `json:"challenge_token" validate:"required"`
	OTP            string `json:"otp"             validate:"required"`
}

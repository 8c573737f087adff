package auth

import "github.com/dealboard/dealboard-backend/internal/users"

// SendCodeRequest asks for a login code to be emailed.
type SendCodeRequest struct {
	Email string `json:"email"`
}

// SendCodeResult carries the raw code only when echoing is enabled outside production.
type SendCodeResult struct {
	DevCode string
}

// VerifyCodeRequest exchanges an emailed code for a session.
type VerifyCodeRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	DeviceID string `json:"deviceId"`
}

// VerifyCodeResult contains the resolved user and the freshly minted tokens.
type VerifyCodeResult struct {
	User         *users.UserDTO
	IsNewUser    bool
	AccessToken  string
	RefreshToken string
}

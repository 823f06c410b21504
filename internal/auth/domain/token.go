package domain

import "time"

// TokenPair is what login, registration and refresh return: a short-lived
// access JWT and a longer-lived refresh JWT paired with a Session record.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // access token lifetime
}

// AuthResult bundles the authenticated user's public view with fresh tokens.
type AuthResult struct {
	User   PublicUser `json:"user"`
	Tokens TokenPair  `json:"tokens"`
}

// MFAEnrollment is returned by TOTP enrollment so the client can render the
// otpauth URL as a QR code.
type MFAEnrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
}

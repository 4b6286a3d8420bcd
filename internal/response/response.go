package response

// SuccessResponse is the generic success payload.
type SuccessResponse struct {
	Message string `json:"message" example:"Operation completed"`
}

// ErrorResponse is the API error payload.
type ErrorResponse struct {
	// Machine-readable error code
	// example: VALIDATION_ERROR
	Code string `json:"code"`

	// Human-readable message
	// example: Date and kind are required
	Message string `json:"message"`

	// Optional extra detail
	// example: field kind must be one of local, sent, received
	Details string `json:"details,omitempty"`
}

// TokenResponse carries the authorization token pair.
type TokenResponse struct {
	// JWT access token
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"access_token"`

	// JWT refresh token
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	RefreshToken string `json:"refresh_token"`
}

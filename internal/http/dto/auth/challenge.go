package auth

// ChallengeRequest pide un challenge de login para un fingerprint.
type ChallengeRequest struct {
	Fingerprint string `json:"fingerprint"`
}

// ChallengeResponse devuelve el challenge a firmar.
type ChallengeResponse struct {
	Challenge string `json:"challenge"`
	ExpiresAt int64  `json:"expires_at"` // unix
}

// ChallengeResult es el resultado interno del service.
type ChallengeResult struct {
	Challenge string
	ExpiresAt int64
}

package model

import "github.com/golang-jwt/jwt/v5"

// ParticipantClaims are JWT claims for respondent-scoped chat tokens.
// Tokens are issued by the upstream auth service; this service only validates.
type ParticipantClaims struct {
	ParticipantID string `json:"participantId"`
	jwt.RegisteredClaims
}

package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveychat/internal/config"
	"surveychat/internal/model"
)

func signToken(t *testing.T, secret string, claims *model.ParticipantClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateParticipantToken(t *testing.T) {
	svc := NewAuthService(&config.Config{JWTSecret: "test-secret"})

	signed := signToken(t, "test-secret", &model.ParticipantClaims{
		ParticipantID: "participant-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := svc.ValidateParticipantToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "participant-1", claims.ParticipantID)
}

func TestValidateParticipantToken_WrongSecret(t *testing.T) {
	svc := NewAuthService(&config.Config{JWTSecret: "test-secret"})

	signed := signToken(t, "other-secret", &model.ParticipantClaims{ParticipantID: "participant-1"})

	_, err := svc.ValidateParticipantToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateParticipantToken_Expired(t *testing.T) {
	svc := NewAuthService(&config.Config{JWTSecret: "test-secret"})

	signed := signToken(t, "test-secret", &model.ParticipantClaims{
		ParticipantID: "participant-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := svc.ValidateParticipantToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateParticipantToken_Garbage(t *testing.T) {
	svc := NewAuthService(&config.Config{JWTSecret: "test-secret"})

	_, err := svc.ValidateParticipantToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

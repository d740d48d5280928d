package api

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/maqsadm/maqsadm/internal/ai"
	"github.com/maqsadm/maqsadm/pkg/entity"
)

type JWTServiceI interface {
	GenerateToken(user *entity.User) (string, error)
	ParseToken(tokenString string) (*JWTClaims, error)
}

type JWTClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type AssistantI interface {
	TaskFlow(ctx context.Context, userID uuid.UUID, history []ai.Message, lang string) (*ai.FlowResult, error)
	Chat(ctx context.Context, userID uuid.UUID, history []ai.Message, lang string) (string, error)
	Analyze(ctx context.Context, user *entity.User, records []entity.CompletionRecord, lang string) (string, error)
}

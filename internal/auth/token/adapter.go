package token

import (
	"context"

	"zolo-auth/internal/platform/middleware"
)

// MiddlewareAdapter exposes the token service through the middleware's
// TokenVerifier interface.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) Verify(ctx context.Context, tokenString string) (*middleware.TokenClaims, error) {
	claims, err := a.service.Validate(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	return &middleware.TokenClaims{
		UserID:    userID,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

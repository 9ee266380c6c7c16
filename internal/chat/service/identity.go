package service

import (
	"context"
	"errors"
	"strings"

	"golang-market-chat/internal/chat/repository"
	"golang-market-chat/pkg/logger"
)

// IdentityResolver turns an Authorization header into a verified user id.
// An empty result means the caller is anonymous.
type IdentityResolver interface {
	Resolve(ctx context.Context, authorization string) string
}

type identityResolver struct {
	auth   repository.AuthRepository
	logger *logger.Logger
}

// NewIdentityResolver creates an IdentityResolver. A nil auth repository treats
// every caller as anonymous.
func NewIdentityResolver(auth repository.AuthRepository, log *logger.Logger) IdentityResolver {
	return &identityResolver{auth: auth, logger: log}
}

func (r *identityResolver) Resolve(ctx context.Context, authorization string) string {
	if r.auth == nil {
		return ""
	}

	token, ok := strings.CutPrefix(strings.TrimSpace(authorization), "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return ""
	}

	userID, err := r.auth.VerifyToken(ctx, token)
	if err != nil {
		if !errors.Is(err, repository.ErrUnauthorized) {
			r.logger.WarnContext(ctx, "Failed to verify bearer token, treating caller as anonymous", logger.ErrorField(err))
		}
		return ""
	}
	return userID
}

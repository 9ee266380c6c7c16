package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang-market-chat/internal/chat/config"
	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/pkg/logger"
)

// AuthRepository verifies bearer tokens issued by the external auth provider.
type AuthRepository interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type authRepository struct {
	cfg        *config.Config
	log        *logger.Logger
	httpClient *http.Client
}

// NewAuthRepository creates a new AuthRepository.
func NewAuthRepository(cfg *config.Config, log *logger.Logger) AuthRepository {
	return &authRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.Auth.Timeout,
		},
	}
}

// VerifyToken returns the user id the token belongs to, or ErrUnauthorized.
func (r *authRepository) VerifyToken(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.Auth.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if r.cfg.Auth.APIKey != "" {
		req.Header.Set("apikey", r.cfg.Auth.APIKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach auth provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var user dto.AuthUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("failed to decode auth user: %w", err)
	}
	if user.ID == "" {
		return "", ErrUnauthorized
	}
	return user.ID, nil
}

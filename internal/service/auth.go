// Package service contains the business logic layer: the authentication
// flow and memory orchestration. Services accept plain values and return
// domain errors — they know nothing about HTTP, and handlers know
// nothing about SQL.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/spacetime/internal/apperror"
	"github.com/sakif/spacetime/internal/auth"
	"github.com/sakif/spacetime/internal/model"
	"github.com/sakif/spacetime/internal/repository"
)

// IdentityExchanger trades an authorization code for a validated
// provider profile. Satisfied by *auth.GitHubProvider; tests substitute
// a fake so no network is involved.
type IdentityExchanger interface {
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthService orchestrates registration: code → provider profile →
// local user (find-or-create) → signed bearer token.
type AuthService struct {
	exchanger IdentityExchanger
	users     repository.UserRepository
	tokens    *auth.TokenService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with injected dependencies.
func NewAuthService(
	exchanger IdentityExchanger,
	users repository.UserRepository,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		exchanger: exchanger,
		users:     users,
		tokens:    tokens,
		logger:    logger,
	}
}

// Register turns a GitHub authorization code into a signed bearer token.
//
//  1. Exchange the code for a profile. Upstream and schema errors
//     propagate unchanged — no user is ever created from a failed
//     exchange.
//  2. Find the user by GitHub ID, creating the row on first sight.
//  3. Sign a token whose claims come from the STORED row, not the fresh
//     profile: display attributes are immutable after creation, so a
//     repeat login returns the name/avatar captured at registration.
//
// Two concurrent first logins for the same account are resolved by the
// UNIQUE constraint on github_id: the losing Create comes back as a
// conflict and we re-read the winner's row. The conflict never reaches
// the caller.
func (s *AuthService) Register(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", apperror.ValidationFailed("code", "authorization code is required")
	}

	profile, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("service/auth: exchanging code: %w", err)
	}

	user, err := s.findOrCreateUser(ctx, profile)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)

	return token, nil
}

func (s *AuthService) findOrCreateUser(ctx context.Context, profile *auth.GitHubUser) (*model.User, error) {
	user, err := s.users.GetByGitHubID(ctx, profile.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up user (githubID=%d): %w", profile.ID, err)
	}

	// First time we see this identity — create the row.
	user = &model.User{
		GitHubID:  profile.ID,
		Name:      profile.DisplayName(),
		Login:     profile.Login,
		AvatarURL: profile.AvatarURL,
	}
	err = s.users.Create(ctx, user)
	if err == nil {
		s.logger.Info("user registered",
			slog.String("userID", user.ID),
			slog.Int64("githubID", user.GitHubID),
		)
		return user, nil
	}

	// A concurrent registration for the same github_id won the insert
	// race. Recover by reading the row it created.
	if errors.Is(err, apperror.ErrConflict) {
		user, err = s.users.GetByGitHubID(ctx, profile.ID)
		if err != nil {
			return nil, fmt.Errorf("service/auth: re-reading user after conflict (githubID=%d): %w", profile.ID, err)
		}
		return user, nil
	}

	return nil, fmt.Errorf("service/auth: creating user (githubID=%d): %w", profile.ID, err)
}

// GetUserByID returns the user for an internal ID. Used by /api/me after
// the middleware has verified the token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}

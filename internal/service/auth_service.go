package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pankaj085/lotuslynx/internal/domain"
	"github.com/pankaj085/lotuslynx/internal/password"
	"github.com/pankaj085/lotuslynx/internal/repository"
	"github.com/pankaj085/lotuslynx/internal/token"
)

const minPasswordLength = 8

// AuthService encapsulates account registration and token flows.
type AuthService struct {
	users     repository.UserRepository
	hasher    password.Hasher
	codec     *token.Codec
	snowflake *snowflake.Node
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewAuthService wires dependencies.
func NewAuthService(users repository.UserRepository, hasher password.Hasher, codec *token.Codec, node *snowflake.Node, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		hasher:    hasher,
		codec:     codec,
		snowflake: node,
		logger:    logger,
		tracer:    otel.Tracer("github.com/pankaj085/lotuslynx/internal/service"),
	}
}

// Register creates a new account with the lowest role.
func (s *AuthService) Register(ctx context.Context, username, email, plaintext string) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Register")
	defer span.End()

	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" {
		return domain.User{}, invalidRequest("Username is required.")
	}
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, invalidRequest("A valid email is required.")
	}
	if len(plaintext) < minPasswordLength {
		return domain.User{}, invalidRequest(fmt.Sprintf("Password must be at least %d characters.", minPasswordLength))
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, domain.User{
		ID:           s.snowflake.Generate().Int64(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, repository.ErrUsernameTaken):
			return domain.User{}, ErrUsernameTaken
		case errors.Is(err, repository.ErrEmailTaken):
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	s.audit("user.registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate checks a username/password pair. Lookups for unknown
// usernames still burn a hash comparison so response timing does not
// reveal which usernames exist.
func (s *AuthService) Authenticate(ctx context.Context, username, plaintext string) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Authenticate")
	defer span.End()

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.hasher.VerifyDummy(plaintext)
			return domain.User{}, ErrInvalidCredentials
		}
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and mints a fresh token pair.
func (s *AuthService) Login(ctx context.Context, username, plaintext string) (*TokenResponse, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.Authenticate(ctx, username, plaintext)
	if err != nil {
		return nil, err
	}
	if user.Disabled {
		return nil, ErrAccountDisabled
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.audit("login.success", "user_id", user.ID, "username", user.Username)
	return resp, nil
}

// Refresh redeems a refresh token for a new token pair. Every redemption
// returns a distinct pair, so the caller can discard the old one.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Refresh")
	defer span.End()

	claims, err := s.codec.Decode(refreshToken)
	if err != nil || claims.Kind != token.KindRefresh {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		span.RecordError(err)
		return nil, fmt.Errorf("refresh load user: %w", err)
	}
	if user.Disabled {
		return nil, ErrAccountDisabled
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.audit("refresh.success", "user_id", user.ID)
	return resp, nil
}

// Resolve maps a bearer access token to the account it names. Refresh
// tokens never authenticate a request.
func (s *AuthService) Resolve(ctx context.Context, accessToken string) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Resolve")
	defer span.End()

	claims, err := s.codec.Decode(accessToken)
	if err != nil || claims.Kind != token.KindAccess {
		return domain.User{}, ErrUnauthenticated
	}

	user, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUnauthenticated
		}
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("resolve user: %w", err)
	}
	return user, nil
}

// ResolveActive is Resolve restricted to enabled accounts.
func (s *AuthService) ResolveActive(ctx context.Context, accessToken string) (domain.User, error) {
	user, err := s.Resolve(ctx, accessToken)
	if err != nil {
		return domain.User{}, err
	}
	if user.Disabled {
		return domain.User{}, ErrAccountDisabled
	}
	return user, nil
}

func (s *AuthService) issueTokens(user domain.User) (*TokenResponse, error) {
	pair, err := s.codec.IssuePair(user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *AuthService) audit(event string, attrs ...any) {
	logger := s.log()
	if logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", time.Now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}

func (s *AuthService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/domain"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/event"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/repository"
	apperrors "github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/errors"
)

// ViewForgetter drops per-session cart state. *CartService implements it.
type ViewForgetter interface {
	Forget(sessionID string)
}

// SessionService implements the login/logout lifecycle.
type SessionService struct {
	api    ShopAPI
	repo   repository.SessionRepository
	views  ViewForgetter
	events EventPublisher
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionService creates a new session service. ttl applies when the API
// token carries no expiry.
func NewSessionService(api ShopAPI, repo repository.SessionRepository, views ViewForgetter, events EventPublisher, logger *slog.Logger, ttl time.Duration) *SessionService {
	return &SessionService{
		api:    api,
		repo:   repo,
		views:  views,
		events: events,
		logger: logger,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Login authenticates against the shop API and opens a session.
func (s *SessionService) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.InvalidInput("username is required")
	}
	if password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	res, err := s.api.Login(ctx, username, password)
	if err != nil {
		sessionsTotal.WithLabelValues("login_failed").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	if exp, ok := tokenExpiry(res.Token); ok {
		if !exp.After(now) {
			return nil, apperrors.Upstream("shop-api", "login returned an expired token")
		}
		expiresAt = exp
	}

	sess := &domain.Session{
		ID:        uuid.New().String(),
		Token:     res.Token,
		ProfileID: res.ProfileID.String(),
		Username:  username,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	sessionsTotal.WithLabelValues("login").Inc()

	data := event.SessionData{SessionID: sess.ID, ProfileID: sess.ProfileID, Username: username}
	if err := s.events.PublishSessionStarted(ctx, data); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish session.started event",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "session opened",
		slog.String("session_id", sess.ID),
		slog.String("profile_id", sess.ProfileID),
		slog.Time("expires_at", sess.ExpiresAt),
	)

	return sess, nil
}

// Authenticate resolves a session ID. Missing and expired sessions are
// reported as unauthorized and their cart views dropped.
func (s *SessionService) Authenticate(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, apperrors.Unauthorized("missing session")
	}

	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.views.Forget(sessionID)
			return nil, apperrors.Unauthorized("session expired or invalid")
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.Expired(s.now()) {
		s.views.Forget(sessionID)
		return nil, apperrors.Unauthorized("session expired or invalid")
	}

	return sess, nil
}

// Logout closes a session. Logging out of an unknown session succeeds. The
// remote logout is best effort.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.views.Forget(sessionID)
			return nil
		}
		return fmt.Errorf("get session: %w", err)
	}

	if err := s.api.Logout(ctx, sess.Token); err != nil {
		s.logger.WarnContext(ctx, "remote logout failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.views.Forget(sessionID)
	sessionsTotal.WithLabelValues("logout").Inc()

	data := event.SessionData{SessionID: sess.ID, ProfileID: sess.ProfileID, Username: sess.Username}
	if err := s.events.PublishSessionEnded(ctx, data); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish session.ended event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "session closed",
		slog.String("session_id", sessionID),
		slog.String("profile_id", sess.ProfileID),
	)

	return nil
}

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
// The shop API owns verification.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0).UTC(), true
	case json.Number:
		v, err := exp.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(v, 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

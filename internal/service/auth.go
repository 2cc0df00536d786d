package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"hydraimport/internal/repository"
)

// Login checks the password of username and opens a session
func (s *PersistenceService) Login(ctx context.Context, username, password string) (string, error) {
	hash, err := s.repo.GetPasswordHash(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", errUnauthorized
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		s.log.Warn("login rejected", zap.String("user", username))
		return "", errUnauthorized
	}

	sessionID := uuid.NewString()
	if err := s.repo.CreateSession(ctx, sessionID, username, s.now().Add(s.sessionTTL)); err != nil {
		return "", err
	}

	s.log.Info("session opened", zap.String("user", username))
	s.eventBus.Publish(Event{
		Type:    EventSessionOpened,
		Payload: map[string]string{"user": username},
	})
	return sessionID, nil
}

// Authenticate returns the user that owns a live session
func (s *PersistenceService) Authenticate(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", &Error{Code: CodeUnauthorized, Message: "session id is required"}
	}
	username, expires, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", &Error{Code: CodeUnauthorized, Message: "unknown session"}
		}
		return "", err
	}
	if !s.now().Before(expires) {
		return "", &Error{Code: CodeUnauthorized, Message: "session expired"}
	}
	return username, nil
}

// EnsureUser creates username with password unless the user already
// exists. An existing user keeps its password.
func (s *PersistenceService) EnsureUser(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return invalid("username and password are required")
	}
	_, err := s.repo.GetPasswordHash(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.CreateUser(ctx, username, hash); err != nil {
		return err
	}

	s.log.Info("user created", zap.String("user", username))
	s.eventBus.Publish(Event{
		Type:    EventUserCreated,
		Payload: map[string]string{"user": username},
	})
	return nil
}

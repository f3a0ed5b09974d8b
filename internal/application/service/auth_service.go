package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/garyjia/firm-portal/internal/application/dispatcher"
	"github.com/garyjia/firm-portal/internal/application/session"
	"github.com/garyjia/firm-portal/internal/domain/entity"
	"github.com/garyjia/firm-portal/internal/infrastructure/httpclient"
)

// AuthService signs staff in and out of the cms and leave portals
type AuthService interface {
	Login(ctx context.Context, form entity.LoginForm) (*entity.Session, error)
	Refresh(ctx context.Context, scope entity.Scope) (*entity.Session, error)
	Logout(ctx context.Context, scope entity.Scope) error
}

type authResponse struct {
	AccessToken string              `json:"accessToken"`
	User        *entity.StaffMember `json:"user,omitempty"`
}

type authServiceImpl struct {
	backend
	sessions *session.Manager
}

// NewAuthService creates a new AuthService
func NewAuthService(client *httpclient.Client, sessions *session.Manager, events dispatcher.Dispatcher, logger Logger) AuthService {
	return &authServiceImpl{
		backend:  backend{client: client, events: events, logger: logger},
		sessions: sessions,
	}
}

func (s *authServiceImpl) Login(ctx context.Context, form entity.LoginForm) (*entity.Session, error) {
	if err := entity.Validate(form); err != nil {
		return nil, err
	}

	var resp authResponse
	req := httpclient.Request{Method: http.MethodPost, Path: "/api/auth/login", Body: form}
	if err := s.call(ctx, "", req, &resp); err != nil {
		s.logger.Error("Login failed", "scope", form.Scope, "email", form.Email, "error", err)
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("login response has no access token")
	}

	sess, err := s.sessions.Login(ctx, form.Scope, resp.AccessToken, resp.User)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Logged in", "scope", form.Scope, "email", form.Email)
	return sess, nil
}

func (s *authServiceImpl) Refresh(ctx context.Context, scope entity.Scope) (*entity.Session, error) {
	var resp authResponse
	req := httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/refresh",
		Body:   map[string]entity.Scope{"scope": scope},
	}
	if err := s.call(ctx, scope, req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("refresh response has no access token")
	}

	if err := s.sessions.UpdateToken(ctx, scope, resp.AccessToken); err != nil {
		return nil, err
	}
	sess, _ := s.sessions.Current(scope)
	return sess, nil
}

// Logout clears the local session even when the backend call fails
func (s *authServiceImpl) Logout(ctx context.Context, scope entity.Scope) error {
	req := httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/logout",
		Body:   map[string]entity.Scope{"scope": scope},
	}
	callErr := s.call(ctx, scope, req, nil)
	if callErr != nil {
		s.logger.Error("Logout call failed, clearing session anyway", "scope", scope, "error", callErr)
	}

	if err := s.sessions.Clear(ctx, scope); err != nil {
		return err
	}
	s.logger.Info("Logged out", "scope", scope)
	return nil
}

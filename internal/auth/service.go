package auth

import (
	"context"
	"fmt"
	"strings"

	pkgAuth "github.com/angelmondragon/pdv-terminal/pkg/auth"
	pkgerrors "github.com/angelmondragon/pdv-terminal/pkg/errors"
	"github.com/angelmondragon/pdv-terminal/pkg/logger"
	"github.com/angelmondragon/pdv-terminal/pkg/pdvapi"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	tokenTypeBearer           = "bearer"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Me(ctx context.Context) (*pdvapi.User, error)
}

type upstream interface {
	Login(ctx context.Context, req pdvapi.LoginRequest) (*pdvapi.LoginResponse, error)
	Me(ctx context.Context) (*pdvapi.User, error)
}

type service struct {
	api  upstream
	logg *logger.Logger
}

// NewService constructs a login service backed by the PDV API.
func NewService(api upstream, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("pdv api client is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{api: api, logg: logg}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	ctx = s.logg.WithField(ctx, "username", username)
	out, err := s.api.Login(ctx, pdvapi.LoginRequest{Username: username, Password: req.Password})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			s.logg.Warn(s.logg.WithField(ctx, "event", "auth.login_rejected"), "login rejected")
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, invalidCredentialsMessage)
		}
		return nil, err
	}

	resp := &LoginResponse{
		AccessToken: out.AccessToken,
		TokenType:   tokenTypeBearer,
		User:        out.User,
	}
	if claims, inspectErr := pkgAuth.Inspect(out.AccessToken); inspectErr == nil && claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		resp.ExpiresAt = &exp
	}

	s.logg.Info(s.logg.WithField(ctx, "event", "auth.login"), "operator logged in")
	return resp, nil
}

func (s *service) Me(ctx context.Context) (*pdvapi.User, error) {
	return s.api.Me(ctx)
}

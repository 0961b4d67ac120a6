package service

import (
	"context"
	"errors"

	"costlens/internal/dto"
	"costlens/pkg/auth"

	"go.uber.org/zap"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// operatorSubject is the token subject of the single dashboard operator.
const operatorSubject = "admin"

type AuthService struct {
	jwtManager   *auth.JWTManager
	passwordHash string
	logger       *zap.Logger
}

func NewAuthService(jwtManager *auth.JWTManager, passwordHash string, logger *zap.Logger) *AuthService {
	return &AuthService{
		jwtManager:   jwtManager,
		passwordHash: passwordHash,
		logger:       logger,
	}
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if req.Password == "" || !auth.CheckPasswordHash(req.Password, s.passwordHash) {
		s.logger.Warn("Rejected login attempt")
		return nil, ErrInvalidCredentials
	}
	return s.issue()
}

// RefreshToken trades a valid refresh token for a new token pair.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if claims.TokenType != auth.TokenTypeRefresh || claims.Subject != operatorSubject {
		return nil, ErrInvalidCredentials
	}
	return s.issue()
}

func (s *AuthService) issue() (*dto.AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateToken(operatorSubject)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(operatorSubject)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtManager.GetTokenDuration().Seconds()),
	}, nil
}

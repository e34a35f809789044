package usecase

import (
	"context"

	authdomain "mailchat-backend/internal/auth/domain"
	authdto "mailchat-backend/internal/auth/dto"
)

// AuthUsecase defines the interface for authentication operations
type AuthUsecase interface {
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	GoogleAuthURL(state string) string
	GoogleCallback(ctx context.Context, code string) (*authdto.TokenResponse, error)
	IMAPLogin(ctx context.Context, req *authdto.IMAPLoginRequest) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(tokenString string) (*authdomain.User, error)
}

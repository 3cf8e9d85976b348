package dto

import (
	"campusbook/infras/jwt"
	userModel "campusbook/internal/domains/user/model"
	userDto "campusbook/internal/domains/user/model/dto"
	"campusbook/shared/constant"
	gModel "campusbook/shared/model"
	"campusbook/shared/timezone"
	"strings"

	"github.com/google/uuid"
)

// RegisterRequest is the self-service sign up; admins are only created by other admins.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=100"`
	Email    string `json:"email"    validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"     validate:"required,oneof=staff student"`
}

func (r *RegisterRequest) ToUserModel(hashedPassword string) userModel.User {
	id := uuid.NewString()

	return userModel.User{
		ID:       id,
		Name:     strings.TrimSpace(r.Name),
		Email:    strings.ToLower(r.Email),
		Password: hashedPassword,
		Role:     r.Role,
		Status:   constant.UserStatusActive,
		Metadata: gModel.NewMetadata(timezone.Now(), id),
	}
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (t *TokenResponse) FromTokenPair(tokenPair *jwt.TokenPair) {
	t.AccessToken = tokenPair.AccessToken
	t.RefreshToken = tokenPair.RefreshToken
	t.TokenType = tokenPair.TokenType
	t.ExpiresIn = tokenPair.ExpiresIn
}

// RegisterResponse is the account created by self-service sign up.
type RegisterResponse = userDto.UserResponse

// LoginResponse carries the signed-in user alongside the token pair.
type LoginResponse struct {
	User userDto.UserResponse `json:"user"`
	TokenResponse
}

func (l *LoginResponse) FromModel(user userModel.User, tokenPair *jwt.TokenPair) {
	l.User.FromModel(user)
	l.FromTokenPair(tokenPair)
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,nefield=CurrentPassword"`
}

type UpdatePasswordRequest struct {
	Password string `db:"password" json:"password" validate:"required,min=8"`
}

// SessionResponse describes the caller and what the policy lets them do.
type SessionResponse struct {
	UserID       string   `json:"user_id"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities"`
}

// Package dto define los shapes de request/response del API público.
package dto

import "github.com/thedevkitchen/apigateway/internal/store/core"

type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

type RevokeRequest struct {
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LogoutRequest struct {
	SessionID string `json:"session_id"`
}

// User es la vista pública de un usuario: nunca expone el hash.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func UserFrom(u *core.User) User {
	return User{ID: u.ID, Name: u.Name, Email: u.Email}
}

type LoginResponse struct {
	SessionID string `json:"session_id"`
	User      User   `json:"user"`
}

type MeResponse struct {
	User User `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

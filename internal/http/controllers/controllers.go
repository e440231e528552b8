// Package controllers traduce HTTP a llamadas de servicio y de vuelta.
// Acá no vive lógica de negocio: parseo, delegación y serialización.
package controllers

import (
	"github.com/thedevkitchen/apigateway/internal/oauth"
	"github.com/thedevkitchen/apigateway/internal/session"
	"github.com/thedevkitchen/apigateway/internal/store/core"
)

type Controllers struct {
	Auth   *Auth
	Users  *Users
	Health *Health
}

func New(grant *oauth.Grant, sessions *session.Manager, repo core.Repository) *Controllers {
	return &Controllers{
		Auth:   &Auth{grant: grant},
		Users:  &Users{sessions: sessions},
		Health: &Health{repo: repo},
	}
}

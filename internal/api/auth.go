package api

import (
	"context"
	"net/http"
	"net/url"

	"artisan_storefront/internal/models"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,strong_password"`
}

// MessageResponse couvre les réponses {"message": "..."} du backend
type MessageResponse struct {
	Message string `json:"message"`
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (models.AuthSession, error) {
	var session models.AuthSession
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, "", req, &session)
	return session, err
}

// Register crée le compte ; la connexion n'a lieu qu'après vérification de l'email
func (c *Client) Register(ctx context.Context, req RegisterRequest) (MessageResponse, error) {
	var resp MessageResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", nil, "", req, &resp)
	return resp, err
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (MessageResponse, error) {
	var resp MessageResponse
	err := c.do(ctx, http.MethodGet, "/auth/verify-email", url.Values{"token": {token}}, "", nil, &resp)
	return resp, err
}

// GoogleOAuthURL est l'adresse vers laquelle rediriger le navigateur ;
// le backend renvoie ensuite vers le callback avec token et user en query.
func (c *Client) GoogleOAuthURL() string {
	return c.baseURL + "/auth/oauth/google"
}

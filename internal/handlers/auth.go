package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"artisan_storefront/internal/api"
	"artisan_storefront/internal/middleware"
	"artisan_storefront/internal/models"
	"artisan_storefront/internal/state"
	"artisan_storefront/internal/validation"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// AuthBackend regroupe les appels d'authentification ; *api.Client le satisfait.
type AuthBackend interface {
	Login(ctx context.Context, req api.LoginRequest) (models.AuthSession, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.MessageResponse, error)
	VerifyEmail(ctx context.Context, token string) (api.MessageResponse, error)
	GoogleOAuthURL() string
}

type AuthHandler struct {
	backend     AuthBackend
	frontendURL string
}

func NewAuthHandler(backend AuthBackend, frontendURL string) *AuthHandler {
	return &AuthHandler{backend: backend, frontendURL: frontendURL}
}

type registerInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,strong_password"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email et mot de passe requis")
		return
	}

	ctx := c.Request.Context()
	s := middleware.AppState(c)
	s.DispatchAuth(ctx, state.LoginStarted{})

	session, err := h.backend.Login(ctx, req)
	if err != nil {
		s.DispatchAuth(ctx, state.LoginFailed{Message: api.UserMessage(err)})
		respondBackendError(c, err)
		return
	}

	auth := s.DispatchAuth(ctx, state.LoginSucceeded{Session: session})
	log.WithFields(log.Fields{"session_id": s.SessionID, "user_id": session.User.ID}).Info("✅ Connexion réussie")

	c.JSON(http.StatusOK, gin.H{"message": "Connexion réussie", "user": auth.User})
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var input registerInput
	err := c.ShouldBindJSON(&input)
	fields := validation.ValidateRegistration(input.Name, input.Email, input.Password)
	if bindFields, ok := bindingErrors(err, fields); ok {
		respondFieldErrors(c, "Formulaire invalide", bindFields)
		return
	}
	if err != nil {
		respondError(c, http.StatusBadRequest, "Données invalides")
		return
	}
	if len(fields) > 0 {
		respondFieldErrors(c, "Formulaire invalide", fields)
		return
	}

	resp, err := h.backend.Register(c.Request.Context(), api.RegisterRequest(input))
	if err != nil {
		respondBackendError(c, err)
		return
	}

	message := resp.Message
	if message == "" {
		message = "Compte créé, vérifiez votre boîte mail"
	}
	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// GET /api/auth/verify-email?token=
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondError(c, http.StatusBadRequest, "Token de vérification manquant")
		return
	}

	resp, err := h.backend.VerifyEmail(c.Request.Context(), token)
	if err != nil {
		respondBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": resp.Message})
}

// GET /api/auth/google
func (h *AuthHandler) GoogleRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, h.backend.GoogleOAuthURL())
}

// GET /api/auth/oauth/callback?token=...&user=<json>
// Le backend y renvoie le navigateur après Google ; on ouvre la session puis on
// redirige vers le front.
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	ctx := c.Request.Context()
	s := middleware.AppState(c)

	if reason := c.Query("error"); reason != "" {
		s.DispatchAuth(ctx, state.LoginFailed{Message: "Connexion Google refusée"})
		h.redirectFront(c, "/login", url.Values{"error": {"oauth_failed"}})
		return
	}

	session, ok := oauthSession(c)
	if !ok {
		s.DispatchAuth(ctx, state.LoginFailed{Message: "Réponse OAuth invalide"})
		h.redirectFront(c, "/login", url.Values{"error": {"oauth_invalid"}})
		return
	}

	s.DispatchAuth(ctx, state.LoginSucceeded{Session: session})
	log.WithFields(log.Fields{"session_id": s.SessionID, "user_id": session.User.ID}).Info("✅ Connexion OAuth réussie")
	h.redirectFront(c, "/", nil)
}

// oauthSession accepte soit user=<json>, soit les champs à plat (id, email, name, role)
func oauthSession(c *gin.Context) (models.AuthSession, bool) {
	session := models.AuthSession{Token: c.Query("token")}
	if session.Token == "" {
		return session, false
	}

	if raw := c.Query("user"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &session.User); err != nil {
			log.Warnf("⚠️ user OAuth illisible: %v", err)
			return session, false
		}
	} else {
		session.User = models.User{
			ID:    c.Query("id"),
			Email: c.Query("email"),
			Name:  c.Query("name"),
			Role:  c.Query("role"),
		}
	}
	if session.User.Provider == "" {
		session.User.Provider = "google"
	}

	return session, session.User.ID != "" && session.User.Email != ""
}

func (h *AuthHandler) redirectFront(c *gin.Context, path string, query url.Values) {
	target := h.frontendURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	c.Redirect(http.StatusFound, target)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.AppState(c).DispatchAuth(c.Request.Context(), state.Logout{})
	c.JSON(http.StatusOK, gin.H{"message": "Déconnecté"})
}

// GET /api/auth/me (connexion requise)
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.AppState(c).Auth().User})
}

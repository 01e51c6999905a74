package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/sony/gobreaker/v2"
)

// Error est une réponse non-2xx du backend
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

func newError(status int, body []byte) *Error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)

	msg := payload.Message
	if msg == "" {
		msg = payload.Error
	}
	return &Error{Status: status, Message: strings.TrimSpace(msg)}
}

// IsStatus indique si err est une erreur backend avec ce code HTTP
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// UserMessage traduit une erreur d'appel en message affichable
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusUnauthorized:
			if apiErr.Message != "" {
				return apiErr.Message
			}
			return "Session expirée, veuillez vous reconnecter"
		case apiErr.Status >= http.StatusInternalServerError:
			return "Le serveur est indisponible, réessayez plus tard"
		case apiErr.Message != "":
			return apiErr.Message
		case apiErr.Status == http.StatusNotFound:
			return "Ressource introuvable"
		case apiErr.Status == http.StatusForbidden:
			return "Accès refusé"
		default:
			return "Requête invalide"
		}
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "Service temporairement indisponible, réessayez dans un instant"
	case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
		return "Le serveur met trop de temps à répondre"
	case errors.Is(err, context.Canceled):
		return "Requête annulée"
	}
	return "Erreur réseau, vérifiez votre connexion"
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

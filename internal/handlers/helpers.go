package handlers

import (
	"errors"
	"net/http"

	"artisan_storefront/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func respondFieldErrors(c *gin.Context, message string, fields map[string]string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "fields": fields})
}

// bindingErrors convertit un échec des tags binding en erreurs par champ.
// Les messages de messages priment ; un champ sans message reçoit un libellé générique.
func bindingErrors(err error, messages map[string]string) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	fields := make(map[string]string, len(verrs)+len(messages))
	for field, message := range messages {
		fields[field] = message
	}
	for _, fe := range verrs {
		if _, ok := fields[fe.Field()]; !ok {
			fields[fe.Field()] = "Valeur invalide"
		}
	}
	return fields, true
}

// respondBackendError relaie les 4xx du backend tels quels ; le reste devient 502.
func respondBackendError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		status = apiErr.Status
	}
	respondError(c, status, api.UserMessage(err))
}

// variantParam lit ?variant_id= ; absent ou vide signifie "sans variante"
func variantParam(c *gin.Context) *string {
	if v := c.Query("variant_id"); v != "" {
		return &v
	}
	return nil
}

package middleware

import (
	"net/http"
	"time"

	"artisan_storefront/internal/state"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	log "github.com/sirupsen/logrus"
)

const (
	SessionCookieName = "storefront_session"
	sessionIDKey      = "sid"
	sessionMaxAge     = 30 * 24 * time.Hour

	ContextSessionID = "session_id"
	ContextAppState  = "app_state"
)

// NewCookieStore construit le store de cookies signés qui porte l'identifiant de session
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Session attache l'AppState du navigateur au contexte gin, en créant la
// session (et son cookie) à la première visite.
func Session(store sessions.Store, registry *state.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := store.Get(c.Request, SessionCookieName)
		if err != nil {
			log.Warnf("⚠️ Cookie de session illisible, nouvelle session: %v", err)
		}

		sid, _ := sess.Values[sessionIDKey].(string)
		if sid == "" {
			sid = uuid.NewString()
			sess.Values[sessionIDKey] = sid
			if err := sess.Save(c.Request, c.Writer); err != nil {
				log.Errorf("❌ Écriture du cookie de session: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Session indisponible"})
				c.Abort()
				return
			}
			log.WithField("session_id", sid).Debug("Nouvelle session")
		}

		c.Set(ContextSessionID, sid)
		c.Set(ContextAppState, registry.Get(c.Request.Context(), sid))
		c.Next()
	}
}

// AppState renvoie l'état de la session courante ; Session doit avoir été exécuté.
func AppState(c *gin.Context) *state.AppState {
	s, _ := c.MustGet(ContextAppState).(*state.AppState)
	return s
}

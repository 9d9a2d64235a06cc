// Package middleware: gin middleware: идентичность актора, request id,
// журнал запросов, Prometheus-метрики.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/complaint-service/internal/apierr"
	"github.com/psds-microservice/complaint-service/internal/identity"
)

const actorKey = "complaint.actor"

// TokenParser проверяет bearer-токен и возвращает актора.
type TokenParser interface {
	Parse(raw string) (identity.Actor, error)
}

// Authenticate кладёт актора в контекст. Нет заголовка — анонимный актор,
// неверный токен — 401.
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(actorKey, identity.Anonymous())
			c.Next()
			return
		}
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			apierr.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "authorization header must be: Bearer <token>")
			return
		}
		actor, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			apierr.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "invalid or expired token")
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom возвращает актора запроса; без Authenticate — анонимный.
func ActorFrom(c *gin.Context) identity.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(identity.Actor); ok {
			return a
		}
	}
	return identity.Anonymous()
}

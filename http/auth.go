package http

import (
	"net/http"
	"strings"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/Hrei2/ticket-system/entity"
)

const actorContextKey = "actor"

// ActorClaims are the claims of an access token: the subject is the actor id.
type ActorClaims struct {
	Role entity.Role `json:"role"`
	jwt.RegisteredClaims
}

func authenticate(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			var claims ActorClaims
			_, err := jwt.ParseWithClaims(
				tokenString,
				&claims,
				func(t *jwt.Token) (any, error) {
					return secret, nil
				},
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			)
			if err != nil {
				log.FromContext(c.Request().Context()).WithError(err).Debug("Rejected access token")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			actor := entity.Actor{ID: claims.Subject, Role: claims.Role}
			if actor.ID == "" || !actor.Role.Valid() {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
			}

			c.Set(actorContextKey, actor)

			ctx := c.Request().Context()
			ctx = log.ToContext(ctx, log.FromContext(ctx).WithField("actor", actor.ID))
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func requireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !lo.Contains(roles, actorFromContext(c).Role) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

func actorFromContext(c echo.Context) entity.Actor {
	actor, _ := c.Get(actorContextKey).(entity.Actor)
	return actor
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/event-pickup/internal/api/middleware"
	"github.com/99minutos/event-pickup/internal/core/domain"
)

// ctxClaims extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call:
//   - role must be non-empty (presence proves the middleware ran).
//   - subscriber role requires a non-empty subscriber_id; without it the
//     token cannot be tied to a pickup, so it is rejected with 401.
func ctxClaims(c echo.Context) (role, subscriberID string, err error) {
	role, _ = c.Get(middleware.CtxRole).(string)
	if role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	subscriberID, _ = c.Get(middleware.CtxSubscriberID).(string)
	if role == domain.RoleSubscriber && subscriberID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "token missing subscriber identity")
	}

	return role, subscriberID, nil
}

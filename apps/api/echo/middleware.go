package echoapi

import (
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/bmwamba/darasa/core/user"
	"github.com/bmwamba/darasa/core/visit"
)

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// activeUserMiddleware resolves the authenticated user behind the verified
// token and rejects deactivated accounts.
func activeUserMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return err
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			return next(ctx)
		}
	}
}

// visitTrackerMiddleware records every request off the hot path. The user
// is attributed on a best-effort basis: a bad or absent token never blocks
// the request here.
func visitTrackerMiddleware(svc *visit.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()
			v := visit.Visit{
				Path:      req.URL.Path,
				Method:    req.Method,
				IP:        ctx.RealIP(),
				UserAgent: req.UserAgent(),
			}
			if id := userIDFromHeader(req.Header.Get(echo.HeaderAuthorization)); id != "" {
				v.UserID = null.StringFrom(id)
			}
			svc.Track(v)
			return next(ctx)
		}
	}
}

func userIDFromHeader(header string) string {
	const scheme = "Bearer "
	if !strings.HasPrefix(header, scheme) {
		return ""
	}
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, scheme), claims, func(t *jwt.Token) (interface{}, error) {
		return appJWTConfig.SigningKey, nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	return claims.Subject
}

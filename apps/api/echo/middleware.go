package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ongoza/cyberhub/core/onboarding"
)

const contextSessionKey = "session"

func adminMiddleware(auth *authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := auth.contextClaims(ctx)
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

// sessionOwnerMiddleware loads the :id session; sessions of other users are not found.
func sessionOwnerMiddleware(auth *authenticator, svc *onboarding.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			userID, err := auth.contextUserID(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			sess, err := svc.Get(ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == onboarding.ErrSessionNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding onboarding session")
			}
			if sess.UserID() != userID {
				return errHttpNotFound
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

func contextSession(ctx echo.Context) (*onboarding.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(*onboarding.Session); ok {
		return sess, nil
	}
	return nil, errors.New("onboarding session not found in echo.Context")
}

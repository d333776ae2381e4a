package echoapi

import (
	"context"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/user"
	"github.com/trezcool/studyplanner/services/metrics"
	"github.com/trezcool/studyplanner/services/ratelimit"
)

// roleMiddleware lets through users holding any of roles.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, err := getContextClaims(ctx); err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(user.AdminRoles...)
}

func advisorMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(user.AdvisorRoles...)
}

// activeUserMiddleware loads the token's user into the context and rejects deactivated accounts.
func activeUserMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			return next(ctx)
		}
	}
}

// rateLimitMiddleware throttles a route per client IP.
// Limiter errors are logged and the request goes through.
func rateLimitMiddleware(limiter ratelimit.Limiter, scope string, logger core.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if limiter == nil {
				return next(ctx)
			}
			allowed, retryAfter, err := limiter.Allow(ctx.Request().Context(), scope+":"+ctx.RealIP())
			if err != nil {
				logger.Warn("ratelimit: check failed", errors.Wrap(err, scope))
				return next(ctx)
			}
			if !allowed {
				if m != nil {
					m.RateLimited(scope)
				}
				ctx.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				return errTooManyRequests
			}
			return next(ctx)
		}
	}
}

const contextObjectKey = "object"

var errObjNotFoundInCtx = errors.New("object not found in echo.Context")

// objectMiddleware loads the object named by the `:id` param with get and stores it in the context.
// Objects the user does not own are reported as not found by get.
func objectMiddleware[T any](svc user.ServiceInterface, get func(ctx context.Context, usr user.User, id string) (T, error)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			obj, err := get(ctx.Request().Context(), usr, ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "loading object")
			}
			ctx.Set(contextObjectKey, obj)
			return next(ctx)
		}
	}
}

func contextObject[T any](ctx echo.Context) (T, error) {
	obj, ok := ctx.Get(contextObjectKey).(T)
	if !ok {
		return obj, errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	return obj, nil
}

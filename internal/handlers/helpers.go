package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/anonto42/lumina/backend/internal/cache"
	"github.com/anonto42/lumina/backend/internal/middleware"
	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/moderation"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const backgroundTimeout = 10 * time.Second

// ContentModerator screens user text before it is stored
type ContentModerator interface {
	Check(ctx context.Context, text string, meta moderation.Meta) moderation.Decision
}

// Cooldowns rate limits write actions per user
type Cooldowns interface {
	Acquire(ctx context.Context, scope string, userID uint, ttl time.Duration) (bool, time.Duration, error)
	Release(ctx context.Context, scope string, userID uint)
}

func getClaims(c echo.Context) *models.JwtCustomClaims {
	claims, _ := c.Get(middleware.UserContextKey).(*models.JwtCustomClaims)
	return claims
}

// getUserIDFromContext returns 0 for anonymous requests
func getUserIDFromContext(c echo.Context) uint {
	if claims := getClaims(c); claims != nil {
		return claims.UserID
	}
	return 0
}

func isAdmin(c echo.Context) bool {
	claims := getClaims(c)
	return claims != nil && claims.Role == models.RoleAdmin
}

func parseIDParam(c echo.Context, name, what string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+what+" ID")
	}
	return uint(id), nil
}

func pageParams(c echo.Context, defaultLimit, maxLimit int) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	return page, limit
}

func paginationMeta(page, limit int, total int64) echo.Map {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return echo.Map{
		"currentPage":     page,
		"totalPages":      totalPages,
		"totalItems":      total,
		"itemsPerPage":    limit,
		"hasNextPage":     page < totalPages,
		"hasPreviousPage": page > 1,
	}
}

func success(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

// repoError maps repository sentinels onto HTTP errors
func repoError(err error, what string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, what+" not found")
	case errors.Is(err, repositories.ErrInvalidID):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid "+what+" ID")
	case errors.Is(err, repositories.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, what+" already exists")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// moderate rejects text the moderator blocks
func moderate(c echo.Context, m ContentModerator, text string) error {
	d := m.Check(c.Request().Context(), text, moderation.Meta{UserID: getUserIDFromContext(c), IP: c.RealIP()})
	if !d.Allowed {
		return echo.NewHTTPError(http.StatusBadRequest, d.Reason)
	}
	return nil
}

// lastActionFunc reports when the user last performed a cooldown-guarded action
type lastActionFunc func(ctx context.Context, userID uint) (time.Time, error)

// acquireCooldown returns a 429 when the user acted too recently. Admins are exempt.
// When the cooldown store is unreachable, last (if given) decides from stored data instead.
// The returned release func undoes the cooldown when the guarded action fails.
func acquireCooldown(c echo.Context, cd Cooldowns, scope string, ttl time.Duration, action string, last lastActionFunc) (func(), error) {
	noop := func() {}
	if isAdmin(c) {
		return noop, nil
	}
	ctx := c.Request().Context()
	userID := getUserIDFromContext(c)

	ok, left, err := cd.Acquire(ctx, scope, userID, ttl)
	if err != nil && last != nil {
		if at, lerr := last(ctx, userID); lerr == nil {
			if since := time.Since(at); since < ttl {
				ok, left = false, ttl-since
			}
		}
	}
	if !ok {
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(left.Seconds()))))
		return noop, echo.NewHTTPError(http.StatusTooManyRequests, cache.WaitMessage(left, action))
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		cd.Release(ctx, scope, userID)
	}, nil
}

// background runs fn detached from the request. Failures are only logged.
func background(log zerolog.Logger, task string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Warn().Err(err).Str("task", task).Msg("background task failed")
		}
	}()
}

func compactUsers(users repositories.UserRepository, ids []uint) map[uint]models.UserCompact {
	out := make(map[uint]models.UserCompact, len(ids))
	if len(ids) == 0 {
		return out
	}
	found, err := users.GetUsersByIDs(ids)
	if err != nil {
		return out
	}
	for id, u := range found {
		out[id] = u.ToCompact()
	}
	return out
}

// HTTPErrorHandler renders errors as {"success": false, "message": ...} and logs server errors
func HTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		}

		if code >= http.StatusInternalServerError {
			log.Error().Err(err).
				Str("method", c.Request().Method).
				Str("uri", c.Request().RequestURI).
				Int("status", code).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"success": false, "message": message})
		}
		if err != nil {
			log.Error().Err(err).Msg("writing error response")
		}
	}
}

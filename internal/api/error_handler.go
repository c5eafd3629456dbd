package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sweetshop/inventory-api/internal/api/response"
	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// apiError is a resolved failure ready to be rendered.
type apiError struct {
	code    int
	message string
	fields  map[string]string
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the error envelope: {"success": false, "message": "...", "errors"?: {...}}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resolved := resolveError(err, log, c)
		var errs any
		if len(resolved.fields) > 0 {
			errs = resolved.fields
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(resolved.code)
			return
		}
		_ = response.Error(c, resolved.code, resolved.message, errs)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) apiError {
	// Echo's own errors (bind failures, auth middleware, route misses)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusNotFound && errors.Is(err, echo.ErrNotFound) {
			return apiError{code: http.StatusNotFound, message: "Not Found - " + c.Request().URL.Path}
		}
		if he.Code >= http.StatusInternalServerError {
			logUnhandled(log, c, err)
		}
		return apiError{code: he.Code, message: httpErrorMessage(he)}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return apiError{code: http.StatusBadRequest, message: "Validation failed", fields: ve.Fields}
	}

	switch {
	case errors.Is(err, domain.ErrUserExists):
		return apiError{code: http.StatusBadRequest, message: "User already exists with this email"}
	case errors.Is(err, domain.ErrMissingFields):
		return apiError{code: http.StatusBadRequest, message: "Please provide email and password"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return apiError{code: http.StatusUnauthorized, message: "Invalid credentials"}
	case errors.Is(err, domain.ErrAdminSignupDisabled):
		return apiError{code: http.StatusForbidden, message: "Admin self-registration is disabled"}
	case errors.Is(err, domain.ErrSweetNotFound):
		return apiError{code: http.StatusNotFound, message: "Sweet not found"}
	case errors.Is(err, domain.ErrInvalidQuantity):
		return apiError{code: http.StatusBadRequest, message: "Quantity must be greater than 0"}
	case errors.Is(err, domain.ErrInsufficientStock):
		return apiError{code: http.StatusBadRequest, message: "Insufficient stock available"}
	case errors.Is(err, domain.ErrStockOverflow):
		return apiError{code: http.StatusBadRequest, message: "Quantity exceeds the maximum stock level"}
	case errors.Is(err, domain.ErrDuplicateRequest):
		return apiError{code: http.StatusConflict, message: "Duplicate purchase request"}
	}

	// Unexpected error: log the real cause, return a generic message.
	logUnhandled(log, c, err)
	return apiError{code: http.StatusInternalServerError, message: "Internal Server Error"}
}

func httpErrorMessage(he *echo.HTTPError) string {
	switch m := he.Message.(type) {
	case string:
		return m
	case nil:
		return http.StatusText(he.Code)
	default:
		return fmt.Sprintf("%v", m)
	}
}

func logUnhandled(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")
}

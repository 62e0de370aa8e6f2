package router

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"photoshare/internal/errors"
)

// NewHTTPErrorHandler renders every error as errors.ErrorResponse. Domain
// errors get their mapped status; anything else is logged and answered with a
// generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errors.ErrorResponse) {
	// Echo's own errors (bind failures, 404 from router, handler-built responses)
	var he *echo.HTTPError
	if stderrors.As(err, &he) {
		if body, ok := he.Message.(errors.ErrorResponse); ok {
			return he.Code, body
		}
		return he.Code, errors.ErrorResponse{
			Error: fmt.Sprintf("%v", he.Message),
			Code:  strings.ToUpper(strings.ReplaceAll(http.StatusText(he.Code), " ", "_")),
		}
	}

	mapped := errors.MapErrorToHTTP(err)
	if !errors.IsKnown(err) {
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("unhandled error")
	}
	return mapped.StatusCode, mapped.ToErrorResponse()
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// bindJSON decodes the request body into req. Decode failures surface as
// 400 rather than echo's raw bind message.
func bindJSON(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}

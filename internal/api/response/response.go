// Package response renders the uniform success/error envelope every
// endpoint answers with.
package response

import (
	"github.com/labstack/echo/v4"
)

// Envelope is the wire shape of every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// Success writes {success: true, message?, data?}.
func Success(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Error writes {success: false, message, errors?}.
func Error(c echo.Context, status int, message string, errs any) error {
	if message == "" {
		message = "Internal Server Error"
	}
	return c.JSON(status, Envelope{Success: false, Message: message, Errors: errs})
}

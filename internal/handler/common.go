package handler // handler defines the HTTP handlers for the ticketing service

import (
    "errors"

    "github.com/labstack/echo/v4"
)

// getUserID extracts the authenticated user id that JWTAuth stored in
// the context.  All protected handlers treat a missing or mistyped
// value as unauthorized.
func getUserID(c echo.Context) (string, error) {
    id, ok := c.Get("user_id").(string)
    if !ok || id == "" {
        return "", errors.New("missing user_id in context")
    }
    return id, nil
}

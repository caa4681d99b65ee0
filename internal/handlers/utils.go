package handlers

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ErrUnauthorized is returned when the owner context is invalid
var ErrUnauthorized = fmt.Errorf("unauthorized")

// getOwnerIDFromContext extracts the authenticated owner's id from context.
// Returns ErrUnauthorized if it is missing or malformed.
func getOwnerIDFromContext(c echo.Context) (uuid.UUID, error) {
	ownerIDValue := c.Get("owner_id")
	if ownerIDValue == nil {
		return uuid.UUID{}, ErrUnauthorized
	}

	ownerID, ok := ownerIDValue.(uuid.UUID)
	if !ok {
		return uuid.UUID{}, ErrUnauthorized
	}

	return ownerID, nil
}

// parseIDParam parses a path parameter as a UUID
func parseIDParam(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

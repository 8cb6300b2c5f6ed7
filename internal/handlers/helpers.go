package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sajib-hossain/photogram/backend/internal/models"
)

// getUserIDFromContext returns the authenticated user's ID, or 0 when the
// request carries no valid claims.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok {
		return 0
	}
	return claims.UserID
}

// uidString renders a Postgres user ID in the string form used by MongoDB
// documents.
func uidString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseUID(s string) uint {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// isValidMediaURL accepts http(s) URLs and inline data URIs, the two forms
// clients upload.
func isValidMediaURL(value string) bool {
	if value == "" {
		return false
	}
	if strings.HasPrefix(value, "data:image/") || strings.HasPrefix(value, "data:video/") {
		return true
	}
	u, err := url.Parse(value)
	return err == nil && u.Scheme != "" && u.Host != ""
}

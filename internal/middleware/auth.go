package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	sellerIDKey    = "seller_id"
	headerSellerID = "X-Seller-Id"
	headerAdminKey = "X-Admin-Key"
)

// SellerAuth trusts the seller id forwarded by the session gateway.
// later we can expand this to jwt auth or session auth
func SellerAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sellerID := c.Request().Header.Get(headerSellerID)
			if sellerID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing X-Seller-Id header")
			}
			c.Set(sellerIDKey, sellerID)
			return next(c)
		}
	}
}

func SellerID(c echo.Context) string {
	id, _ := c.Get(sellerIDKey).(string)
	return id
}

// AdminKey rejects requests without the configured admin key. An empty key
// disables the route entirely.
func AdminKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := c.Request().Header.Get(headerAdminKey)
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden)
			}
			return next(c)
		}
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"shopmate/internal/config"
)

const shopKey = "shop"

// sessionClaims are the Shopify App Bridge session-token claims this
// middleware cares about. The token is an HS256 JWT signed with the app's
// API secret; dest identifies the shop.
type sessionClaims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// SessionToken verifies the Shopify session token on merchant dashboard
// routes and puts the shop domain on the gin context.
func SessionToken(cfg *config.ShopifyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    40101,
				"message": "Missing authorization header",
			})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    40101,
				"message": "Invalid authorization header",
			})
			return
		}

		claims := &sessionClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.APISecret), nil
		}, jwt.WithAudience(cfg.APIKey), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    40102,
				"message": "Invalid or expired session token",
			})
			return
		}

		shop := shopFromDest(claims.Dest)
		if shop == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    40103,
				"message": "Session token missing shop",
			})
			return
		}

		c.Set(shopKey, shop)
		c.Next()
	}
}

// shopFromDest extracts the shop domain from the dest claim, which Shopify
// formats as "https://{shop}.myshopify.com".
func shopFromDest(dest string) string {
	shop := strings.TrimPrefix(dest, "https://")
	shop = strings.TrimSuffix(shop, "/")
	if !strings.HasSuffix(shop, ".myshopify.com") {
		return ""
	}
	return shop
}

// ShopFromContext returns the authenticated shop domain, or "".
func ShopFromContext(c *gin.Context) string {
	return c.GetString(shopKey)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	. "github.com/smartystreets/goconvey/convey"

	"shopmate/internal/config"
)

func sessionRouter(cfg *config.ShopifyConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SessionToken(cfg))
	r.GET("/probe", func(c *gin.Context) {
		c.String(http.StatusOK, ShopFromContext(c))
	})
	return r
}

func mintToken(secret, audience, dest string, expiresIn time.Duration) string {
	claims := sessionClaims{
		Dest: dest,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		panic(err)
	}
	return token
}

func probe(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionToken(t *testing.T) {
	Convey("SessionToken verifies Shopify session tokens", t, func() {
		cfg := &config.ShopifyConfig{APIKey: "app-key", APISecret: "app-secret"}
		r := sessionRouter(cfg)

		Convey("a valid token passes and exposes the shop", func() {
			token := mintToken("app-secret", "app-key", "https://acme.myshopify.com", time.Hour)
			w := probe(r, "Bearer "+token)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, "acme.myshopify.com")
		})

		Convey("a missing header is rejected", func() {
			So(probe(r, "").Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("a malformed header is rejected", func() {
			So(probe(r, "Token abc").Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("a token signed with the wrong secret is rejected", func() {
			token := mintToken("other-secret", "app-key", "https://acme.myshopify.com", time.Hour)
			So(probe(r, "Bearer "+token).Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("an expired token is rejected", func() {
			token := mintToken("app-secret", "app-key", "https://acme.myshopify.com", -time.Hour)
			So(probe(r, "Bearer "+token).Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("a token for another app is rejected", func() {
			token := mintToken("app-secret", "other-key", "https://acme.myshopify.com", time.Hour)
			So(probe(r, "Bearer "+token).Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("a dest outside myshopify.com is rejected", func() {
			token := mintToken("app-secret", "app-key", "https://evil.example.com", time.Hour)
			So(probe(r, "Bearer "+token).Code, ShouldEqual, http.StatusUnauthorized)
		})
	})
}

func TestShopFromDest(t *testing.T) {
	Convey("shopFromDest extracts the shop domain", t, func() {
		So(shopFromDest("https://acme.myshopify.com"), ShouldEqual, "acme.myshopify.com")
		So(shopFromDest("https://acme.myshopify.com/"), ShouldEqual, "acme.myshopify.com")
		So(shopFromDest("https://example.com"), ShouldEqual, "")
		So(shopFromDest(""), ShouldEqual, "")
	})
}

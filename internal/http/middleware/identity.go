// This file resolves who is talking to the widget service.
//
// A browser profile is the unit that owns one widget (and one persisted
// session id). It is carried by the profile_id cookie, or by X-Profile-ID for
// non-browser clients, and minted on first contact.
//
// A guest may additionally be signed in: the bearer token the storefront
// already holds is read for the user id and display name, and forwarded
// unchanged to the hotel API.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ProfileCookie = "profile_id"
	ProfileHeader = "X-Profile-ID"

	profileKey  = "profileID"
	identityKey = "identity"

	profileMaxAge = 365 * 24 * 60 * 60
)

// Profile resolves the browser profile id and issues the cookie when the
// request carries no valid one. Set secure when served over HTTPS.
func Profile(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := validProfile(c.GetHeader(ProfileHeader))
		if id == "" {
			if v, err := c.Cookie(ProfileCookie); err == nil {
				id = validProfile(v)
			}
		}
		if id == "" {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(ProfileCookie, id, profileMaxAge, "/", "", secure, true)
		}
		c.Set(profileKey, id)

		lg := LoggerFrom(c).With().Str("profile_id", id).Logger()
		c.Set(loggerKey, &lg)
		c.Next()
	}
}

func validProfile(s string) string {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return u.String()
}

// ProfileID returns the id resolved by Profile, or "".
func ProfileID(c *gin.Context) string {
	v, _ := c.Get(profileKey)
	return asString(v)
}

// Identity is the signed-in guest behind a request. The zero value is an
// anonymous guest.
type Identity struct {
	UserID string
	Name   string
	Token  string // raw bearer token, forwarded upstream
}

// Authenticate reads "Authorization: Bearer <jwt>".
//
// With a secret, the token must be a valid HS256 JWT or the request is
// rejected with 401. Without one, claims are read unverified and the hotel
// API remains the authority on the forwarded token. Placeholder tokens
// ("null", "undefined") count as absent.
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.Next()
			return
		}

		claims := jwt.MapClaims{}
		if secret != "" {
			tok, err := jwt.ParseWithClaims(raw, claims,
				func(*jwt.Token) (any, error) { return []byte(secret), nil },
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			)
			if err != nil || !tok.Valid {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"request_id": RequestIDFrom(c),
					"code":       "unauthorized",
					"message":    "invalid bearer token",
				})
				return
			}
		} else if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
			claims = jwt.MapClaims{}
		}

		id := Identity{
			UserID: claimString(claims, "userId", "sub"),
			Name:   claimString(claims, "fullName", "name"),
			Token:  raw,
		}
		c.Set(identityKey, id)
		if id.UserID != "" {
			c.Set("userID", id.UserID)
		}
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Authenticate.
func IdentityFrom(c *gin.Context) Identity {
	v, _ := c.Get(identityKey)
	id, _ := v.(Identity)
	return id
}

func bearerToken(h string) string {
	h = strings.TrimSpace(h)
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	tok := strings.TrimSpace(h[7:])
	switch tok {
	case "null", "undefined":
		return ""
	}
	return tok
}

func claimString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := claims[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

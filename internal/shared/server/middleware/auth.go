package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"resumind/internal/shared/auth"
	"resumind/internal/shared/server/respond"
)

const (
	userIDKey      = "userId"
	userEmailKey   = "userEmail"
	userNameKey    = "userName"
	userPictureKey = "userPicture"

	// SessionCookie carries the session token for browser clients.
	SessionCookie = "session"
	// LoginPath starts the login flow; it takes the return path in "next".
	LoginPath = "/auth"
)

// Auth validates a bearer token or session cookie and stores identity in
// context. Guest identities from X-Guest-Id are accepted when allowGuests is
// set. Unauthenticated browser requests are redirected to the login page with
// the requested path in "next"; API clients get a 401 naming the same target.
func Auth(issuer *auth.Issuer, allowGuests bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		if token := sessionToken(c); token != "" {
			if issuer == nil {
				unauthenticated(c, "missing or invalid token")
				return
			}
			claims, err := issuer.Verify(token)
			if err != nil {
				unauthenticated(c, "missing or invalid token")
				return
			}
			c.Set(userIDKey, claims.Subject)
			if claims.Email != "" {
				c.Set(userEmailKey, claims.Email)
			}
			if claims.Name != "" {
				c.Set(userNameKey, claims.Name)
			}
			if claims.Picture != "" {
				c.Set(userPictureKey, claims.Picture)
			}
			c.Set("isGuest", false)
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if !allowGuests || guestID == "" {
			unauthenticated(c, "Missing identity")
			return
		}

		c.Set(userIDKey, "guest:"+guestID)
		c.Set("isGuest", true)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return header
		}
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

func unauthenticated(c *gin.Context, message string) {
	target := LoginRedirect(c.Request.URL.RequestURI())
	if wantsHTML(c.Request) {
		c.Redirect(http.StatusFound, target)
		c.Abort()
		return
	}
	respond.Error(c, http.StatusUnauthorized, "unauthorized", message, gin.H{"redirect": target})
}

// LoginRedirect returns the login URL that brings the user back to next.
func LoginRedirect(next string) string {
	return LoginPath + "?next=" + url.QueryEscape(next)
}

func wantsHTML(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}

// UserNameFromContext fetches the user name set by the auth middleware.
func UserNameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userNameKey)
	if name, ok := val.(string); ok {
		return name
	}
	return ""
}

// UserPictureFromContext fetches the avatar URL set by the auth middleware.
func UserPictureFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userPictureKey)
	if picture, ok := val.(string); ok {
		return picture
	}
	return ""
}

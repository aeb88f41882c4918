package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"buildtrack/internal/database"
	"buildtrack/internal/models"
)

func loginRedirect(c *gin.Context) {
	// Preserve the originally requested path for post-login return.
	next := url.QueryEscape(c.Request.URL.RequestURI())
	c.Redirect(http.StatusFound, "/login?next="+next)
	c.Abort()
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		if sess.Get("user_id") == nil {
			loginRedirect(c)
			return
		}
		c.Next()
	}
}

// RequireVerifiedEmail gates operations behind a confirmed email address.
// Verification delivery itself is external; only the flag is checked here.
func RequireVerifiedEmail() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			loginRedirect(c)
			return
		}
		if !user.EmailVerified {
			c.Redirect(http.StatusFound, "/email-verification-required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole admits callers whose profile role is on the allow-list.
// Superusers bypass the check entirely. The profile is looked up per
// request so role changes by an administrator take effect immediately.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	roleSet := map[models.Role]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			loginRedirect(c)
			return
		}

		if user.IsSuperuser {
			c.Next()
			return
		}

		var profile models.UserProfile
		if err := database.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
			c.Redirect(http.StatusFound, "/unauthorized")
			c.Abort()
			return
		}

		if _, allowed := roleSet[profile.Role]; !allowed {
			c.Redirect(http.StatusFound, "/unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}

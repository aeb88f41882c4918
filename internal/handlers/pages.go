package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"buildtrack/internal/middleware"
)

func IndexPage(c *gin.Context) {
	_, authed := middleware.CurrentUser(c)
	respond(c, http.StatusOK, gin.H{"is_authed": authed})
}

// Unauthorized is the single landing destination for every access-verifier
// and role-gate denial; the specific reason arrives as a flash message.
func Unauthorized(c *gin.Context) {
	respond(c, http.StatusForbidden, gin.H{"messages": takeFlashes(c)})
}

func EmailVerificationRequired(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if ok && user.EmailVerified {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	respond(c, http.StatusOK, gin.H{"error": "a verified email address is required"})
}

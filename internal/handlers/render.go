package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"buildtrack/internal/auth"
	"buildtrack/internal/database"
	"buildtrack/internal/middleware"
	"buildtrack/internal/models"
	"buildtrack/internal/token"
)

var (
	signer   *token.Signer
	verifier *auth.Verifier
)

// Setup wires the package-level token signer and access verifier. Called
// once from the router before any handler runs.
func Setup(s *token.Signer, v *auth.Verifier) {
	signer = s
	verifier = v
}

// respond merges the current identity into every JSON payload, the way the
// old HTML renderer pushed CurrentUser into each template.
func respond(c *gin.Context, status int, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if user, ok := middleware.CurrentUser(c); ok {
		data["current_username"] = user.Username
	}
	c.JSON(status, data)
}

// flash queues a message for the next page the user lands on.
func flash(c *gin.Context, msg string) {
	sess := sessions.Default(c)
	sess.AddFlash(msg)
	_ = sess.Save()
}

// takeFlashes drains queued messages.
func takeFlashes(c *gin.Context) []string {
	sess := sessions.Default(c)
	raw := sess.Flashes()
	_ = sess.Save()

	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			msgs = append(msgs, s)
		}
	}
	return msgs
}

// denyVerification converts an access-verifier failure into a flash plus a
// redirect to the unauthorized page. Every failure kind funnels to the same
// destination with its own message.
func denyVerification(c *gin.Context, err error) {
	flash(c, auth.Message(err))
	c.Redirect(http.StatusFound, "/unauthorized")
	c.Abort()
}

// verifiedProfile runs the access verifier for the token and role path
// segments of the current route. Returns nil after handling the denial.
func verifiedProfile(c *gin.Context) *models.UserProfile {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return nil
	}

	role := models.Role(c.Param("role"))
	profile, err := verifier.VerifyProfile(user.ID, c.Param("token"), role)
	if err != nil {
		denyVerification(c, err)
		return nil
	}
	return profile
}

// currentReviewerProfile resolves the session user's profile for routes
// guarded by the role middleware alone, without a dashboard token.
func currentReviewerProfile(c *gin.Context) (*models.UserProfile, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, auth.ErrProfileNotFound
	}
	var profile models.UserProfile
	if err := database.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		return nil, auth.ErrProfileNotFound
	}
	return &profile, nil
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		respond(c, http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"buildtrack/internal/auth"
	"buildtrack/internal/database"
	"buildtrack/internal/middleware"
	"buildtrack/internal/models"
)

type registerForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
	FullName string `form:"full_name"`
}

func Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return
	}

	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	if len(form.Username) < 3 || len(form.Password) < 6 {
		respond(c, http.StatusBadRequest, gin.H{"error": "username or password too short"})
		return
	}

	var existing models.User
	if err := database.DB.Where("username = ?", form.Username).First(&existing).Error; err == nil {
		respond(c, http.StatusBadRequest, gin.H{"error": "user already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	user := models.User{
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: string(hash),
	}
	if err := database.DB.Create(&user).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	// New accounts start view-only; administrators promote via /users/manage.
	profile := models.UserProfile{
		UserID:   user.ID,
		Role:     models.RoleViewOnly,
		FullName: strings.TrimSpace(form.FullName),
	}
	if profile.FullName == "" {
		profile.FullName = user.Username
	}
	if err := database.DB.Create(&profile).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to create profile"})
		return
	}

	c.Redirect(http.StatusFound, "/login")
}

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
	Next     string `form:"next"`
}

func Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return
	}

	var user models.User
	if err := database.DB.Where("username = ?", form.Username).First(&user).Error; err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": "wrong username or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.Password)); err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": "wrong username or password"})
		return
	}

	sess := sessions.Default(c)
	sess.Set("user_id", user.ID)
	_ = sess.Save()

	// Return to the page that triggered the login redirect, if any.
	if form.Next != "" && strings.HasPrefix(form.Next, "/") {
		c.Redirect(http.StatusFound, form.Next)
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

func Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	c.Redirect(http.StatusFound, "/login")
}

// ResolveToken exchanges a freshly issued token for its profile. Uses the
// short one-off window, so week-old dashboard links are rejected here even
// though they still open the dashboard itself.
func ResolveToken(c *gin.Context) {
	profile, err := verifier.ResolveProfile(c.Param("token"))
	if err != nil {
		denyVerification(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"profile": gin.H{
			"id":        profile.ID,
			"username":  profile.User.Username,
			"full_name": profile.FullName,
			"role":      profile.Role,
			"role_name": profile.Role.Display(),
		},
	})
}

// RedirectToDashboard issues a fresh dashboard token for the caller's
// profile (creating the profile on first access) and redirects to the
// signed role-scoped route.
func RedirectToDashboard(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	profile, err := auth.EnsureProfile(database.DB, &user)
	if err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to resolve profile"})
		return
	}

	tok, err := signer.Issue(profile)
	if err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to issue dashboard token"})
		return
	}

	sess := sessions.Default(c)
	sess.Set("dashboard_token", tok)
	_ = sess.Save()

	c.Redirect(http.StatusFound, "/dashboard/"+tok+"/"+string(profile.Role))
}

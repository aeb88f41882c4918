package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"buildtrack/internal/database"
	"buildtrack/internal/models"
)

//
// USER PROFILE MANAGEMENT
//

// ManageUserProfiles lists profiles with optional name/username and role
// filters. A POST updates one profile's role and full name.
func ManageUserProfiles(c *gin.Context) {
	if c.Request.Method == http.MethodPost {
		updateUserProfile(c)
		return
	}

	q := database.DB.Preload("User").Order("full_name asc")

	if search := strings.TrimSpace(c.Query("q")); search != "" {
		like := "%" + search + "%"
		q = q.Joins("JOIN users ON users.id = user_profiles.user_id").
			Where("user_profiles.full_name LIKE ? OR users.username LIKE ?", like, like)
	}
	if role := models.Role(c.Query("role")); role.Valid() {
		q = q.Where("user_profiles.role = ?", role)
	}

	var profiles []models.UserProfile
	if err := q.Find(&profiles).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to load profiles"})
		return
	}

	type profileRow struct {
		ID       uint        `json:"id"`
		Username string      `json:"username"`
		Email    string      `json:"email"`
		FullName string      `json:"full_name"`
		Role     models.Role `json:"role"`
		RoleName string      `json:"role_name"`
	}

	rows := make([]profileRow, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, profileRow{
			ID:       p.ID,
			Username: p.User.Username,
			Email:    p.User.Email,
			FullName: p.FullName,
			Role:     p.Role,
			RoleName: p.Role.Display(),
		})
	}

	respond(c, http.StatusOK, gin.H{
		"profiles": rows,
		"messages": takeFlashes(c),
	})
}

func updateUserProfile(c *gin.Context) {
	profileID, ok := paramID(c, "profile_id")
	if !ok {
		return
	}

	var profile models.UserProfile
	if err := database.DB.Preload("User").First(&profile, profileID).Error; err != nil {
		respond(c, http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	role := models.Role(c.PostForm("role"))
	if !role.Valid() {
		flash(c, "Please choose a valid role.")
		c.Redirect(http.StatusFound, "/users/manage")
		return
	}

	fullName := strings.TrimSpace(c.PostForm("full_name"))
	if fullName == "" {
		fullName = profile.FullName
	}

	err := database.DB.Model(&profile).Updates(map[string]interface{}{
		"role":      role,
		"full_name": fullName,
	}).Error
	if err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	if actor, err := currentReviewerProfile(c); err == nil {
		database.CreateAuditLog(actor.ID, "profile", profile.ID, "update",
			"Set role "+role.Display()+" for user: "+profile.User.Username)
	}

	flash(c, "Profile for "+profile.User.Username+" updated.")
	c.Redirect(http.StatusFound, "/users/manage")
}

// SearchProjectManagers backs the PM picker on the project forms.
func SearchProjectManagers(c *gin.Context) {
	q := database.DB.Where("role = ?", models.RoleProjectManager).
		Order("full_name asc").Limit(20)

	if search := strings.TrimSpace(c.Query("q")); search != "" {
		q = q.Where("full_name LIKE ?", "%"+search+"%")
	}

	var managers []models.UserProfile
	if err := q.Find(&managers).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to load managers"})
		return
	}

	type managerOption struct {
		ID       uint   `json:"id"`
		FullName string `json:"full_name"`
	}
	options := make([]managerOption, 0, len(managers))
	for _, m := range managers {
		options = append(options, managerOption{ID: m.ID, FullName: m.FullName})
	}

	c.JSON(http.StatusOK, gin.H{"results": options})
}

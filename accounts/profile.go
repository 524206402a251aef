package accounts

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/a0983528510-lang/newmood/models"
)

// ProfileGet renders the nickname form. Anonymous callers go to login.
func (s *Service) ProfileGet(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	c.HTML(http.StatusOK, "profile", gin.H{
		"title": appTitle + " · Profile",
		"user":  user,
		"flash": TakeFlash(c),
		"ga_id": s.Config.GAMeasurementID,
	})
}

// ProfilePost updates the nickname and refreshes the session so later
// submissions are attributed to the new name.
func (s *Service) ProfilePost(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	nickname := strings.TrimSpace(c.PostForm("nickname"))
	if nickname == "" {
		SetFlash(c, "error", "Nickname cannot be empty")
		c.Redirect(http.StatusFound, "/profile")
		return
	}

	account, err := models.UpdateNickname(s.Db, user.ID, nickname)
	if err != nil {
		s.Logger.WithError(err).Error("nickname update failed")
		SetFlash(c, "error", "Could not update profile")
		c.Redirect(http.StatusFound, "/profile")
		return
	}

	if err := SetUser(c, SessionUser{ID: account.ID, Email: account.Email, Nickname: account.Nickname}); err != nil {
		s.Logger.WithError(err).Error("session refresh failed")
	}
	SetFlash(c, "success", "Profile updated")
	c.Redirect(http.StatusFound, "/")
}

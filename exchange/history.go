package exchange

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/a0983528510-lang/newmood/accounts"
	"github.com/a0983528510-lang/newmood/models"
	"github.com/a0983528510-lang/newmood/resolver"
)

// History renders the caller's draws, newest first. Thumbnails are derived
// from the stored links at read time, so they are always fresh for YouTube
// links and empty for the rest.
func (s *Service) History(c *gin.Context) {
	user := accounts.CurrentUser(c)
	if user == nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	items, err := models.ListDraws(s.Db, user.ID, models.DefaultHistoryLimit)
	if err != nil {
		s.log(c).WithError(err).Error("history query failed")
		c.HTML(http.StatusInternalServerError, "history", gin.H{
			"title": "NewMood · History",
			"user":  user,
			"items": nil,
		})
		return
	}
	for i := range items {
		items[i].Thumbnail = resolver.ThumbnailForLink(items[i].Link)
	}

	c.HTML(http.StatusOK, "history", gin.H{
		"title": "NewMood · History",
		"user":  user,
		"items": items,
		"ga_id": s.Config.GAMeasurementID,
	})
}

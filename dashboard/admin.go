// Package dashboard serves the admin reporting view: aggregate counts and
// the latest submissions. Access control lives in gateway.RequireAdmin.
package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/a0983528510-lang/newmood/models"
)

type Service struct {
	Db     *gorm.DB
	Logger *logrus.Logger
}

// Admin renders metrics and the 50 most recent recommendations.
func (s *Service) Admin(c *gin.Context) {
	metrics, err := models.GetMetrics(s.Db)
	if err != nil {
		s.Logger.WithError(err).Error("metrics query failed")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	latest, err := models.RecentRecommendations(s.Db, models.DefaultRecentLimit)
	if err != nil {
		s.Logger.WithError(err).Error("recent recommendations query failed")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.HTML(http.StatusOK, "admin", gin.H{
		"title":   "NewMood · Admin",
		"metrics": metrics,
		"rows":    latest,
	})
}

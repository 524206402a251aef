// Package exchange implements the heart of NewMood: a user submits a
// recommendation and gets back a random one submitted by somebody else.
package exchange

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/a0983528510-lang/newmood/accounts"
	"github.com/a0983528510-lang/newmood/apperr"
	"github.com/a0983528510-lang/newmood/gateway"
	"github.com/a0983528510-lang/newmood/models"
	"github.com/a0983528510-lang/newmood/resolver"
)

// Service holds the exchange handlers' dependencies.
type Service struct {
	Db       *gorm.DB
	Config   models.Config
	Logger   *logrus.Logger
	Resolver *resolver.Service
}

// log returns an entry carrying the request id stamped by the gateway
// middleware, so handler failures can be tied back to a response.
func (s *Service) log(c *gin.Context) *logrus.Entry {
	return s.Logger.WithField("request_id", gateway.RequestIDFromCtx(c))
}

type autofillRequest struct {
	Link string `json:"link" binding:"required"`
}

// Autofill resolves a pasted link into title/artist/thumbnail for the
// submission form. The metadata call must not hold anything open on the
// database; it is a plain bounded outbound request.
func (s *Service) Autofill(c *gin.Context) {
	var req autofillRequest
	_ = c.ShouldBindJSON(&req)
	req.Link = strings.TrimSpace(req.Link)
	if req.Link == "" {
		err := apperr.WithMessage(apperr.ErrMissingField, "link is required")
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}

	meta, err := s.Resolver.Resolve(c.Request.Context(), req.Link)
	if err != nil {
		s.log(c).WithField("link", req.Link).WithError(err).Info("autofill failed")
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "meta": meta})
}

type submitRequest struct {
	Title  string `json:"title" form:"title" binding:"required"`
	Artist string `json:"artist" form:"artist" binding:"required"`
	Reason string `json:"reason" form:"reason"`
	Link   string `json:"link" form:"link" binding:"required"`
}

// drawnView is the drawn recommendation as returned to the submitter. The
// thumbnail is re-derived from the stored link, so only YouTube-family
// draws carry one.
type drawnView struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Reason    string `json:"reason"`
	Link      string `json:"link"`
	Thumbnail string `json:"thumbnail"`
	Nickname  string `json:"nickname"`
}

// Submit stores the recommendation and atomically draws one authored by a
// different account. drawn is null when no eligible row exists yet.
func (s *Service) Submit(c *gin.Context) {
	user := accounts.CurrentUser(c)
	if user == nil {
		c.JSON(apperr.Status(apperr.ErrUnauthenticated), apperr.Payload(apperr.ErrUnauthenticated))
		return
	}

	req := submitRequest{
		Title:  strings.TrimSpace(c.PostForm("title")),
		Artist: strings.TrimSpace(c.PostForm("artist")),
		Reason: strings.TrimSpace(c.PostForm("reason")),
		Link:   strings.TrimSpace(c.PostForm("link")),
	}
	if req.Link == "" {
		err := apperr.WithMessage(apperr.ErrMissingField, "link is required")
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	// Autofill normally fills title and artist, but never trust the client
	// to have done so.
	if err := models.ValidateStruct(req); err != nil {
		wrapped := apperr.Wrap(err, apperr.ErrMissingField, "title and artist are required")
		c.JSON(apperr.Status(wrapped), apperr.Payload(wrapped))
		return
	}

	rec := models.Recommendation{
		AccountID: user.ID,
		Title:     req.Title,
		Artist:    req.Artist,
		Reason:    req.Reason,
		Link:      req.Link,
	}
	drawn, err := models.SubmitAndDraw(s.Db, &rec)
	if err != nil {
		s.log(c).WithError(err).Error("submit transaction failed")
		wrapped := apperr.Wrap(err, apperr.ErrDatabase, "")
		c.JSON(apperr.Status(wrapped), apperr.Payload(wrapped))
		return
	}

	if drawn == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true, "drawn": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "drawn": drawnView{
		Title:     drawn.Title,
		Artist:    drawn.Artist,
		Reason:    drawn.Reason,
		Link:      drawn.Link,
		Thumbnail: resolver.ThumbnailForLink(drawn.Link),
		Nickname:  drawn.AuthorNickname,
	}})
}

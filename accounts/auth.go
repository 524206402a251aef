// Package accounts implements Google sign-in, the session identity, and the
// profile pages.
package accounts

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"

	"github.com/a0983528510-lang/newmood/apperr"
	"github.com/a0983528510-lang/newmood/models"
)

const appTitle = "NewMood"

// Identity is what a verified Google credential boils down to.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// Verifier validates an identity token. Behind an interface so tests can
// sign in without Google.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}

// GoogleVerifier checks a Google Identity Services credential against the
// configured client id.
type GoogleVerifier struct {
	ClientID string
}

func (g *GoogleVerifier) Verify(ctx context.Context, credential string) (*Identity, error) {
	payload, err := idtoken.Validate(ctx, credential, g.ClientID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInvalidCredential, "")
	}
	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	if payload.Subject == "" || email == "" {
		return nil, apperr.WithMessage(apperr.ErrInvalidCredential, "token payload missing required claims")
	}
	return &Identity{Subject: payload.Subject, Email: email, Name: name}, nil
}

// Service holds the account handlers' dependencies.
type Service struct {
	Db       *gorm.DB
	Config   models.Config
	Logger   *logrus.Logger
	Verifier Verifier
}

type googleAuthRequest struct {
	Credential string `json:"credential" form:"credential"`
}

// GoogleAuth verifies the posted credential, upserts the account, and
// writes the session. The credential arrives as JSON from the sign-in
// widget, or as a form field from the button fallback.
func (s *Service) GoogleAuth(c *gin.Context) {
	var req googleAuthRequest
	_ = c.ShouldBind(&req)
	if strings.TrimSpace(req.Credential) == "" {
		err := apperr.WithMessage(apperr.ErrMissingField, "credential is required")
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}

	identity, err := s.Verifier.Verify(c.Request.Context(), req.Credential)
	if err != nil {
		s.Logger.WithError(err).Info("google credential rejected")
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}

	account, err := models.UpsertAccount(s.Db, identity.Subject, identity.Email, identity.Name)
	if err != nil {
		s.Logger.WithError(err).Error("account upsert failed")
		wrapped := apperr.Wrap(err, apperr.ErrDatabase, "")
		c.JSON(apperr.Status(wrapped), apperr.Payload(wrapped))
		return
	}

	if err := SetUser(c, SessionUser{ID: account.ID, Email: account.Email, Nickname: account.Nickname}); err != nil {
		s.Logger.WithError(err).Error("session save failed")
		wrapped := apperr.Wrap(err, apperr.ErrInternal, "")
		c.JSON(apperr.Status(wrapped), apperr.Payload(wrapped))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Logout clears the session and sends the browser home.
func (s *Service) Logout(c *gin.Context) {
	if err := ClearUser(c); err != nil {
		s.Logger.WithError(err).Warn("session clear failed")
	}
	c.Redirect(http.StatusFound, "/")
}

// Index renders the home page, personalized when a session exists.
func (s *Service) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index", gin.H{
		"title": appTitle,
		"user":  CurrentUser(c),
		"flash": TakeFlash(c),
		"ga_id": s.Config.GAMeasurementID,
	})
}

// LoginPage renders the sign-in page, or redirects home when already
// signed in.
func (s *Service) LoginPage(c *gin.Context) {
	if CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, "login", gin.H{
		"title":            appTitle + " · Login",
		"google_client_id": s.Config.GoogleClientID,
		"ga_id":            s.Config.GAMeasurementID,
	})
}

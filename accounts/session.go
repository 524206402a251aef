package accounts

import (
	"encoding/gob"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionUserKey  = "user"
	sessionFlashKey = "flash"
)

// SessionUser is the minimal record kept in the session cookie. Anything
// richer is read from the database on demand.
type SessionUser struct {
	ID       uint
	Email    string
	Nickname string
}

// Flash is a one-shot notice rendered on the next page view.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

func init() {
	gob.Register(SessionUser{})
	gob.Register(Flash{})
}

// CurrentUser returns the session's user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *SessionUser {
	sess := sessions.Default(c)
	if u, ok := sess.Get(sessionUserKey).(SessionUser); ok {
		return &u
	}
	return nil
}

// CurrentEmail returns the session user's email, or empty for anonymous
// requests. Used by the admin guard.
func CurrentEmail(c *gin.Context) string {
	if u := CurrentUser(c); u != nil {
		return u.Email
	}
	return ""
}

// SetUser writes the session record. Called on login and whenever the
// nickname changes, so attribution stays current.
func SetUser(c *gin.Context, u SessionUser) error {
	sess := sessions.Default(c)
	sess.Set(sessionUserKey, u)
	return sess.Save()
}

func ClearUser(c *gin.Context) error {
	sess := sessions.Default(c)
	sess.Delete(sessionUserKey)
	return sess.Save()
}

// SetFlash stores a transient notice for the next rendered page.
func SetFlash(c *gin.Context, kind, message string) {
	sess := sessions.Default(c)
	sess.Set(sessionFlashKey, Flash{Kind: kind, Message: message})
	_ = sess.Save()
}

// TakeFlash pops the pending notice, if any.
func TakeFlash(c *gin.Context) *Flash {
	sess := sessions.Default(c)
	v := sess.Get(sessionFlashKey)
	if v == nil {
		return nil
	}
	sess.Delete(sessionFlashKey)
	_ = sess.Save()
	if f, ok := v.(Flash); ok {
		return &f
	}
	return nil
}

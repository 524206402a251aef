package exchange

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/a0983528510-lang/newmood/accounts"
	"github.com/a0983528510-lang/newmood/gateway"
	"github.com/a0983528510-lang/newmood/models"
	"github.com/a0983528510-lang/newmood/resolver"
)

var testTemplates = template.Must(template.New("t").Parse(`
{{define "history"}}{{range .items}}{{.Title}}|{{.Nickname}}|{{.Thumbnail}};{{end}}{{end}}
`))

type testEnv struct {
	Router  *gin.Engine
	Service *Service
	DB      *gorm.DB
	Hook    *logtest.Hook
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	logger, hook := logtest.NewNullLogger()
	res := resolver.NewService(logger)
	res.Client = &http.Client{Timeout: time.Second}
	service := &Service{Db: db, Logger: logger, Resolver: res}

	r := gin.New()
	r.Use(gateway.RequestID())
	r.Use(sessions.Sessions("newmood", cookie.NewStore([]byte("test-secret"))))
	r.SetHTMLTemplate(testTemplates)
	r.POST("/submit", service.Submit)
	r.POST("/autofill", service.Autofill)
	r.GET("/history", service.History)
	// Test-only login shortcut: establishes a session for a stored account.
	r.GET("/test/login/:id", func(c *gin.Context) {
		id, _ := strconv.Atoi(c.Param("id"))
		var account models.Account
		if err := db.First(&account, id).Error; err != nil {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		if err := accounts.SetUser(c, accounts.SessionUser{ID: account.ID, Email: account.Email, Nickname: account.Nickname}); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return &testEnv{Router: r, Service: service, DB: db, Hook: hook}
}

func (e *testEnv) loginAs(t *testing.T, accountID uint) []string {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/test/login/%d", accountID), nil)
	e.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("test login failed for account %d: %d", accountID, w.Code)
	}
	var cookies []string
	for _, sc := range w.Result().Header["Set-Cookie"] {
		cookies = append(cookies, strings.SplitN(sc, ";", 2)[0])
	}
	return cookies
}

func (e *testEnv) submit(t *testing.T, cookies []string, form string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.Header.Add("Cookie", c)
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode submit response %q: %v", w.Body.String(), err)
	}
	return w, resp
}

func TestSubmit_ExchangeScenario(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := models.UpsertAccount(env.DB, "sub-1", "a@example.com", "Alice")
	bob, _ := models.UpsertAccount(env.DB, "sub-2", "b@example.com", "Bob")

	// Account A submits into an empty pool: ok, drawn null.
	aliceCookies := env.loginAs(t, alice.ID)
	w, resp := env.submit(t, aliceCookies, "title=Song+A&artist=X&link=https://youtu.be/abcdefghijk")
	if w.Code != http.StatusOK {
		t.Fatalf("alice submit status = %d, body = %s", w.Code, w.Body.String())
	}
	if resp["ok"] != true || resp["drawn"] != nil {
		t.Fatalf("alice response = %v", resp)
	}

	// Account B submits second: ok, drawn is Song A with derived thumbnail
	// and Alice's nickname.
	bobCookies := env.loginAs(t, bob.ID)
	w, resp = env.submit(t, bobCookies, "title=Song+B&artist=Y&reason=banger&link=https://open.spotify.com/track/zzz")
	if w.Code != http.StatusOK {
		t.Fatalf("bob submit status = %d, body = %s", w.Code, w.Body.String())
	}
	drawn, ok := resp["drawn"].(map[string]any)
	if !ok {
		t.Fatalf("bob got no draw: %v", resp)
	}
	if drawn["title"] != "Song A" || drawn["artist"] != "X" || drawn["nickname"] != "Alice" {
		t.Errorf("drawn = %v", drawn)
	}
	if drawn["thumbnail"] != "https://img.youtube.com/vi/abcdefghijk/hqdefault.jpg" {
		t.Errorf("thumbnail = %v", drawn["thumbnail"])
	}
}

func TestSubmit_NonYouTubeDrawHasNoThumbnail(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := models.UpsertAccount(env.DB, "sub-1", "a@example.com", "Alice")
	bob, _ := models.UpsertAccount(env.DB, "sub-2", "b@example.com", "Bob")

	// Spotify/Apple thumbnails are never persisted, so a non-YouTube draw
	// comes back without one even if autofill showed one at submit time.
	env.submit(t, env.loginAs(t, alice.ID), "title=Song+A&artist=X&link=https://open.spotify.com/track/zzz")
	_, resp := env.submit(t, env.loginAs(t, bob.ID), "title=Song+B&artist=Y&link=https://youtu.be/abcdefghijk")

	drawn, ok := resp["drawn"].(map[string]any)
	if !ok {
		t.Fatalf("bob got no draw: %v", resp)
	}
	if drawn["thumbnail"] != "" {
		t.Errorf("spotify draw thumbnail = %v, want empty", drawn["thumbnail"])
	}
}

func TestSubmit_Anonymous(t *testing.T) {
	env := newTestEnv(t)
	w, resp := env.submit(t, nil, "title=Song&artist=X&link=https://youtu.be/abcdefghijk")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if resp["error"] != "unauthenticated" {
		t.Errorf("error = %v", resp["error"])
	}
}

func TestSubmit_Validation(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := models.UpsertAccount(env.DB, "sub-1", "a@example.com", "Alice")
	cookies := env.loginAs(t, alice.ID)

	tests := []struct {
		name string
		form string
	}{
		{"missing link", "title=Song&artist=X"},
		{"missing title", "artist=X&link=https://youtu.be/abcdefghijk"},
		{"missing artist", "title=Song&link=https://youtu.be/abcdefghijk"},
		{"whitespace title", "title=+++&artist=X&link=https://youtu.be/abcdefghijk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := env.submit(t, cookies, tt.form)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
			if resp["error"] != "missing_field" {
				t.Errorf("error = %v", resp["error"])
			}
		})
	}

	var recs int64
	env.DB.Model(&models.Recommendation{}).Count(&recs)
	if recs != 0 {
		t.Errorf("invalid submissions stored %d rows", recs)
	}
}

func TestAutofill_MissingAndUnsupported(t *testing.T) {
	env := newTestEnv(t)

	body := func(link string) *strings.Reader {
		return strings.NewReader(`{"link":"` + link + `"}`)
	}

	req := httptest.NewRequest(http.MethodPost, "/autofill", body(""))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "missing_field") {
		t.Errorf("empty link: %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/autofill", body("https://soundcloud.com/x"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "unsupported_source") {
		t.Errorf("unsupported: %d %s", w.Code, w.Body.String())
	}
}

func TestAutofill_FailureLoggedWithRequestID(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/autofill", strings.NewReader(`{"link":"https://soundcloud.com/x"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(gateway.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	entry := env.Hook.LastEntry()
	if entry == nil {
		t.Fatal("autofill failure was not logged")
	}
	if entry.Data["request_id"] != "req-42" {
		t.Errorf("request_id field = %v, want req-42", entry.Data["request_id"])
	}
}

func TestAutofill_ResolvesThroughFakeUpstream(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title":"Karma Police","author_name":"Radiohead"}`))
	}))
	defer srv.Close()
	env.Service.Resolver.YouTubeOEmbed = srv.URL

	req := httptest.NewRequest(http.MethodPost, "/autofill", strings.NewReader(`{"link":"https://youtu.be/abcdefghijk"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		OK   bool          `json:"ok"`
		Meta resolver.Meta `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.OK || resp.Meta.Title != "Karma Police" || resp.Meta.Artist != "Radiohead" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHistory_RedirectsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("status = %d, location = %q", w.Code, w.Header().Get("Location"))
	}
}

func TestHistory_ShowsDrawsWithDerivedThumbnails(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := models.UpsertAccount(env.DB, "sub-1", "a@example.com", "Alice")
	bob, _ := models.UpsertAccount(env.DB, "sub-2", "b@example.com", "Bob")

	env.submit(t, env.loginAs(t, alice.ID), "title=Song+A&artist=X&link=https://youtu.be/abcdefghijk")
	bobCookies := env.loginAs(t, bob.ID)
	env.submit(t, bobCookies, "title=Song+B&artist=Y&link=https://open.spotify.com/track/zzz")

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	for _, c := range bobCookies {
		req.Header.Add("Cookie", c)
	}
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Song A|Alice|https://img.youtube.com/vi/abcdefghijk/hqdefault.jpg") {
		t.Errorf("history body = %q", body)
	}
}

package dashboard

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/a0983528510-lang/newmood/models"
)

var testTemplates = template.Must(template.New("t").Parse(`
{{define "admin"}}{{.metrics.Accounts}}/{{.metrics.Recommendations}}/{{.metrics.Draws}}:{{range .rows}}{{.Title}}@{{.Email}};{{end}}{{end}}
`))

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

func TestAdmin_RendersMetricsAndRecent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)

	alice, _ := models.UpsertAccount(db, "sub-1", "a@example.com", "Alice")
	bob, _ := models.UpsertAccount(db, "sub-2", "b@example.com", "Bob")
	a := models.Recommendation{AccountID: alice.ID, Title: "Song A", Artist: "X"}
	if _, err := models.SubmitAndDraw(db, &a); err != nil {
		t.Fatal(err)
	}
	b := models.Recommendation{AccountID: bob.ID, Title: "Song B", Artist: "Y"}
	if _, err := models.SubmitAndDraw(db, &b); err != nil {
		t.Fatal(err)
	}

	service := &Service{Db: db, Logger: logrus.New()}
	r := gin.New()
	r.SetHTMLTemplate(testTemplates)
	r.GET("/admin", service.Admin)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "2/2/1") {
		t.Errorf("metrics missing from %q", body)
	}
	// Newest first.
	if !strings.Contains(body, "Song B@b@example.com;Song A@a@example.com;") {
		t.Errorf("recent rows wrong in %q", body)
	}
}

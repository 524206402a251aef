package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/a0983528510-lang/newmood/accounts"
	"github.com/a0983528510-lang/newmood/dashboard"
	"github.com/a0983528510-lang/newmood/exchange"
	"github.com/a0983528510-lang/newmood/gateway"
	"github.com/a0983528510-lang/newmood/models"
	"github.com/a0983528510-lang/newmood/resolver"
)

var (
	logrusLogger    = logrus.New()
	newmoodConfig   models.Config
	database        *gorm.DB
	accountsService accounts.Service
	exchangeService exchange.Service
	dashService     dashboard.Service
)

// GetMainEngine function responsible for getting all of our routes to be
// delivered for gin
func GetMainEngine() *gin.Engine {
	route := gin.Default()
	route.HandleMethodNotAllowed = true
	route.Use(gateway.RequestID())
	route.Use(gateway.Instrumentation())

	store := cookie.NewStore([]byte(newmoodConfig.SecretKey))
	route.Use(sessions.Sessions("newmood", store))
	route.HTMLRender = loadTemplates("./templates")

	route.GET("/", accountsService.Index)
	route.GET("/login", accountsService.LoginPage)
	route.POST("/auth/google", accountsService.GoogleAuth)
	route.POST("/logout", accountsService.Logout)
	route.GET("/profile", accountsService.ProfileGet)
	route.POST("/profile", accountsService.ProfilePost)
	route.POST("/autofill", exchangeService.Autofill)
	route.POST("/submit", exchangeService.Submit)
	route.GET("/history", exchangeService.History)

	route.GET("/admin", gateway.RequireAdmin(gateway.AdminAuthConfig{
		Token:        newmoodConfig.AdminPass,
		AdminEmails:  newmoodConfig.AdminEmailList(),
		EmailFromCtx: accounts.CurrentEmail,
	}), dashService.Admin)

	route.GET("/metrics", gin.WrapH(promhttp.Handler()))
	route.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": true})
	})
	return route
}

// loadTemplates pairs every page template with the shared base layout.
func loadTemplates(dir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()
	base := filepath.Join(dir, "base.html")
	pages, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		logrusLogger.Fatalf("error in loading templates: %v", err)
	}
	for _, page := range pages {
		if filepath.Base(page) == "base.html" {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(page), ".html")
		r.AddFromFiles(name, base, page)
	}
	return r
}

func init() {
	parseConfig(&newmoodConfig)
	newmoodConfig.Defaults()
	configureLogger(newmoodConfig)

	if dir := filepath.Dir(newmoodConfig.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logrusLogger.Fatalf("error in creating db directory: %v", err)
		}
	}

	var err error
	database, err = gorm.Open(sqlite.Open(newmoodConfig.DatabasePath), &gorm.Config{})
	if err != nil {
		logrusLogger.Fatalf("error in connecting to db: %v", err)
	}
	if err := models.Migrate(database); err != nil {
		logrusLogger.Fatalf("error in migrating db: %v", err)
	}

	accountsService = accounts.Service{
		Db:       database,
		Config:   newmoodConfig,
		Logger:   logrusLogger,
		Verifier: &accounts.GoogleVerifier{ClientID: newmoodConfig.GoogleClientID},
	}
	exchangeService = exchange.Service{
		Db:       database,
		Config:   newmoodConfig,
		Logger:   logrusLogger,
		Resolver: resolver.NewService(logrusLogger),
	}
	dashService = dashboard.Service{Db: database, Logger: logrusLogger}
}

func main() {
	if !newmoodConfig.IsDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := GetMainEngine().Run(":" + newmoodConfig.Port); err != nil {
		logrusLogger.Fatalf("server exited: %v", err)
	}
}

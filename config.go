package main

import (
	"os"
	"strings"

	"github.com/a0983528510-lang/newmood/models"
)

// parseConfig reads the environment-driven configuration. Defaults are
// applied afterwards via Config.Defaults.
func parseConfig(data *models.Config) {
	data.SecretKey = strings.TrimSpace(os.Getenv("NEWMOOD_SECRET_KEY"))
	data.GoogleClientID = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID"))
	data.AdminEmails = os.Getenv("ADMIN_EMAILS")
	data.AdminPass = strings.TrimSpace(os.Getenv("ADMIN_PASS"))
	data.GAMeasurementID = strings.TrimSpace(os.Getenv("GA_MEASUREMENT_ID"))
	data.DatabasePath = strings.TrimSpace(os.Getenv("NEWMOOD_DB"))
	data.Port = strings.TrimSpace(os.Getenv("NEWMOOD_PORT"))
	data.IsDebug = os.Getenv("NEWMOOD_DEBUG") != ""
}

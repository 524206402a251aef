package models

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// Config is the NewMood system-level configuration, shared by every
// service. Loaded from the environment at startup; Defaults fills whatever
// was left unset.
type Config struct {
	SecretKey       string `json:"secret_key"`
	GoogleClientID  string `json:"google_client_id"`
	AdminEmails     string `json:"admin_emails"` // comma-separated
	AdminPass       string `json:"admin_pass"`
	GAMeasurementID string `json:"ga_measurement_id"`
	DatabasePath    string `json:"database_path"`
	Port            string `json:"port"`
	IsDebug         bool   `json:"is_debug"`
}

func (c *Config) Defaults() {
	if c.SecretKey == "" {
		// Sessions won't survive a restart without a configured key.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			panic(err)
		}
		c.SecretKey = hex.EncodeToString(buf)
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "newmood.db"
	}
	if c.Port == "" {
		c.Port = "8080"
	}
}

// AdminEmailList returns the allowlist trimmed and lowercased, dropping
// empty entries.
func (c *Config) AdminEmailList() []string {
	var out []string
	for _, e := range strings.Split(c.AdminEmails, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

// IsAdminEmail reports whether email is on the allowlist. Comparison is
// case-insensitive.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, admin := range c.AdminEmailList() {
		if admin == email {
			return true
		}
	}
	return false
}

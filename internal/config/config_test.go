package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adminboard.yaml")
	if errWrite := os.WriteFile(path, []byte(content), 0o600); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, "auth:\n  jwt_secret: test-secret\n")

	c, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}

	if c.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", c.Server.Port)
	}
	if c.Auth.SessionCookie != "adminboard_session" {
		t.Fatalf("unexpected session cookie name: %s", c.Auth.SessionCookie)
	}
	if c.Auth.RememberTTL() <= c.Auth.SessionTTL() {
		t.Fatalf("remember ttl must outlive session ttl")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 9000\n")

	if _, errLoad := Load(path); errLoad == nil {
		t.Fatalf("expected missing jwt_secret to fail validation")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfigFile(t, "auth:\n  jwt_secret: file-secret\n")
	t.Setenv("ADMINBOARD_JWT_SECRET", "env-secret")

	c, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if c.Auth.JWTSecret != "env-secret" {
		t.Fatalf("expected env override, got %s", c.Auth.JWTSecret)
	}
}

func TestLoadRejectsInvertedTTLs(t *testing.T) {
	path := writeConfigFile(t, "auth:\n  jwt_secret: s\n  session_ttl_minutes: 72000\n  remember_ttl_days: 1\n")

	if _, errLoad := Load(path); errLoad == nil {
		t.Fatalf("expected session ttl longer than remember ttl to fail validation")
	}
}

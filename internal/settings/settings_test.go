package settings

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jzelenk/adminboard/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.Setting{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	// Each test starts from an empty snapshot.
	StoreDBConfig(time.Time{}, nil)
	return conn
}

func TestSnapshotDefaults(t *testing.T) {
	newTestDB(t)

	if PushEnabled() != DefaultPushEnabled {
		t.Fatalf("expected default push flag %v", DefaultPushEnabled)
	}
	if SiteName() != DefaultSiteName {
		t.Fatalf("expected default site name %q, got %q", DefaultSiteName, SiteName())
	}
}

func TestSetWritesAndRefreshes(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()

	if errSet := Set(ctx, conn, PushEnabledKey, true); errSet != nil {
		t.Fatalf("set push flag: %v", errSet)
	}
	if !PushEnabled() {
		t.Fatalf("expected push flag visible without explicit refresh")
	}

	if errSet := Set(ctx, conn, SiteNameKey, "Ops Console"); errSet != nil {
		t.Fatalf("set site name: %v", errSet)
	}
	if SiteName() != "Ops Console" {
		t.Fatalf("expected updated site name, got %q", SiteName())
	}

	// Overwriting the same key upserts, it never duplicates.
	if errSet := Set(ctx, conn, PushEnabledKey, false); errSet != nil {
		t.Fatalf("flip push flag: %v", errSet)
	}
	var rows int64
	if errCount := conn.Model(&models.Setting{}).Count(&rows).Error; errCount != nil {
		t.Fatalf("count settings: %v", errCount)
	}
	if rows != 2 {
		t.Fatalf("expected 2 setting rows, got %d", rows)
	}
	if PushEnabled() {
		t.Fatalf("expected push flag off after flip")
	}
}

func TestRefreshLoadsExistingRows(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()

	row := models.Setting{Key: SiteNameKey, Value: datatypes.JSON(`"Preseeded"`)}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("seed setting: %v", errCreate)
	}

	if errRefresh := RefreshDBConfigSnapshot(ctx, conn); errRefresh != nil {
		t.Fatalf("refresh: %v", errRefresh)
	}
	if SiteName() != "Preseeded" {
		t.Fatalf("expected preseeded site name, got %q", SiteName())
	}
}

func TestBoolValueIgnoresGarbage(t *testing.T) {
	StoreDBConfig(time.Now(), map[string]json.RawMessage{PushEnabledKey: []byte("not-json")})

	if BoolValue(PushEnabledKey, true) != true {
		t.Fatalf("expected fallback on malformed value")
	}
}

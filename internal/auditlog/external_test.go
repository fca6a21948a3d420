package auditlog

import (
	"context"
	"errors"
	"testing"

	"github.com/jzelenk/adminboard/internal/models"
)

func TestNormalizeExternalInputQueryOnly(t *testing.T) {
	input, errNorm := NormalizeExternalInput("x", "y", "1", nil)
	if errNorm != nil {
		t.Fatalf("normalize: %v", errNorm)
	}
	level, errValidate := input.Validate()
	if errValidate != nil {
		t.Fatalf("validate: %v", errValidate)
	}
	if input.Name != "x" || input.Message != "y" || level != 1 {
		t.Fatalf("unexpected input %+v level %d", input, level)
	}
}

func TestNormalizeExternalInputXMLOverridesQuery(t *testing.T) {
	body := []byte("<log><name>xml-name</name><message>xml-message</message><level>4</level></log>")

	input, errNorm := NormalizeExternalInput("query-name", "query-message", "1", body)
	if errNorm != nil {
		t.Fatalf("normalize: %v", errNorm)
	}
	level, errValidate := input.Validate()
	if errValidate != nil {
		t.Fatalf("validate: %v", errValidate)
	}
	if input.Name != "xml-name" || input.Message != "xml-message" || level != 4 {
		t.Fatalf("expected XML fields to win, got %+v level %d", input, level)
	}
}

func TestNormalizeExternalInputXMLPartialFallsBack(t *testing.T) {
	body := []byte("<log><name>xml-name</name></log>")

	input, errNorm := NormalizeExternalInput("query-name", "query-message", "2", body)
	if errNorm != nil {
		t.Fatalf("normalize: %v", errNorm)
	}
	if input.Name != "xml-name" || input.Message != "query-message" || input.Level != "2" {
		t.Fatalf("expected empty XML fields to fall back to query values, got %+v", input)
	}
}

func TestNormalizeExternalInputBadXML(t *testing.T) {
	_, errNorm := NormalizeExternalInput("", "", "", []byte("<log><name>oops"))
	var xmlErr *XMLError
	if !errors.As(errNorm, &xmlErr) {
		t.Fatalf("expected XMLError, got %v", errNorm)
	}
}

func TestValidateMissingFields(t *testing.T) {
	cases := []ExternalInput{
		{Name: "", Message: "m", Level: "1"},
		{Name: "n", Message: "", Level: "1"},
		{Name: "n", Message: "m", Level: ""},
		{Name: "n", Message: "m", Level: "zero"},
		{Name: "n", Message: "m", Level: "-3"},
	}
	for _, input := range cases {
		if _, errValidate := input.Validate(); !errors.Is(errValidate, ErrMissingParams) {
			t.Fatalf("expected ErrMissingParams for %+v, got %v", input, errValidate)
		}
	}
}

func TestAuthenticateExternalSharedToken(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	userID, errAuth := s.AuthenticateExternal(ctx, "shared-secret", "shared-secret")
	if errAuth != nil {
		t.Fatalf("authenticate shared: %v", errAuth)
	}
	if userID != nil {
		t.Fatalf("shared token should authenticate anonymously")
	}

	if _, errBad := s.AuthenticateExternal(ctx, "wrong", "shared-secret"); !errors.Is(errBad, ErrBadToken) {
		t.Fatalf("expected ErrBadToken, got %v", errBad)
	}
	if _, errEmpty := s.AuthenticateExternal(ctx, "", "shared-secret"); !errors.Is(errEmpty, ErrBadToken) {
		t.Fatalf("expected ErrBadToken for empty token, got %v", errEmpty)
	}
}

func TestAuthenticateExternalUserToken(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	allowed := models.User{Username: "api-user", Password: "x", Role: "USER", Token: "adb_allowed", AllowAPIAccess: true}
	blocked := models.User{Username: "no-api", Password: "x", Role: "USER", Token: "adb_blocked", AllowAPIAccess: false}
	if errCreate := s.db.Create(&allowed).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	if errCreate := s.db.Create(&blocked).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	userID, errAuth := s.AuthenticateExternal(ctx, "adb_allowed", "shared-secret")
	if errAuth != nil {
		t.Fatalf("authenticate user token: %v", errAuth)
	}
	if userID == nil || *userID != allowed.ID {
		t.Fatalf("expected user %d, got %v", allowed.ID, userID)
	}

	if _, errBlocked := s.AuthenticateExternal(ctx, "adb_blocked", "shared-secret"); !errors.Is(errBlocked, ErrBadToken) {
		t.Fatalf("expected ErrBadToken for token without api access, got %v", errBlocked)
	}
}

func TestRecordAPIAccess(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if errRecord := s.RecordAPIAccess(ctx, "/api/external/log", "POST", nil); errRecord != nil {
		t.Fatalf("record api access: %v", errRecord)
	}

	var count int64
	if errCount := s.db.Model(&models.APIAccessLog{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected 1 access row, got %d", count)
	}
}

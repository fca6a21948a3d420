package auditlog

import (
	"context"
	"crypto/subtle"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jzelenk/adminboard/internal/models"
	"gorm.io/gorm"
)

// External ingestion errors.
var (
	// ErrMissingParams indicates name, message, or level is absent or empty.
	ErrMissingParams = errors.New("auditlog: name, message and level are required")
	// ErrBadToken indicates the access token did not authenticate.
	ErrBadToken = errors.New("auditlog: access token is invalid")
)

// XMLError wraps an XML parse failure so the boundary can surface the detail.
type XMLError struct {
	Err error
}

// Error implements the error interface.
func (e *XMLError) Error() string {
	return fmt.Sprintf("invalid XML payload: %v", e.Err)
}

// Unwrap returns the underlying parse error.
func (e *XMLError) Unwrap() error { return e.Err }

// ExternalInput is the canonical ingestion payload. Both source formats
// (query parameters and XML body) normalize into it before validation, so
// the two can never diverge in validation behavior.
type ExternalInput struct {
	Name    string
	Message string
	Level   string
}

// xmlLogPayload mirrors the <log><name/><message/><level/></log> document.
type xmlLogPayload struct {
	XMLName xml.Name `xml:"log"`
	Name    string   `xml:"name"`
	Message string   `xml:"message"`
	Level   string   `xml:"level"`
}

// NormalizeExternalInput merges the query-parameter fields with an optional
// XML body into one canonical input. Non-empty XML fields take priority.
func NormalizeExternalInput(name, message, level string, xmlBody []byte) (ExternalInput, error) {
	input := ExternalInput{
		Name:    strings.TrimSpace(name),
		Message: message,
		Level:   strings.TrimSpace(level),
	}

	if len(xmlBody) > 0 {
		var payload xmlLogPayload
		if errDecode := xml.Unmarshal(xmlBody, &payload); errDecode != nil {
			return ExternalInput{}, &XMLError{Err: errDecode}
		}
		if strings.TrimSpace(payload.Name) != "" {
			input.Name = strings.TrimSpace(payload.Name)
		}
		if payload.Message != "" {
			input.Message = payload.Message
		}
		if strings.TrimSpace(payload.Level) != "" {
			input.Level = strings.TrimSpace(payload.Level)
		}
	}

	return input, nil
}

// Validate checks the canonical input and parses the level.
func (in ExternalInput) Validate() (int, error) {
	if in.Name == "" || in.Message == "" || in.Level == "" {
		return 0, ErrMissingParams
	}
	level, errParse := strconv.Atoi(in.Level)
	if errParse != nil || level <= 0 {
		return 0, ErrMissingParams
	}
	return level, nil
}

// AuthenticateExternal validates an external access token. The pre-shared
// token authenticates anonymously; a user token authenticates as that user
// when API access is allowed for it. The token is checked before any field
// is accepted.
func (s *Service) AuthenticateExternal(ctx context.Context, token, sharedToken string) (*uint64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrBadToken
	}

	if sharedToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(sharedToken)) == 1 {
		return nil, nil
	}

	var user models.User
	errFind := s.db.WithContext(ctx).
		Where("token = ? AND allow_api_access = ?", token, true).
		First(&user).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrBadToken
		}
		return nil, errFind
	}
	userID := user.ID
	return &userID, nil
}

// RecordAPIAccess appends one external API access row.
func (s *Service) RecordAPIAccess(ctx context.Context, url, method string, userID *uint64) error {
	row := models.APIAccessLog{
		URL:    url,
		Method: method,
		UserID: userID,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

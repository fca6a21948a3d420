package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/jzelenk/adminboard/internal/config"
	"github.com/jzelenk/adminboard/internal/db"
	"github.com/jzelenk/adminboard/internal/models"
	"github.com/jzelenk/adminboard/internal/security"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tokenRetryLimit bounds collision retries when rotating a single token.
const tokenRetryLimit = 3

// defaultReservedUsernames are blocked even when the config lists none.
var defaultReservedUsernames = []string{"admin", "administrator", "root", "system"}

// Manager implements the session/token contract: credential verification,
// session and remember-me token issuance and resolution, bootstrap
// registration, and token rotation.
type Manager struct {
	db  *gorm.DB
	cfg config.AuthConfig
}

// NewManager constructs a Manager.
func NewManager(conn *gorm.DB, cfg config.AuthConfig) *Manager {
	return &Manager{db: conn, cfg: cfg}
}

// LoginResult carries the issued tokens for cookie writing at the boundary.
type LoginResult struct {
	User          models.User
	SessionToken  string
	RememberToken string // Empty unless remember was requested.
}

// CanLogin verifies a username/password pair. It returns false for unknown
// usernames and wrong passwords alike, and burns a hash comparison on the
// unknown-username path so the two cases cost the same.
func (m *Manager) CanLogin(ctx context.Context, username, password string) bool {
	var user models.User
	if errFind := m.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; errFind != nil {
		security.BurnPasswordCheck(password)
		return false
	}
	return security.CheckPassword(user.Password, password)
}

// Login resolves the user, stamps last_login_time under a per-row lock, and
// issues the session token plus, when requested, a remember token bound to
// the user's stored token. The user vanishing between CanLogin and Login is
// reported as ErrInvalidCredentials, not assumed impossible.
func (m *Manager) Login(ctx context.Context, username string, remember bool) (*LoginResult, error) {
	var user models.User

	errTx := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("username = ?", username)
		if !db.IsSQLite(tx) {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if errFind := query.First(&user).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrInvalidCredentials
			}
			return errFind
		}

		now := time.Now().UTC()
		user.LastLoginTime = &now
		return tx.Model(&models.User{}).Where("id = ?", user.ID).
			Update("last_login_time", now).Error
	})
	if errTx != nil {
		return nil, errTx
	}

	sessionToken, errSession := security.GenerateSessionToken(m.cfg.JWTSecret, user.ID, user.Username, m.cfg.SessionTTL())
	if errSession != nil {
		return nil, errSession
	}

	result := &LoginResult{User: user, SessionToken: sessionToken}
	if remember {
		rememberToken, errRemember := security.GenerateRememberToken(m.cfg.JWTSecret, user.ID, user.Token, m.cfg.RememberTTL())
		if errRemember != nil {
			return nil, errRemember
		}
		result.RememberToken = rememberToken
	}
	return result, nil
}

// CurrentUser resolves the acting user from the session token, falling back
// to the remember token. A banned user resolves to a BannedError so access
// is revoked the moment a ban lands, not on next login.
func (m *Manager) CurrentUser(ctx context.Context, sessionToken, rememberToken string) (*models.User, error) {
	if sessionToken != "" {
		if claims, errParse := security.ParseSessionToken(m.cfg.JWTSecret, sessionToken); errParse == nil {
			return m.resolveUser(ctx, claims.UserID, "")
		}
	}
	if rememberToken != "" {
		if claims, errParse := security.ParseRememberToken(m.cfg.JWTSecret, rememberToken); errParse == nil {
			return m.resolveUser(ctx, claims.UserID, claims.Token)
		}
	}
	return nil, ErrUnauthenticated
}

// resolveUser loads a user by ID, optionally matching the stored token, and
// enforces ban state.
func (m *Manager) resolveUser(ctx context.Context, userID uint64, wantToken string) (*models.User, error) {
	var user models.User
	if errFind := m.db.WithContext(ctx).First(&user, userID).Error; errFind != nil {
		return nil, ErrUnauthenticated
	}
	if wantToken != "" && subtle.ConstantTimeCompare([]byte(wantToken), []byte(user.Token)) != 1 {
		return nil, ErrUnauthenticated
	}

	ban, errBan := m.ActiveBan(ctx, user.ID)
	if errBan != nil {
		return nil, errBan
	}
	if ban != nil {
		return nil, &BannedError{Reason: ban.Reason}
	}
	return &user, nil
}

// IsUserLoggedIn reports whether the tokens resolve to an existing,
// non-banned user.
func (m *Manager) IsUserLoggedIn(ctx context.Context, sessionToken, rememberToken string) bool {
	_, err := m.CurrentUser(ctx, sessionToken, rememberToken)
	return err == nil
}

// RegisterUser creates the bootstrap account. Registration is only open
// while the user store is empty; the first account gets the OWNER role.
func (m *Manager) RegisterUser(ctx context.Context, username, password, ipAddress, userAgent string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrValidation
	}
	if m.isReservedUsername(username) {
		return nil, ErrReservedUsername
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return nil, errHash
	}
	token, errToken := security.GenerateUserToken()
	if errToken != nil {
		return nil, errToken
	}

	user := models.User{
		Username:  username,
		Password:  hash,
		Role:      string(RoleOwner),
		Token:     token,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}

	errTx := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if errCount := tx.Model(&models.User{}).Count(&count).Error; errCount != nil {
			return errCount
		}
		if count > 0 {
			return ErrRegistrationClosed
		}
		if errCreate := tx.Create(&user).Error; errCreate != nil {
			if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return errCreate
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &user, nil
}

// isReservedUsername checks the configured and built-in blocked lists.
func (m *Manager) isReservedUsername(username string) bool {
	lower := strings.ToLower(username)
	for _, reserved := range defaultReservedUsernames {
		if lower == reserved {
			return true
		}
	}
	for _, reserved := range m.cfg.ReservedUsernames {
		if lower == strings.ToLower(strings.TrimSpace(reserved)) {
			return true
		}
	}
	return false
}

// RegenerateUsersTokens rotates every user's token inside one transaction.
// Any failure rolls the whole rotation back and is reported in the result,
// so concurrent logins see either the old token set or the new one.
func (m *Manager) RegenerateUsersTokens(ctx context.Context) OpResult {
	errTx := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users []models.User
		if errFind := tx.Select("id").Find(&users).Error; errFind != nil {
			return errFind
		}
		for _, user := range users {
			token, errToken := security.GenerateUserToken()
			if errToken != nil {
				return errToken
			}
			if errUpdate := tx.Model(&models.User{}).Where("id = ?", user.ID).
				Update("token", token).Error; errUpdate != nil {
				return errUpdate
			}
		}
		return nil
	})
	if errTx != nil {
		return OpResult{Status: false, Message: errTx.Error()}
	}
	return OpResult{Status: true, Message: "all user tokens regenerated"}
}

// RegenerateOneUserToken rotates a single user's token, retrying generation
// when the unique constraint reports a collision.
func (m *Manager) RegenerateOneUserToken(ctx context.Context, userID uint64) (string, error) {
	var user models.User
	if errFind := m.db.WithContext(ctx).First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", errFind
	}

	var lastErr error
	for attempt := 0; attempt < tokenRetryLimit; attempt++ {
		token, errToken := security.GenerateUserToken()
		if errToken != nil {
			return "", errToken
		}
		errUpdate := m.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
			Update("token", token).Error
		if errUpdate == nil {
			return token, nil
		}
		if !errors.Is(errUpdate, gorm.ErrDuplicatedKey) {
			return "", errUpdate
		}
		lastErr = errUpdate
	}
	return "", lastErr
}

// ActiveBan returns the user's active ban, nil when there is none.
func (m *Manager) ActiveBan(ctx context.Context, userID uint64) (*models.Ban, error) {
	var ban models.Ban
	errFind := m.db.WithContext(ctx).
		Where("banned_user_id = ? AND status = ?", userID, models.BanStatusActive).
		Order("time DESC").
		First(&ban).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errFind
	}
	return &ban, nil
}

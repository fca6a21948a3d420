package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/jzelenk/adminboard/internal/config"
	"github.com/jzelenk/adminboard/internal/db"
	"github.com/jzelenk/adminboard/internal/models"
	"github.com/jzelenk/adminboard/internal/security"
	"gorm.io/gorm"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	cfg := config.AuthConfig{
		JWTSecret:         "test-secret",
		SessionCookie:     "session",
		RememberCookie:    "remember",
		SessionTTLMinutes: 60,
		RememberTTLDays:   30,
	}
	return NewManager(conn, cfg)
}

func createTestUser(t *testing.T, m *Manager, username, password string, role Role) *models.User {
	t.Helper()

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	token, errToken := security.GenerateUserToken()
	if errToken != nil {
		t.Fatalf("generate token: %v", errToken)
	}
	user := models.User{
		Username: username,
		Password: hash,
		Role:     string(role),
		Token:    token,
	}
	if errCreate := m.db.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	return &user
}

func TestCanLoginRejectsUnknownUserAndWrongPassword(t *testing.T) {
	m := newTestManager(t)
	createTestUser(t, m, "alice", "correct-horse", RoleUser)

	ctx := context.Background()
	if !m.CanLogin(ctx, "alice", "correct-horse") {
		t.Fatalf("expected valid credentials to pass")
	}
	if m.CanLogin(ctx, "alice", "wrong") {
		t.Fatalf("expected wrong password to fail")
	}
	if m.CanLogin(ctx, "nobody", "correct-horse") {
		t.Fatalf("expected unknown username to fail")
	}
}

func TestLoginStampsLastLoginAndIssuesTokens(t *testing.T) {
	m := newTestManager(t)
	user := createTestUser(t, m, "alice", "pw", RoleUser)
	ctx := context.Background()

	result, errLogin := m.Login(ctx, "alice", true)
	if errLogin != nil {
		t.Fatalf("login: %v", errLogin)
	}
	if result.SessionToken == "" || result.RememberToken == "" {
		t.Fatalf("expected both tokens, got %+v", result)
	}

	var reloaded models.User
	if errFind := m.db.First(&reloaded, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if reloaded.LastLoginTime == nil {
		t.Fatalf("expected last_login_time to be set")
	}

	claims, errParse := security.ParseRememberToken("test-secret", result.RememberToken)
	if errParse != nil {
		t.Fatalf("parse remember token: %v", errParse)
	}
	if claims.Token != user.Token {
		t.Fatalf("remember token not bound to stored token")
	}
}

func TestLoginUnknownUserIsInvalidCredentials(t *testing.T) {
	m := newTestManager(t)

	if _, errLogin := m.Login(context.Background(), "ghost", false); !errors.Is(errLogin, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", errLogin)
	}
}

func TestCurrentUserResolvesSessionThenRemember(t *testing.T) {
	m := newTestManager(t)
	createTestUser(t, m, "alice", "pw", RoleUser)
	ctx := context.Background()

	result, errLogin := m.Login(ctx, "alice", true)
	if errLogin != nil {
		t.Fatalf("login: %v", errLogin)
	}

	bySession, errSession := m.CurrentUser(ctx, result.SessionToken, "")
	if errSession != nil {
		t.Fatalf("current user by session: %v", errSession)
	}
	if bySession.Username != "alice" {
		t.Fatalf("unexpected user %s", bySession.Username)
	}

	byRemember, errRemember := m.CurrentUser(ctx, "", result.RememberToken)
	if errRemember != nil {
		t.Fatalf("current user by remember: %v", errRemember)
	}
	if byRemember.Username != "alice" {
		t.Fatalf("unexpected user %s", byRemember.Username)
	}

	if m.IsUserLoggedIn(ctx, "", "") {
		t.Fatalf("expected empty tokens to be logged out")
	}
	if m.IsUserLoggedIn(ctx, "garbage", "garbage") {
		t.Fatalf("expected garbage tokens to be logged out")
	}
}

func TestRememberTokenInvalidatedByBulkRotation(t *testing.T) {
	m := newTestManager(t)
	createTestUser(t, m, "alice", "pw", RoleUser)
	ctx := context.Background()

	result, errLogin := m.Login(ctx, "alice", true)
	if errLogin != nil {
		t.Fatalf("login: %v", errLogin)
	}

	op := m.RegenerateUsersTokens(ctx)
	if !op.Status {
		t.Fatalf("regenerate tokens failed: %s", op.Message)
	}

	if _, errStale := m.CurrentUser(ctx, "", result.RememberToken); !errors.Is(errStale, ErrUnauthenticated) {
		t.Fatalf("expected stale remember token to be rejected, got %v", errStale)
	}
}

func TestRegisterUserBootstrapOnly(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first, errFirst := m.RegisterUser(ctx, "founder", "pw", "127.0.0.1", "test-agent")
	if errFirst != nil {
		t.Fatalf("register first user: %v", errFirst)
	}
	if first.Role != string(RoleOwner) {
		t.Fatalf("expected bootstrap user to be OWNER, got %s", first.Role)
	}
	if first.Token == "" {
		t.Fatalf("expected bootstrap user to receive a token")
	}

	if _, errSecond := m.RegisterUser(ctx, "second", "pw", "", ""); !errors.Is(errSecond, ErrRegistrationClosed) {
		t.Fatalf("expected ErrRegistrationClosed, got %v", errSecond)
	}
}

func TestRegisterUserRejectsReservedUsername(t *testing.T) {
	m := newTestManager(t)

	if _, errReserved := m.RegisterUser(context.Background(), "root", "pw", "", ""); !errors.Is(errReserved, ErrReservedUsername) {
		t.Fatalf("expected ErrReservedUsername, got %v", errReserved)
	}
}

func TestRegenerateUsersTokensChangesEveryToken(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	before := map[uint64]string{}
	for _, name := range []string{"a", "b", "c"} {
		user := createTestUser(t, m, name, "pw", RoleUser)
		before[user.ID] = user.Token
	}

	op := m.RegenerateUsersTokens(ctx)
	if !op.Status {
		t.Fatalf("regenerate tokens failed: %s", op.Message)
	}

	var users []models.User
	if errFind := m.db.Find(&users).Error; errFind != nil {
		t.Fatalf("list users: %v", errFind)
	}
	if len(users) != len(before) {
		t.Fatalf("row count changed: %d != %d", len(users), len(before))
	}
	for _, user := range users {
		if user.Token == before[user.ID] {
			t.Fatalf("token for user %d unchanged", user.ID)
		}
	}
}

func TestRegenerateOneUserToken(t *testing.T) {
	m := newTestManager(t)
	user := createTestUser(t, m, "alice", "pw", RoleUser)
	ctx := context.Background()

	newToken, errRotate := m.RegenerateOneUserToken(ctx, user.ID)
	if errRotate != nil {
		t.Fatalf("regenerate one token: %v", errRotate)
	}
	if newToken == user.Token {
		t.Fatalf("expected token to change")
	}

	if _, errMissing := m.RegenerateOneUserToken(ctx, 9999); !errors.Is(errMissing, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", errMissing)
	}
}

func TestBanRoundTrip(t *testing.T) {
	m := newTestManager(t)
	owner := createTestUser(t, m, "owner", "pw", RoleOwner)
	target := createTestUser(t, m, "target", "pw", RoleUser)
	ctx := context.Background()

	ban, errBan := m.BanUser(ctx, owner, target.ID, "spamming")
	if errBan != nil {
		t.Fatalf("ban: %v", errBan)
	}

	banned, errIs := m.IsBanned(ctx, target.ID)
	if errIs != nil || !banned {
		t.Fatalf("expected target banned, got %v %v", banned, errIs)
	}
	reason, errReason := m.BanReason(ctx, target.ID)
	if errReason != nil || reason != "spamming" {
		t.Fatalf("expected reason spamming, got %q %v", reason, errReason)
	}

	if errUnban := m.UnbanUser(ctx, owner, target.ID); errUnban != nil {
		t.Fatalf("unban: %v", errUnban)
	}
	banned, errIs = m.IsBanned(ctx, target.ID)
	if errIs != nil || banned {
		t.Fatalf("expected target unbanned, got %v %v", banned, errIs)
	}

	var row models.Ban
	if errFind := m.db.First(&row, ban.ID).Error; errFind != nil {
		t.Fatalf("expected lifted ban row to survive: %v", errFind)
	}
	if row.Status != models.BanStatusLifted {
		t.Fatalf("expected status lifted, got %s", row.Status)
	}
}

func TestBanRevokesAccessImmediately(t *testing.T) {
	m := newTestManager(t)
	owner := createTestUser(t, m, "owner", "pw", RoleOwner)
	createTestUser(t, m, "victim", "pw", RoleUser)
	ctx := context.Background()

	result, errLogin := m.Login(ctx, "victim", false)
	if errLogin != nil {
		t.Fatalf("login: %v", errLogin)
	}
	if _, errActive := m.CurrentUser(ctx, result.SessionToken, ""); errActive != nil {
		t.Fatalf("expected session valid before ban: %v", errActive)
	}

	if _, errBan := m.BanUser(ctx, owner, result.User.ID, "abuse"); errBan != nil {
		t.Fatalf("ban: %v", errBan)
	}

	_, errBanned := m.CurrentUser(ctx, result.SessionToken, "")
	if !errors.Is(errBanned, ErrBanned) {
		t.Fatalf("expected ErrBanned, got %v", errBanned)
	}
	var bannedErr *BannedError
	if !errors.As(errBanned, &bannedErr) || bannedErr.Reason != "abuse" {
		t.Fatalf("expected ban reason to surface, got %v", errBanned)
	}
}

func TestBanGuardrails(t *testing.T) {
	m := newTestManager(t)
	admin := createTestUser(t, m, "adm", "pw", RoleAdmin)
	peer := createTestUser(t, m, "peer", "pw", RoleAdmin)
	owner := createTestUser(t, m, "owner", "pw", RoleOwner)
	target := createTestUser(t, m, "target", "pw", RoleUser)
	ctx := context.Background()

	if _, errPeer := m.BanUser(ctx, admin, peer.ID, "r"); !errors.Is(errPeer, ErrPrivilege) {
		t.Fatalf("expected ErrPrivilege for equal-rank ban, got %v", errPeer)
	}
	if _, errUp := m.BanUser(ctx, admin, owner.ID, "r"); !errors.Is(errUp, ErrPrivilege) {
		t.Fatalf("expected ErrPrivilege for higher-rank ban, got %v", errUp)
	}
	if _, errSelf := m.BanUser(ctx, admin, admin.ID, "r"); !errors.Is(errSelf, ErrSelfAction) {
		t.Fatalf("expected ErrSelfAction for self ban, got %v", errSelf)
	}

	if _, errBan := m.BanUser(ctx, owner, target.ID, "r"); errBan != nil {
		t.Fatalf("ban: %v", errBan)
	}
	if _, errDup := m.BanUser(ctx, owner, target.ID, "again"); !errors.Is(errDup, ErrConflict) {
		t.Fatalf("expected ErrConflict for second active ban, got %v", errDup)
	}
}

func TestChangeRoleGuardrails(t *testing.T) {
	m := newTestManager(t)
	owner := createTestUser(t, m, "owner", "pw", RoleOwner)
	admin := createTestUser(t, m, "adm", "pw", RoleAdmin)
	user := createTestUser(t, m, "plain", "pw", RoleUser)
	ctx := context.Background()

	if errPromote := m.ChangeRole(ctx, owner, user.ID, RoleAdmin); errPromote != nil {
		t.Fatalf("owner promoting user: %v", errPromote)
	}
	if errElevate := m.ChangeRole(ctx, admin, user.ID, RoleAdmin); !errors.Is(errElevate, ErrPrivilege) {
		t.Fatalf("expected ErrPrivilege when elevating to own rank, got %v", errElevate)
	}
	if errBad := m.ChangeRole(ctx, owner, user.ID, Role("WIZARD")); !errors.Is(errBad, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown role, got %v", errBad)
	}
}

func TestDeleteUserPreservesAuditTrail(t *testing.T) {
	m := newTestManager(t)
	owner := createTestUser(t, m, "owner", "pw", RoleOwner)
	admin := createTestUser(t, m, "adm", "pw", RoleAdmin)
	victim := createTestUser(t, m, "victim", "pw", RoleUser)
	ctx := context.Background()

	if _, errBan := m.BanUser(ctx, admin, victim.ID, "r"); errBan != nil {
		t.Fatalf("ban: %v", errBan)
	}
	adminID := admin.ID
	entry := models.LogEntry{Name: "test", Message: "m", Level: 1, UserID: &adminID, Status: models.LogStatusUnread}
	if errLog := m.db.Create(&entry).Error; errLog != nil {
		t.Fatalf("create log entry: %v", errLog)
	}

	if errDelete := m.DeleteUser(ctx, owner, admin.ID); errDelete != nil {
		t.Fatalf("delete: %v", errDelete)
	}

	var reloadedEntry models.LogEntry
	if errFind := m.db.First(&reloadedEntry, entry.ID).Error; errFind != nil {
		t.Fatalf("log entry should survive: %v", errFind)
	}
	if reloadedEntry.UserID != nil {
		t.Fatalf("expected log entry user reference cleared")
	}

	var ban models.Ban
	if errFind := m.db.Where("banned_user_id = ?", victim.ID).First(&ban).Error; errFind != nil {
		t.Fatalf("victim ban should survive: %v", errFind)
	}
	if ban.BannedByID != nil {
		t.Fatalf("expected issuer reference cleared")
	}
}

func TestUpdatePasswordVerifiesCurrent(t *testing.T) {
	m := newTestManager(t)
	user := createTestUser(t, m, "alice", "old-pw", RoleUser)
	ctx := context.Background()

	if errWrong := m.UpdatePassword(ctx, user.ID, "bad", "new-pw"); !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", errWrong)
	}
	if errChange := m.UpdatePassword(ctx, user.ID, "old-pw", "new-pw"); errChange != nil {
		t.Fatalf("update password: %v", errChange)
	}
	if !m.CanLogin(ctx, "alice", "new-pw") {
		t.Fatalf("expected new password to work")
	}
	if m.CanLogin(ctx, "alice", "old-pw") {
		t.Fatalf("expected old password to stop working")
	}
}

func TestUpdateUsernameConflictAndReserved(t *testing.T) {
	m := newTestManager(t)
	createTestUser(t, m, "alice", "pw", RoleUser)
	bob := createTestUser(t, m, "bob", "pw", RoleUser)
	ctx := context.Background()

	if errConflict := m.UpdateUsername(ctx, bob.ID, "alice"); !errors.Is(errConflict, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", errConflict)
	}
	if errReserved := m.UpdateUsername(ctx, bob.ID, "system"); !errors.Is(errReserved, ErrReservedUsername) {
		t.Fatalf("expected ErrReservedUsername, got %v", errReserved)
	}
	if errOK := m.UpdateUsername(ctx, bob.ID, "robert"); errOK != nil {
		t.Fatalf("update username: %v", errOK)
	}
}

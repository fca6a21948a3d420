package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jzelenk/adminboard/internal/models"
	"github.com/jzelenk/adminboard/internal/security"
	"gorm.io/gorm"
)

// FindUserByID loads one user.
func (m *Manager) FindUserByID(ctx context.Context, userID uint64) (*models.User, error) {
	var user models.User
	if errFind := m.db.WithContext(ctx).First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errFind
	}
	return &user, nil
}

// ListUsers returns all users ordered by registration time.
func (m *Manager) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if errFind := m.db.WithContext(ctx).Order("register_time ASC").Find(&users).Error; errFind != nil {
		return nil, errFind
	}
	return users, nil
}

// BanUser issues a ban against the target. The guardrail table is enforced,
// a second active ban is rejected, and the ban row is the only write.
func (m *Manager) BanUser(ctx context.Context, actor *models.User, targetID uint64, reason string) (*models.Ban, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrValidation
	}

	var ban models.Ban
	errTx := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.User
		if errFind := tx.First(&target, targetID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}
		if errGuard := CanActOn(actor, &target, ActionBan); errGuard != nil {
			return errGuard
		}

		var existing int64
		if errCount := tx.Model(&models.Ban{}).
			Where("banned_user_id = ? AND status = ?", targetID, models.BanStatusActive).
			Count(&existing).Error; errCount != nil {
			return errCount
		}
		if existing > 0 {
			return ErrConflict
		}

		actorID := actor.ID
		ban = models.Ban{
			BannedUserID: targetID,
			BannedByID:   &actorID,
			Reason:       reason,
			Status:       models.BanStatusActive,
		}
		return tx.Create(&ban).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return &ban, nil
}

// UnbanUser lifts the target's active ban. The row is kept with its status
// flipped, never deleted.
func (m *Manager) UnbanUser(ctx context.Context, actor *models.User, targetID uint64) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.User
		if errFind := tx.First(&target, targetID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}
		if errGuard := CanActOn(actor, &target, ActionUnban); errGuard != nil {
			return errGuard
		}

		result := tx.Model(&models.Ban{}).
			Where("banned_user_id = ? AND status = ?", targetID, models.BanStatusActive).
			Update("status", models.BanStatusLifted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// IsBanned reports whether the user has an active ban.
func (m *Manager) IsBanned(ctx context.Context, userID uint64) (bool, error) {
	ban, errBan := m.ActiveBan(ctx, userID)
	if errBan != nil {
		return false, errBan
	}
	return ban != nil, nil
}

// BanReason returns the active ban reason, empty when the user is not banned.
func (m *Manager) BanReason(ctx context.Context, userID uint64) (string, error) {
	ban, errBan := m.ActiveBan(ctx, userID)
	if errBan != nil {
		return "", errBan
	}
	if ban == nil {
		return "", nil
	}
	return ban.Reason, nil
}

// ChangeRole assigns a new role to the target. The actor must outrank both
// the target's current role and the new one, so nobody can promote an
// account to their own level or above.
func (m *Manager) ChangeRole(ctx context.Context, actor *models.User, targetID uint64, newRole Role) error {
	if !newRole.Valid() {
		return ErrValidation
	}
	if !Role(actor.Role).Outranks(newRole) {
		return ErrPrivilege
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.User
		if errFind := tx.First(&target, targetID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}
		if errGuard := CanActOn(actor, &target, ActionChangeRole); errGuard != nil {
			return errGuard
		}
		return tx.Model(&models.User{}).Where("id = ?", targetID).
			Update("role", string(newRole)).Error
	})
}

// DeleteUser removes a user account. Audit rows survive: log entries and
// issued bans keep their data with the user reference cleared, while the
// target's own ban rows and subscriptions go with the account.
func (m *Manager) DeleteUser(ctx context.Context, actor *models.User, targetID uint64) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.User
		if errFind := tx.First(&target, targetID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}
		if errGuard := CanActOn(actor, &target, ActionDelete); errGuard != nil {
			return errGuard
		}

		if errLogs := tx.Model(&models.LogEntry{}).Where("user_id = ?", targetID).
			Update("user_id", nil).Error; errLogs != nil {
			return errLogs
		}
		if errIssued := tx.Model(&models.Ban{}).Where("banned_by_id = ?", targetID).
			Update("banned_by_id", nil).Error; errIssued != nil {
			return errIssued
		}
		if errBans := tx.Where("banned_user_id = ?", targetID).
			Delete(&models.Ban{}).Error; errBans != nil {
			return errBans
		}
		if errSubs := tx.Where("user_id = ?", targetID).
			Delete(&models.Subscriber{}).Error; errSubs != nil {
			return errSubs
		}
		return tx.Delete(&models.User{}, targetID).Error
	})
}

// UpdateUsername changes the caller's own username.
func (m *Manager) UpdateUsername(ctx context.Context, userID uint64, newUsername string) error {
	newUsername = strings.TrimSpace(newUsername)
	if newUsername == "" {
		return ErrValidation
	}
	if m.isReservedUsername(newUsername) {
		return ErrReservedUsername
	}

	errUpdate := m.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("username", newUsername).Error
	if errUpdate != nil {
		if errors.Is(errUpdate, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return errUpdate
	}
	return nil
}

// UpdatePassword changes the caller's own password after verifying the
// current one.
func (m *Manager) UpdatePassword(ctx context.Context, userID uint64, currentPassword, newPassword string) error {
	if newPassword == "" {
		return ErrValidation
	}

	user, errFind := m.FindUserByID(ctx, userID)
	if errFind != nil {
		return errFind
	}
	if !security.CheckPassword(user.Password, currentPassword) {
		return ErrInvalidCredentials
	}

	hash, errHash := security.HashPassword(newPassword)
	if errHash != nil {
		return errHash
	}
	return m.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("password", hash).Error
}

// UpdateProfilePic sets the caller's profile picture reference.
func (m *Manager) UpdateProfilePic(ctx context.Context, userID uint64, profilePic string) error {
	return m.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("profile_pic", strings.TrimSpace(profilePic)).Error
}

// SetAllowAPIAccess toggles whether the user's token may call the external API.
func (m *Manager) SetAllowAPIAccess(ctx context.Context, actor *models.User, targetID uint64, allow bool) error {
	var target models.User
	if errFind := m.db.WithContext(ctx).First(&target, targetID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return errFind
	}
	if actor.ID != target.ID {
		if errGuard := CanActOn(actor, &target, ActionChangeRole); errGuard != nil {
			return errGuard
		}
	}
	return m.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", targetID).
		Update("allow_api_access", allow).Error
}

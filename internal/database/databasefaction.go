package database

import (
	"context"
	"errors"
	"fmt"

	"factionbot/internal/common"
	"factionbot/internal/faction"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DatabaseFaction stores factions, memberships, wars and trusted roles
type DatabaseFaction struct {
	common.Database
}

var _ faction.Store = (*DatabaseFaction)(nil)

// Open the database in the provided file, creating the tables if needed.
// An empty filename keeps everything in memory
func NewDatabaseFaction(filename string) (*DatabaseFaction, error) {

	db, err := common.OpenDatabase(filename)
	if err != nil {
		return nil, err
	}
	for _, model := range migrateModels {
		log.Debug().Msgf("Creating table %T", model)
		if err := db.DB.AutoMigrate(model); err != nil {
			db.Close()
			return nil, fmt.Errorf("could not create table for %T: %w", model, err)
		}
	}
	return &DatabaseFaction{db}, nil
}

func (db *DatabaseFaction) conn(ctx context.Context) *gorm.DB {
	return db.DB.WithContext(ctx)
}

func (db *DatabaseFaction) InsertFaction(ctx context.Context, name string) error {
	created, err := db.EnsureFaction(ctx, name)
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("faction %s: %w", name, faction.ErrAlreadyExists)
	}
	return nil
}

func (db *DatabaseFaction) EnsureFaction(ctx context.Context, name string) (bool, error) {
	result := db.conn(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&factionModel{Name: name})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (db *DatabaseFaction) DeleteFaction(ctx context.Context, name string) error {
	return db.conn(ctx).Where("name = ?", name).Delete(&factionModel{}).Error
}

func (db *DatabaseFaction) GetFaction(ctx context.Context, name string) (faction.Faction, error) {
	var m factionModel
	err := db.conn(ctx).Where("name = ?", name).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return faction.Faction{}, fmt.Errorf("faction %s: %w", name, faction.ErrNotFound)
	} else if err != nil {
		return faction.Faction{}, err
	}
	return m.toFaction(), nil
}

func (db *DatabaseFaction) ListFactions(ctx context.Context) ([]faction.Faction, error) {
	rows := make([]factionModel, 0)
	if err := db.conn(ctx).Order("points DESC").Order("rowid ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]faction.Faction, 0, len(rows))
	for _, m := range rows {
		result = append(result, m.toFaction())
	}
	return result, nil
}

func (db *DatabaseFaction) AddPoints(ctx context.Context, name string, points int) error {
	return db.conn(ctx).
		Model(&factionModel{}).
		Where("name = ?", name).
		Update("points", gorm.Expr("points + ?", points)).Error
}

func (db *DatabaseFaction) ResetPoints(ctx context.Context) error {
	return db.conn(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&factionModel{}).
		Update("points", 0).Error
}

func (db *DatabaseFaction) SetLeader(ctx context.Context, name string, userID string) error {
	return db.conn(ctx).
		Model(&factionModel{}).
		Where("name = ?", name).
		Update("leader", userID).Error
}

func (db *DatabaseFaction) GetMembership(ctx context.Context, userID string) (faction.Membership, bool, error) {
	var m userModel
	err := db.conn(ctx).Where("user_id = ?", userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return faction.Membership{}, false, nil
	} else if err != nil {
		return faction.Membership{}, false, err
	}
	return m.toMembership(), true, nil
}

func (db *DatabaseFaction) ClaimMembership(ctx context.Context, userID string, name string) (bool, error) {

	// First time we see this user
	result := db.conn(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&userModel{UserID: userID, Faction: &name})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	// Known user, only take it if unaffiliated. The check-in day is untouched
	result = db.conn(ctx).
		Model(&userModel{}).
		Where("user_id = ? AND faction IS NULL", userID).
		Update("faction", name)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (db *DatabaseFaction) ReleaseMembership(ctx context.Context, userID string, name string) (bool, error) {
	result := db.conn(ctx).
		Model(&userModel{}).
		Where("user_id = ? AND faction = ?", userID, name).
		Update("faction", nil)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (db *DatabaseFaction) ClearFaction(ctx context.Context, name string) (int64, error) {
	result := db.conn(ctx).
		Model(&userModel{}).
		Where("faction = ?", name).
		Update("faction", nil)
	return result.RowsAffected, result.Error
}

func (db *DatabaseFaction) ListMembers(ctx context.Context, name string) ([]string, error) {
	members := make([]string, 0)
	err := db.conn(ctx).
		Model(&userModel{}).
		Where("faction = ?", name).
		Order("rowid ASC").
		Pluck("user_id", &members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (db *DatabaseFaction) CountMembers(ctx context.Context, name string) (int64, error) {
	var count int64
	err := db.conn(ctx).Model(&userModel{}).Where("faction = ?", name).Count(&count).Error
	return count, err
}

func (db *DatabaseFaction) MarkCheckin(ctx context.Context, userID string, day string) (bool, error) {
	result := db.conn(ctx).
		Model(&userModel{}).
		Where("user_id = ? AND (last_checkin IS NULL OR last_checkin <> ?)", userID, day).
		Update("last_checkin", day)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (db *DatabaseFaction) InsertWar(ctx context.Context, war faction.War) error {
	return db.conn(ctx).Create(&warModel{
		Faction1: war.Faction1,
		Faction2: war.Faction2,
		Active:   war.Active,
	}).Error
}

func (db *DatabaseFaction) ListWars(ctx context.Context) ([]faction.War, error) {
	rows := make([]warModel, 0)
	if err := db.conn(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	wars := make([]faction.War, 0, len(rows))
	for _, m := range rows {
		wars = append(wars, faction.War{Faction1: m.Faction1, Faction2: m.Faction2, Active: m.Active})
	}
	return wars, nil
}

func (db *DatabaseFaction) TrustRole(ctx context.Context, roleID string) error {
	return db.conn(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&trustedRoleModel{RoleID: roleID}).Error
}

func (db *DatabaseFaction) TrustedRoles(ctx context.Context) ([]string, error) {
	roles := make([]string, 0)
	if err := db.conn(ctx).Model(&trustedRoleModel{}).Pluck("role_id", &roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (m factionModel) toFaction() faction.Faction {
	f := faction.Faction{Name: m.Name, Points: m.Points}
	if m.Leader != nil {
		f.Leader = *m.Leader
	}
	return f
}

func (m userModel) toMembership() faction.Membership {
	membership := faction.Membership{UserID: m.UserID}
	if m.Faction != nil {
		membership.Faction = *m.Faction
	}
	if m.LastCheckin != nil {
		membership.LastCheckin = *m.LastCheckin
	}
	return membership
}

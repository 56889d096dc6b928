package database

type factionModel struct {
	Name   string  `gorm:"column:name;primaryKey"`
	Points int     `gorm:"column:points;not null;default:0"`
	Leader *string `gorm:"column:leader"`
}

func (factionModel) TableName() string { return "factions" }

type userModel struct {
	UserID      string  `gorm:"column:user_id;primaryKey"`
	Faction     *string `gorm:"column:faction;index"`
	LastCheckin *string `gorm:"column:last_checkin"`
}

func (userModel) TableName() string { return "users" }

type warModel struct {
	ID       uint   `gorm:"primaryKey"`
	Faction1 string `gorm:"column:faction1;not null"`
	Faction2 string `gorm:"column:faction2;not null"`
	Active   bool   `gorm:"column:active;not null"`
}

func (warModel) TableName() string { return "wars" }

type trustedRoleModel struct {
	RoleID string `gorm:"column:role_id;primaryKey"`
}

func (trustedRoleModel) TableName() string { return "trusted_roles" }

var migrateModels = []any{
	&factionModel{},
	&userModel{},
	&warModel{},
	&trustedRoleModel{},
}

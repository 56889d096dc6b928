package bot

import (
	"github.com/bwmarrin/discordgo"
)

const (
	COMMAND_FACTION_CREATE        = "faction-create"
	COMMAND_FACTION_DELETE        = "faction-delete"
	COMMAND_FACTION_JOIN          = "faction-join"
	COMMAND_FACTION_LEAVE         = "faction-leave"
	COMMAND_FACTION_LEADER        = "faction-leader"
	COMMAND_CHECKIN               = "checkin"
	COMMAND_LEADERBOARD           = "leaderboard"
	COMMAND_WEEKLY_RESET          = "weekly-reset"
	COMMAND_WAR_DECLARE           = "war-declare"
	COMMAND_HELP                  = "help"
	COMMAND_FACTION_ADD_MEMBER    = "faction-add-member"
	COMMAND_FACTION_REMOVE_MEMBER = "faction-remove-member"
	COMMAND_FACTION_INFO          = "faction-info"
	COMMAND_FACTION_MEMBERS       = "faction-members"
	COMMAND_TRUST_ROLE            = "trust-role"
	COMMAND_DM                    = "dm"
	COMMAND_URGENT_DM             = "urgentdm"
)

type Privilege int

const (
	PRIVILEGE_NONE    Privilege = iota // Anyone
	PRIVILEGE_TRUSTED                  // Administrators and trusted roles
	PRIVILEGE_ADMIN                    // Administrators only
)

// Command is one of the commands the bot understands.
// Only the types in this file implement it
type Command interface {
	command()
}

type FactionCreate struct{ Name string }
type FactionDelete struct{ Name string }
type FactionJoin struct{ Name string }
type FactionLeave struct{}
type FactionLeader struct{ UserID, Faction string }
type CheckIn struct{}
type Leaderboard struct{}
type WeeklyReset struct{}
type WarDeclare struct{ Enemy string }
type Help struct{}
type FactionAddMember struct{ UserID, Faction string }
type FactionRemoveMember struct{ UserID, Faction string }
type FactionInfo struct{ Faction string }
type FactionMembers struct{ Faction string }
type TrustRole struct{ RoleID, RoleName string }
type DirectMessage struct{ Message, UserID, RoleID string }
type UrgentMessage struct{ Subject, Ministry, Message, RoleID string }

func (FactionCreate) command()       {}
func (FactionDelete) command()       {}
func (FactionJoin) command()         {}
func (FactionLeave) command()        {}
func (FactionLeader) command()       {}
func (CheckIn) command()             {}
func (Leaderboard) command()         {}
func (WeeklyReset) command()         {}
func (WarDeclare) command()          {}
func (Help) command()                {}
func (FactionAddMember) command()    {}
func (FactionRemoveMember) command() {}
func (FactionInfo) command()         {}
func (FactionMembers) command()      {}
func (TrustRole) command()           {}
func (DirectMessage) command()       {}
func (UrgentMessage) command()       {}

type commandSpec struct {
	name        string
	description string
	options     []*discordgo.ApplicationCommandOption
	adminOnly   bool // Hidden from non administrators unless the server says otherwise
	privilege   Privilege
}

var commandSpecs = []commandSpec{
	{
		name:        COMMAND_FACTION_CREATE,
		description: "Create a faction",
		options:     options(stringOption("name", "Faction name", true)),
		adminOnly:   true,
		privilege:   PRIVILEGE_TRUSTED,
	},
	{
		name:        COMMAND_FACTION_DELETE,
		description: "Delete a faction",
		options:     options(stringOption("name", "Faction name", true)),
		adminOnly:   true,
		privilege:   PRIVILEGE_TRUSTED,
	},
	{
		name:        COMMAND_FACTION_JOIN,
		description: "Join a faction",
		options:     options(stringOption("name", "Faction name", true)),
	},
	{
		name:        COMMAND_FACTION_LEAVE,
		description: "Leave your faction",
	},
	{
		name:        COMMAND_FACTION_LEADER,
		description: "Assign faction leader",
		options: options(
			userOption("user", "New leader", true),
			stringOption("faction", "Faction name", true),
		),
		adminOnly: true,
		privilege: PRIVILEGE_TRUSTED,
	},
	{
		name:        COMMAND_CHECKIN,
		description: "Daily faction check-in",
	},
	{
		name:        COMMAND_LEADERBOARD,
		description: "View faction leaderboard",
	},
	{
		name:        COMMAND_WEEKLY_RESET,
		description: "Reset faction points weekly",
		adminOnly:   true,
		privilege:   PRIVILEGE_TRUSTED,
	},
	{
		name:        COMMAND_WAR_DECLARE,
		description: "Declare war on another faction",
		options:     options(stringOption("enemy", "Enemy faction", true)),
	},
	{
		name:        COMMAND_HELP,
		description: "Show a list of all commands and their uses",
	},
	{
		name:        COMMAND_FACTION_ADD_MEMBER,
		description: "Add a member to a faction",
		options: options(
			userOption("user", "Member to add", true),
			stringOption("faction", "Faction name", true),
		),
		privilege: PRIVILEGE_TRUSTED,
	},
	{
		name:        COMMAND_FACTION_REMOVE_MEMBER,
		description: "Remove a member from a faction",
		options: options(
			userOption("user", "Member to remove", true),
			stringOption("faction", "Faction name", true),
		),
		privilege: PRIVILEGE_TRUSTED,
	},
	{
		name:        COMMAND_FACTION_INFO,
		description: "Get info about a faction",
		options:     options(stringOption("faction", "Faction name", true)),
	},
	{
		name:        COMMAND_FACTION_MEMBERS,
		description: "List all members of a faction",
		options:     options(stringOption("faction", "Faction name", true)),
	},
	{
		name:        COMMAND_TRUST_ROLE,
		description: "Add a role that can use all commands",
		options:     options(roleOption("role", "Role to trust", true)),
		adminOnly:   true,
		privilege:   PRIVILEGE_ADMIN,
	},
	{
		name:        COMMAND_URGENT_DM,
		description: "Send an urgent UN message by DM",
		options: options(
			stringOption("subject", "Message subject", true),
			stringOption("ministry", "Which UN ministry is sending this", true),
			stringOption("message", "The urgent message content", true),
			roleOption("role", "Send only to a specific role (optional)", false),
		),
		adminOnly: true,
		privilege: PRIVILEGE_TRUSTED,
	},
	{
		name:        COMMAND_DM,
		description: "Send a DM to a user or a role",
		options: options(
			stringOption("message", "Message content", true),
			userOption("user", "Send to one person", false),
			roleOption("role", "Send to a role", false),
		),
		adminOnly: true,
		privilege: PRIVILEGE_TRUSTED,
	},
}

func specOf(name string) (commandSpec, bool) {
	for _, spec := range commandSpecs {
		if spec.name == name {
			return spec, true
		}
	}
	return commandSpec{}, false
}

// ApplicationCommands returns the schema of every command, ready to be
// registered in the platform
func ApplicationCommands() []*discordgo.ApplicationCommand {
	var adminPermissions int64 = discordgo.PermissionAdministrator
	dmPermission := false
	commands := make([]*discordgo.ApplicationCommand, 0, len(commandSpecs))
	for _, spec := range commandSpecs {
		command := &discordgo.ApplicationCommand{
			Name:         spec.name,
			Description:  spec.description,
			Options:      spec.options,
			DMPermission: &dmPermission,
		}
		if spec.adminOnly {
			command.DefaultMemberPermissions = &adminPermissions
		}
		commands = append(commands, command)
	}
	return commands
}

func options(opts ...*discordgo.ApplicationCommandOption) []*discordgo.ApplicationCommandOption {
	return opts
}

func stringOption(name string, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func userOption(name string, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func roleOption(name string, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionRole,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func option(name string, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value}
}

func data(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) discordgo.ApplicationCommandInteractionData {
	return discordgo.ApplicationCommandInteractionData{Name: name, Options: opts}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    discordgo.ApplicationCommandInteractionData
		command Command
	}{
		{"create", data(COMMAND_FACTION_CREATE, option("name", "red")), FactionCreate{Name: "red"}},
		{"trimmed", data(COMMAND_FACTION_JOIN, option("name", "  red ")), FactionJoin{Name: "red"}},
		{"leave", data(COMMAND_FACTION_LEAVE), FactionLeave{}},
		{"leader", data(COMMAND_FACTION_LEADER, option("user", "u1"), option("faction", "red")), FactionLeader{UserID: "u1", Faction: "red"}},
		{"checkin", data(COMMAND_CHECKIN), CheckIn{}},
		{"war", data(COMMAND_WAR_DECLARE, option("enemy", "blue")), WarDeclare{Enemy: "blue"}},
		{"members", data(COMMAND_FACTION_MEMBERS, option("faction", "red")), FactionMembers{Faction: "red"}},
		{"dm to role", data(COMMAND_DM, option("message", "hello"), option("role", "r1")), DirectMessage{Message: "hello", RoleID: "r1"}},
		{"dm keeps its body", data(COMMAND_DM, option("message", "  indented\n"), option("user", "u1")), DirectMessage{Message: "  indented\n", UserID: "u1"}},
		{"war trimmed", data(COMMAND_WAR_DECLARE, option("enemy", " blue")), WarDeclare{Enemy: "blue"}},
		{"dm to both", data(COMMAND_DM, option("message", "hello"), option("user", "u1"), option("role", "r1")), DirectMessage{Message: "hello", UserID: "u1", RoleID: "r1"}},
		{
			"urgent without role",
			data(COMMAND_URGENT_DM, option("subject", "s"), option("ministry", "m"), option("message", "x")),
			UrgentMessage{Subject: "s", Ministry: "m", Message: "x"},
		},
		{
			"urgent keeps its body",
			data(COMMAND_URGENT_DM, option("subject", " s "), option("ministry", "m"), option("message", "\tline one\n  line two")),
			UrgentMessage{Subject: " s ", Ministry: "m", Message: "\tline one\n  line two"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := Parse(test.data)
			assert.Equal(t, PARSEID_OK, result.parseid)
			assert.Equal(t, test.command, result.command)
			assert.Equal(t, test.data.Name, result.name)
		})
	}
}

func TestParseTrustRoleName(t *testing.T) {
	d := data(COMMAND_TRUST_ROLE, option("role", "r1"))
	assert.Equal(t, TrustRole{RoleID: "r1", RoleName: "r1"}, Parse(d).command)

	d.Resolved = &discordgo.ApplicationCommandInteractionDataResolved{
		Roles: map[string]*discordgo.Role{"r1": {ID: "r1", Name: "Diplomats"}},
	}
	assert.Equal(t, TrustRole{RoleID: "r1", RoleName: "Diplomats"}, Parse(d).command)
}

func TestParseMissingOption(t *testing.T) {
	result := Parse(data(COMMAND_FACTION_ADD_MEMBER, option("user", "u1"), option("faction", "   ")))
	assert.Equal(t, PARSEID_NO_INPUT, result.parseid)
	assert.Equal(t, "Command `faction-add-member` requires the option `faction`", result.errorMessage)
}

func TestParseUnknownCommand(t *testing.T) {
	result := Parse(data("dance"))
	assert.Equal(t, PARSEID_COMMAND_NOT_RECOGNISED, result.parseid)
	assert.Nil(t, result.command)
}

func TestActorOf(t *testing.T) {
	actor := ActorOf(&discordgo.Member{
		User:        &discordgo.User{ID: "u1"},
		Roles:       []string{"r1", "r2"},
		Permissions: discordgo.PermissionAdministrator | discordgo.PermissionSendMessages,
	})
	assert.Equal(t, "u1", actor.ID)
	assert.True(t, actor.Admin)
	assert.Equal(t, []string{"r1", "r2"}, actor.RoleIDs)

	actor = ActorOf(&discordgo.Member{User: &discordgo.User{ID: "u2"}, Permissions: discordgo.PermissionSendMessages})
	assert.False(t, actor.Admin)
}

func TestApplicationCommands(t *testing.T) {
	commands := ApplicationCommands()
	assert.Len(t, commands, 17)

	names := map[string]*discordgo.ApplicationCommand{}
	for _, command := range commands {
		names[command.Name] = command
		assert.False(t, *command.DMPermission)
		// Every registered command is understood by the parser
		_, ok := specOf(command.Name)
		assert.True(t, ok)
	}
	assert.NotNil(t, names[COMMAND_TRUST_ROLE].DefaultMemberPermissions)
	assert.Nil(t, names[COMMAND_FACTION_JOIN].DefaultMemberPermissions)
	// Trusted roles must be able to see the member commands
	assert.Nil(t, names[COMMAND_FACTION_ADD_MEMBER].DefaultMemberPermissions)
}

func TestParseBlankMessage(t *testing.T) {
	result := Parse(data(COMMAND_DM, option("message", " \n "), option("user", "u1")))
	assert.Equal(t, PARSEID_NO_INPUT, result.parseid)
	assert.Equal(t, "Command `dm` requires the option `message`", result.errorMessage)
}

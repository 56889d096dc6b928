package bot

import (
	"fmt"
	"strings"

	"factionbot/internal/faction"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const (
	PARSEID_OK                     = iota
	PARSEID_COMMAND_NOT_RECOGNISED = iota
	PARSEID_NO_INPUT               = iota
)

var errorMessages map[int]string = map[int]string{
	PARSEID_COMMAND_NOT_RECOGNISED: "Command `%s` not recognised",
	PARSEID_NO_INPUT:               "Command `%s` requires the option `%s`",
}

type ParseResult struct {
	name         string
	command      Command
	parseid      int
	errorMessage string
}

// Read the options of the command, blank values count as missing.
// Message bodies are kept as typed
type optionReader struct {
	values  map[string]string
	missing string
}

func newOptionReader(options []*discordgo.ApplicationCommandInteractionDataOption) *optionReader {
	reader := &optionReader{values: map[string]string{}}
	for _, option := range options {
		if option == nil {
			continue
		}
		// String, user and role options all carry a string
		value, ok := option.Value.(string)
		if !ok {
			continue
		}
		if strings.TrimSpace(value) != "" {
			reader.values[option.Name] = value
		}
	}
	return reader
}

func (reader *optionReader) required(name string) string {
	value, ok := reader.values[name]
	if !ok && reader.missing == "" {
		reader.missing = name
	}
	return value
}

func (reader *optionReader) optional(name string) string {
	return reader.values[name]
}

// Faction names never carry surrounding spaces
func (reader *optionReader) name(name string) string {
	return strings.TrimSpace(reader.required(name))
}

// Parse an application command into one of the commands of the bot.
// The platform enforces required options, they are checked again here
func Parse(data discordgo.ApplicationCommandInteractionData) ParseResult {

	reader := newOptionReader(data.Options)
	var command Command

	switch data.Name {
	case COMMAND_FACTION_CREATE:
		command = FactionCreate{Name: reader.name("name")}
	case COMMAND_FACTION_DELETE:
		command = FactionDelete{Name: reader.name("name")}
	case COMMAND_FACTION_JOIN:
		command = FactionJoin{Name: reader.name("name")}
	case COMMAND_FACTION_LEAVE:
		command = FactionLeave{}
	case COMMAND_FACTION_LEADER:
		command = FactionLeader{UserID: reader.required("user"), Faction: reader.name("faction")}
	case COMMAND_CHECKIN:
		command = CheckIn{}
	case COMMAND_LEADERBOARD:
		command = Leaderboard{}
	case COMMAND_WEEKLY_RESET:
		command = WeeklyReset{}
	case COMMAND_WAR_DECLARE:
		command = WarDeclare{Enemy: reader.name("enemy")}
	case COMMAND_HELP:
		command = Help{}
	case COMMAND_FACTION_ADD_MEMBER:
		command = FactionAddMember{UserID: reader.required("user"), Faction: reader.name("faction")}
	case COMMAND_FACTION_REMOVE_MEMBER:
		command = FactionRemoveMember{UserID: reader.required("user"), Faction: reader.name("faction")}
	case COMMAND_FACTION_INFO:
		command = FactionInfo{Faction: reader.name("faction")}
	case COMMAND_FACTION_MEMBERS:
		command = FactionMembers{Faction: reader.name("faction")}
	case COMMAND_TRUST_ROLE:
		roleID := reader.required("role")
		command = TrustRole{RoleID: roleID, RoleName: resolvedRoleName(data.Resolved, roleID)}
	case COMMAND_DM:
		command = DirectMessage{
			Message: reader.required("message"),
			UserID:  reader.optional("user"),
			RoleID:  reader.optional("role"),
		}
	case COMMAND_URGENT_DM:
		command = UrgentMessage{
			Subject:  reader.required("subject"),
			Ministry: reader.required("ministry"),
			Message:  reader.required("message"),
			RoleID:   reader.optional("role"),
		}
	default:
		log.Debug().Msgf("Command %s not recognised", data.Name)
		parseid := PARSEID_COMMAND_NOT_RECOGNISED
		return ParseResult{name: data.Name, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], data.Name)}
	}

	if reader.missing != "" {
		parseid := PARSEID_NO_INPUT
		return ParseResult{name: data.Name, command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], data.Name, reader.missing)}
	}
	return ParseResult{name: data.Name, command: command, parseid: PARSEID_OK}
}

func resolvedRoleName(resolved *discordgo.ApplicationCommandInteractionDataResolved, roleID string) string {
	if resolved == nil {
		return roleID
	}
	if role, ok := resolved.Roles[roleID]; ok && role != nil {
		return role.Name
	}
	return roleID
}

// ActorOf extracts who is invoking a command in a guild
func ActorOf(member *discordgo.Member) faction.Actor {
	actor := faction.Actor{
		Admin:   member.Permissions&discordgo.PermissionAdministrator != 0,
		RoleIDs: member.Roles,
	}
	if member.User != nil {
		actor.ID = member.User.ID
	}
	return actor
}

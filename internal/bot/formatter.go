package bot

import (
	"fmt"
	"strings"

	"factionbot/internal/faction"
	"factionbot/internal/notify"

	"github.com/bwmarrin/discordgo"
)

// Use "teal" color for the bot
const color int = 0x008080

// Urgent notices are red
const urgentColor int = 0xff0000

func InputNotValid(errorMessage string) Response {
	return ResponseString{fmt.Sprintf("Input not valid: \n> %s", errorMessage), true}
}

func PrivateMessagesIgnored() Response {
	return ResponseString{"For the time being, I only answer commands inside the server", true}
}

func SomethingWentWrong() Response {
	return ResponseString{"❌ Something went wrong", true}
}

func NotPermitted(command string) Response {
	if command == COMMAND_URGENT_DM {
		return ResponseString{"❌ You are not allowed to send urgent UN messages.", true}
	}
	return ResponseString{"❌ You cannot use this command", false}
}

func HelpMessage() Response {

	embed := discordgo.MessageEmbed{Title: "📜 Faction Bot Commands", Color: color}
	field := func(name string, value string) {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: name, Value: value, Inline: false})
	}
	field("`/faction-create [name]`", "Create a new faction (Admin only)")
	field("`/faction-delete [name]`", "Delete a faction (Admin only)")
	field("`/faction-join [name]`", "Join a faction")
	field("`/faction-leave`", "Leave your faction")
	field("`/faction-leader [user] [faction]`", "Assign a faction leader (Admin only)")
	field("`/checkin`", "Daily faction check-in")
	field("`/leaderboard`", "View faction leaderboard")
	field("`/weekly-reset`", "Reset all faction points (Admin only)")
	field("`/war-declare [enemy]`", "Declare war")
	field("`/faction-add-member [user] [faction]`", "Add member (Admin/Trusted)")
	field("`/faction-remove-member [user] [faction]`", "Remove member (Admin/Trusted)")
	field("`/faction-info [faction]`", "Faction details")
	field("`/faction-members [faction]`", "List all members")
	field("`/trust-role [role]`", "Assign trusted role (Admin only)")
	field("`/dm [message] [user|role]`", "Send a DM to a user or to every member of a role (Admin only)")
	field("`/urgentdm [subject] [ministry] [message] [role]`", "Send an urgent UN notice by DM (Admin/Trusted)")
	field("`/help`", "Show this help message")
	return ResponseEmbed{embed, true}
}

func FactionCreated(name string) Response {
	return ResponseString{fmt.Sprintf("✅ Faction **%s** created", name), false}
}

func FactionAlreadyExists(name string) Response {
	return ResponseString{fmt.Sprintf("❌ Faction **%s** already exists", name), true}
}

func FactionDeleted(name string) Response {
	return ResponseString{fmt.Sprintf("🗑️ **%s** deleted", name), false}
}

func FactionDoesNotExist(name string) Response {
	return ResponseString{fmt.Sprintf("❌ Faction **%s** does not exist", name), false}
}

func FactionJoined(name string) Response {
	return ResponseString{fmt.Sprintf("✅ Joined **%s**", name), false}
}

func AlreadyInThisFaction() Response {
	return ResponseString{"❌ Already in this faction", false}
}

func AlreadyInOtherFaction(name string) Response {
	return ResponseString{fmt.Sprintf("❌ Already in **%s**. Leave first", name), false}
}

func NotInFaction() Response {
	return ResponseString{"❌ Not in a faction", false}
}

func FactionLeft(name string) Response {
	return ResponseString{fmt.Sprintf("✅ Left **%s**", name), false}
}

func LeaderAssigned(userID string, name string) Response {
	return ResponseString{fmt.Sprintf("👑 <@%s> is now leader of **%s**", userID, name), false}
}

func CheckedIn(name string) Response {
	return ResponseString{fmt.Sprintf("🔥 +%d points added to **%s**", faction.CheckinPoints, name), false}
}

func AlreadyCheckedIn() Response {
	return ResponseString{"⏳ Already checked in today", false}
}

func WeeklyResetDone() Response {
	return ResponseString{"♻️ Weekly reset complete", false}
}

func LeaderboardMessage(factions []faction.Faction) Response {
	var builder strings.Builder
	builder.WriteString("**🏆 Faction Leaderboard**\n\n")
	if len(factions) == 0 {
		builder.WriteString("No factions yet")
	}
	for i, f := range factions {
		builder.WriteString(fmt.Sprintf("%d. %s - %d\n", i+1, f.Name, f.Points))
	}
	return ResponseString{builder.String(), false}
}

func WarDeclared(war faction.War) Response {
	return ResponseString{fmt.Sprintf("⚔️ **%s** declared war on **%s**", war.Faction1, war.Faction2), false}
}

func MemberAdded(userID string, name string) Response {
	return ResponseString{fmt.Sprintf("✅ Added <@%s> to **%s**", userID, name), false}
}

func MemberAlreadyInFaction(name string) Response {
	return ResponseString{fmt.Sprintf("❌ Already in **%s**", name), false}
}

func MemberRemoved(userID string, name string) Response {
	return ResponseString{fmt.Sprintf("🗑️ Removed <@%s> from **%s**", userID, name), false}
}

func MemberNotInFaction() Response {
	return ResponseString{"❌ Member not in this faction", false}
}

func FactionNotFound() Response {
	return ResponseString{"❌ Faction not found", false}
}

func FactionInfoMessage(info faction.Info) Response {

	leader := "None"
	if info.Leader != "" {
		leader = fmt.Sprintf("<@%s>", info.Leader)
	}
	embed := discordgo.MessageEmbed{Title: fmt.Sprintf("Faction %s", info.Name), Color: color}
	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "Leader", Value: leader, Inline: true},
		&discordgo.MessageEmbedField{Name: "Points", Value: fmt.Sprint(info.Points), Inline: true},
		&discordgo.MessageEmbedField{Name: "Members", Value: fmt.Sprint(info.Members), Inline: true},
	)
	return ResponseEmbed{embed, false}
}

func FactionMembersMessage(name string, members []string) Response {
	if len(members) == 0 {
		return ResponseString{"❌ No members found", false}
	}
	mentions := make([]string, len(members))
	for i, member := range members {
		mentions[i] = fmt.Sprintf("<@%s>", member)
	}
	return ResponseString{fmt.Sprintf("**Members of %s:**\n%s", name, strings.Join(mentions, "\n")), false}
}

func RoleTrusted(roleName string) Response {
	return ResponseString{fmt.Sprintf("✅ Role **%s** is now trusted", roleName), false}
}

func InvalidTarget(target notify.Target) Response {
	if target.UserID != "" && target.RoleID != "" {
		return ResponseString{"❌ Choose **only one**: user OR role.", true}
	}
	return ResponseString{"❌ You must select **either a user or a role**.", true}
}

func DirectMessageSent(result notify.Result) Response {
	content := fmt.Sprintf("✅ DM sent to **%d** recipient(s).", result.Sent)
	if result.Failed > 0 {
		content += fmt.Sprintf(" **%d** could not be reached.", result.Failed)
	}
	return ResponseString{content, true}
}

func UrgentSending() Response {
	return ResponseString{"📨 Sending urgent messages...", true}
}

func UrgentDone(result notify.Result) Response {
	return ResponseString{fmt.Sprintf("✅ Done.\n📨 Sent: %d\n❌ Failed: %d", result.Sent, result.Failed), true}
}

// UrgentNotice is the message delivered to every recipient of an urgent DM
func UrgentNotice(subject string, ministry string, message string) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title: "📢 URGENT NOTICE",
			Color: urgentColor,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Subject", Value: subject},
				{Name: "Ministry", Value: ministry},
				{Name: "Message", Value: message},
			},
			Footer: &discordgo.MessageEmbedFooter{Text: "Union of Nations (UN) • Official Communication"},
		}},
	}
}

func DirectMessageContent(message string) *discordgo.MessageSend {
	return &discordgo.MessageSend{Content: message}
}

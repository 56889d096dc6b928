package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"factionbot/internal/faction"
	"factionbot/internal/notify"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Maximum number of members returned by one page of the members endpoint
const membersPageSize = 1000

// DiscordPlatform manages the resources of the factions inside one guild
// and delivers direct messages to its members
type DiscordPlatform struct {
	session *discordgo.Session
	guildID string
}

var (
	_ faction.Platform = (*DiscordPlatform)(nil)
	_ notify.Directory = (*DiscordPlatform)(nil)
	_ notify.Sender    = (*DiscordPlatform)(nil)
)

func NewDiscordPlatform(session *discordgo.Session, guildID string) *DiscordPlatform {
	return &DiscordPlatform{session: session, guildID: guildID}
}

func categoryName(name string) string {
	return strings.ToUpper(name) + " FACTION"
}

func chatName(name string) string {
	return name + "-chat"
}

// The role, a private category only visible to the role, and a chat inside
func (p *DiscordPlatform) CreateStructure(ctx context.Context, name string) error {

	mentionable := true
	role, err := p.session.GuildRoleCreate(p.guildID, &discordgo.RoleParams{Name: name, Mentionable: &mentionable}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("could not create role: %w", err)
	}

	category, err := p.session.GuildChannelCreateComplex(p.guildID, discordgo.GuildChannelCreateData{
		Name: categoryName(name),
		Type: discordgo.ChannelTypeGuildCategory,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			// The everyone role shares its id with the guild
			{ID: p.guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
			{ID: role.ID, Type: discordgo.PermissionOverwriteTypeRole, Allow: discordgo.PermissionViewChannel},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("could not create category: %w", err)
	}

	_, err = p.session.GuildChannelCreateComplex(p.guildID, discordgo.GuildChannelCreateData{
		Name:     chatName(name),
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: category.ID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("could not create chat channel: %w", err)
	}
	log.Debug().Str("faction", name).Str("role", role.ID).Str("category", category.ID).Msg("Faction structure created")
	return nil
}

// Deletes whatever part of the structure is present
func (p *DiscordPlatform) DeleteStructure(ctx context.Context, name string) error {

	roleID, err := p.FindRole(ctx, name)
	switch {
	case err == nil:
		if err := p.session.GuildRoleDelete(p.guildID, roleID, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("could not delete role: %w", err)
		}
	case !errors.Is(err, faction.ErrNotFound):
		return err
	}

	channels, err := p.session.GuildChannels(p.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("could not list channels: %w", err)
	}
	category := findCategory(channels, name)
	if category == nil {
		return nil
	}
	for _, channel := range channels {
		if channel.ParentID != category.ID {
			continue
		}
		if _, err := p.session.ChannelDelete(channel.ID, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("could not delete channel %s: %w", channel.Name, err)
		}
	}
	if _, err := p.session.ChannelDelete(category.ID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("could not delete category: %w", err)
	}
	return nil
}

func findCategory(channels []*discordgo.Channel, name string) *discordgo.Channel {
	wanted := categoryName(name)
	for _, channel := range channels {
		if channel.Type == discordgo.ChannelTypeGuildCategory && channel.Name == wanted {
			return channel
		}
	}
	return nil
}

func (p *DiscordPlatform) FindRole(ctx context.Context, name string) (string, error) {
	roles, err := p.session.GuildRoles(p.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("could not list roles: %w", err)
	}
	for _, role := range roles {
		if role.ID != p.guildID && role.Name == name {
			return role.ID, nil
		}
	}
	return "", faction.ErrNotFound
}

func (p *DiscordPlatform) GrantRole(ctx context.Context, userID string, roleID string) error {
	return p.session.GuildMemberRoleAdd(p.guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (p *DiscordPlatform) RevokeRole(ctx context.Context, userID string, roleID string) error {
	return p.session.GuildMemberRoleRemove(p.guildID, userID, roleID, discordgo.WithContext(ctx))
}

// A faction exists in the guild when both its role and its category do
func (p *DiscordPlatform) StructureNames(ctx context.Context) ([]string, error) {

	roles, err := p.session.GuildRoles(p.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("could not list roles: %w", err)
	}
	channels, err := p.session.GuildChannels(p.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("could not list channels: %w", err)
	}

	names := []string{}
	for _, role := range roles {
		if role.ID == p.guildID || role.Managed {
			continue
		}
		if findCategory(channels, role.Name) != nil {
			names = append(names, role.Name)
		}
	}
	return names, nil
}

// Members returns the non-bot members holding the role, or all of them
// when the role is empty
func (p *DiscordPlatform) Members(ctx context.Context, roleID string) ([]string, error) {

	userIDs := []string{}
	after := ""
	for {
		page, err := p.session.GuildMembers(p.guildID, after, membersPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("could not list members: %w", err)
		}
		for _, member := range page {
			if member.User == nil || member.User.Bot {
				continue
			}
			if roleID == "" || slices.Contains(member.Roles, roleID) {
				userIDs = append(userIDs, member.User.ID)
			}
		}
		if len(page) < membersPageSize {
			return userIDs, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func (p *DiscordPlatform) SendDirect(ctx context.Context, userID string, message *discordgo.MessageSend) error {
	channel, err := p.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("could not open private channel: %w", err)
	}
	if _, err := p.session.ChannelMessageSendComplex(channel.ID, message, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("could not send message: %w", err)
	}
	return nil
}

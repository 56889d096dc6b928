package bot

import (
	"github.com/bwmarrin/discordgo"
)

type ResponseString struct {
	content   string
	ephemeral bool
}
type ResponseEmbed struct {
	embed     discordgo.MessageEmbed
	ephemeral bool
}

// A response to a command. Ephemeral responses are only seen by the invoker
type Response interface {
	InteractionData() *discordgo.InteractionResponseData
}

func (response ResponseString) InteractionData() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{Content: response.content, Flags: flags(response.ephemeral)}
}

func (response ResponseEmbed) InteractionData() *discordgo.InteractionResponseData {
	embed := response.embed
	return &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{&embed}, Flags: flags(response.ephemeral)}
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

// Replier sends the responses of one invocation. The first response is
// the reply, the rest are follow ups. A deferred reply shows a loading
// state until it is edited into the actual one
type Replier interface {
	Reply(response Response) error
	Defer(ephemeral bool) error
	Edit(response Response) error
	FollowUp(response Response) error
}

type interactionReplier struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

func (r interactionReplier) Reply(response Response) error {
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: response.InteractionData(),
	})
}

func (r interactionReplier) Defer(ephemeral bool) error {
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	})
}

func (r interactionReplier) Edit(response Response) error {
	data := response.InteractionData()
	edit := &discordgo.WebhookEdit{Content: &data.Content}
	if len(data.Embeds) > 0 {
		edit.Embeds = &data.Embeds
	}
	_, err := r.session.InteractionResponseEdit(r.interaction, edit)
	return err
}

func (r interactionReplier) FollowUp(response Response) error {
	data := response.InteractionData()
	_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Content: data.Content,
		Embeds:  data.Embeds,
		Flags:   data.Flags,
	})
	return err
}

// Sends the reply first and follow ups afterwards. After a deferral the
// first response completes the deferred reply
type onceReplier struct {
	replier  Replier
	deferred bool
	replied  bool
}

// Defer acknowledges the invocation without a response, it has no effect
// once something was sent
func (r *onceReplier) Defer(ephemeral bool) error {
	if r.deferred || r.replied {
		return nil
	}
	r.deferred = true
	return r.replier.Defer(ephemeral)
}

func (r *onceReplier) Send(response Response) error {
	switch {
	case r.replied:
		return r.replier.FollowUp(response)
	case r.deferred:
		r.replied = true
		return r.replier.Edit(response)
	default:
		r.replied = true
		return r.replier.Reply(response)
	}
}

package evolve_queue

import "github.com/bwmarrin/discordgo"

// Messenger is the slice of the Discord API the queue and its sink use.
type Messenger interface {
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
	// EditEmbed replaces the embed of a message. A non-nil file is uploaded
	// with the edit so the embed can reference it as attachment://name.
	EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, file *discordgo.File) error
	DeleteMessage(channelID, messageID string) error
	EditResponse(interaction *discordgo.Interaction, content string) error
}

type sessionMessenger struct {
	session *discordgo.Session
}

func NewSessionMessenger(session *discordgo.Session) Messenger {
	return &sessionMessenger{session: session}
}

func (m *sessionMessenger) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return m.session.ChannelMessageSendEmbed(channelID, embed)
}

func (m *sessionMessenger) EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, file *discordgo.File) error {
	edit := &discordgo.MessageEdit{
		ID:      messageID,
		Channel: channelID,
		Embeds:  []*discordgo.MessageEmbed{embed},
	}

	if file != nil {
		edit.Files = []*discordgo.File{file}
	}

	_, err := m.session.ChannelMessageEditComplex(edit)

	return err
}

func (m *sessionMessenger) DeleteMessage(channelID, messageID string) error {
	return m.session.ChannelMessageDelete(channelID, messageID)
}

func (m *sessionMessenger) EditResponse(interaction *discordgo.Interaction, content string) error {
	_, err := m.session.InteractionResponseEdit(interaction, &discordgo.WebhookEdit{
		Content: &content,
	})

	return err
}

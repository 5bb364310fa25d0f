package evolve_queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bwmarrin/discordgo"
)

type editedEmbed struct {
	MessageID   string
	Embed       *discordgo.MessageEmbed
	FileName    string
	ContentType string
	FileData    []byte
}

type fakeMessenger struct {
	mu        sync.Mutex
	sent      []*discordgo.MessageEmbed
	edited    []editedEmbed
	deleted   []string
	responses []string
}

func (m *fakeMessenger) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, embed)

	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", len(m.sent)), ChannelID: channelID}, nil
}

func (m *fakeMessenger) EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, file *discordgo.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	edit := editedEmbed{MessageID: messageID, Embed: embed}

	if file != nil {
		data, err := io.ReadAll(file.Reader)
		if err != nil {
			return err
		}

		edit.FileName, edit.ContentType, edit.FileData = file.Name, file.ContentType, data
	}

	m.edited = append(m.edited, edit)

	return nil
}

func (m *fakeMessenger) DeleteMessage(channelID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleted = append(m.deleted, messageID)

	return nil
}

func (m *fakeMessenger) EditResponse(interaction *discordgo.Interaction, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses = append(m.responses, content)

	return nil
}

func (m *fakeMessenger) snapshot() (sent []*discordgo.MessageEmbed, edited []editedEmbed, deleted, responses []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*discordgo.MessageEmbed(nil), m.sent...),
		append([]editedEmbed(nil), m.edited...),
		append([]string(nil), m.deleted...),
		append([]string(nil), m.responses...)
}

var fakePNG = []byte("\x89PNG\r\n\x1a\nfake image")

type fakeFetcher struct {
	fail map[string]bool
}

func (f *fakeFetcher) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	if f.fail[imageURL] {
		return nil, errors.New("broken image")
	}

	return fakePNG, nil
}

package evolve_queue

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"prompt_evolver/entities"
	"prompt_evolver/image_api"
	"prompt_evolver/image_loader"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	embedColor     = 0x7289DA
	renderingImage = "Rendering image..."
)

// DiscordSink posts one embed per stage into a channel. The embed shows a
// rendering footer until its image resolves, then either gains the image as
// an attachment or just drops the footer.
type DiscordSink struct {
	messenger   Messenger
	channelID   string
	interaction *discordgo.Interaction
	loader      *image_loader.Loader
	logger      *zap.SugaredLogger

	mu         sync.Mutex
	generation int
	messages   map[int]string
	units      map[int]*entities.RenderUnit
}

type DiscordSinkConfig struct {
	Messenger Messenger
	ChannelID string
	// Interaction is optional. When set, failures are written into its response.
	Interaction *discordgo.Interaction
	Loader      *image_loader.Loader
	Logger      *zap.SugaredLogger
}

func NewDiscordSink(cfg DiscordSinkConfig) (*DiscordSink, error) {
	if cfg.Messenger == nil {
		return nil, errors.New("missing messenger")
	}

	if cfg.ChannelID == "" {
		return nil, errors.New("missing channel ID")
	}

	if cfg.Loader == nil {
		return nil, errors.New("missing image loader")
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	return &DiscordSink{
		messenger:   cfg.Messenger,
		channelID:   cfg.ChannelID,
		interaction: cfg.Interaction,
		loader:      cfg.Loader,
		logger:      cfg.Logger,
		messages:    map[int]string{},
		units:       map[int]*entities.RenderUnit{},
	}, nil
}

func stageEmbed(unit *entities.RenderUnit) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       unit.Title,
		Description: unit.Text,
		Color:       embedColor,
	}
}

// Clear deletes every message this sink posted.
func (s *DiscordSink) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++

	var errs []error

	for index, messageID := range s.messages {
		err := s.messenger.DeleteMessage(s.channelID, messageID)
		if err != nil {
			errs = append(errs, err)
		}

		delete(s.messages, index)
	}

	s.units = map[int]*entities.RenderUnit{}

	return errors.Join(errs...)
}

func (s *DiscordSink) Insert(ctx context.Context, unit *entities.RenderUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	embed := stageEmbed(unit)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: renderingImage}

	message, err := s.messenger.SendEmbed(s.channelID, embed)
	if err != nil {
		return err
	}

	s.messages[unit.Index] = message.ID
	s.units[unit.Index] = unit
	generation := s.generation

	s.loader.Load(ctx, unit.Index, unit.Image.URL, func(r image_loader.Result) {
		s.imageLoaded(generation, r)
	})

	return nil
}

func (s *DiscordSink) imageLoaded(generation int, r image_loader.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return
	}

	unit, messageID := s.units[r.Index], s.messages[r.Index]
	if unit == nil || messageID == "" {
		return
	}

	embed := stageEmbed(unit)

	var file *discordgo.File

	// the embed shows the uploaded bytes, not the image service URL
	if r.Err == nil {
		file = &discordgo.File{
			Name:        fmt.Sprintf("stage-%d%s", r.Index+1, image_api.Extension(r.Data)),
			ContentType: http.DetectContentType(r.Data),
			Reader:      bytes.NewReader(r.Data),
		}
		embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + file.Name}
	}

	err := s.messenger.EditEmbed(s.channelID, messageID, embed, file)
	if err != nil {
		s.logger.Errorf("Error editing embed for stage %d: %v", r.Index+1, err)
	}
}

func (s *DiscordSink) ReportFailure(ctx context.Context, message string) error {
	if s.interaction != nil {
		return s.messenger.EditResponse(s.interaction, message)
	}

	_, err := s.messenger.SendEmbed(s.channelID, &discordgo.MessageEmbed{
		Description: message,
		Color:       0xED4245,
	})

	return err
}

package discord_bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"prompt_evolver/evolve_queue"
	"prompt_evolver/text_escape"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const conceptOption = "concept"

type botImpl struct {
	developmentMode    bool
	botSession         *discordgo.Session
	guildID            string
	evolveQueue        evolve_queue.Queue
	registeredCommands []*discordgo.ApplicationCommand
	evolveCommand      string
	removeCommands     bool
	logger             *zap.SugaredLogger
}

type Config struct {
	DevelopmentMode bool
	BotToken        string
	GuildID         string
	EvolveQueue     evolve_queue.Queue
	EvolveCommand   string
	RemoveCommands  bool
	Logger          *zap.SugaredLogger
}

func New(cfg Config) (Bot, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("missing bot token")
	}

	if cfg.EvolveQueue == nil {
		return nil, errors.New("missing evolve queue")
	}

	if cfg.EvolveCommand == "" {
		return nil, errors.New("missing evolve command")
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	botSession, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger

	botSession.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logger.Infof("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
	})

	err = botSession.Open()
	if err != nil {
		return nil, err
	}

	bot := &botImpl{
		developmentMode:    cfg.DevelopmentMode,
		botSession:         botSession,
		guildID:            cfg.GuildID,
		evolveQueue:        cfg.EvolveQueue,
		registeredCommands: make([]*discordgo.ApplicationCommand, 0),
		evolveCommand:      cfg.EvolveCommand,
		removeCommands:     cfg.RemoveCommands,
		logger:             logger,
	}

	err = bot.addEvolveCommand()
	if err != nil {
		botSession.Close()

		return nil, err
	}

	botSession.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}

		switch i.ApplicationCommandData().Name {
		case bot.commandName():
			bot.processEvolveCommand(s, i)
		default:
			logger.Infof("Unknown command '%v'", i.ApplicationCommandData().Name)
		}
	})

	return bot, nil
}

func (b *botImpl) commandName() string {
	return commandName(b.evolveCommand, b.developmentMode)
}

func commandName(name string, developmentMode bool) string {
	if developmentMode {
		return "dev_" + name
	}

	return name
}

// Start polls the queue until ctx is done and then tears the bot down.
func (b *botImpl) Start(ctx context.Context) {
	b.evolveQueue.StartPolling(ctx, evolve_queue.NewSessionMessenger(b.botSession))

	err := b.teardown()
	if err != nil {
		b.logger.Errorf("Error tearing down bot: %v", err)
	}
}

func (b *botImpl) teardown() error {
	if b.removeCommands {
		for _, cmd := range b.registeredCommands {
			b.logger.Infof("Removing command '%v'...", cmd.Name)

			err := b.botSession.ApplicationCommandDelete(b.botSession.State.User.ID, b.guildID, cmd.ID)
			if err != nil {
				b.logger.Errorf("Cannot delete '%v' command: %v", cmd.Name, err)
			}
		}
	}

	return b.botSession.Close()
}

func (b *botImpl) addEvolveCommand() error {
	name := b.commandName()

	b.logger.Infof("Adding command '%s'...", name)

	cmd, err := b.botSession.ApplicationCommandCreate(b.botSession.State.User.ID, b.guildID, &discordgo.ApplicationCommand{
		Name:        name,
		Description: "Ask the bot to evolve a concept into a sequence of images",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        conceptOption,
				Description: "The concept to evolve",
				Required:    true,
			},
		},
	})
	if err != nil {
		b.logger.Errorf("Error creating '%s' command: %v", name, err)

		return err
	}

	b.registeredCommands = append(b.registeredCommands, cmd)

	return nil
}

func conceptFromOptions(options []*discordgo.ApplicationCommandInteractionDataOption) string {
	for _, opt := range options {
		if opt.Name == conceptOption {
			return strings.TrimSpace(opt.StringValue())
		}
	}

	return ""
}

func queuedMessageContent(position int, userID, concept string) string {
	return fmt.Sprintf(
		"I'm evolving that for you. You are currently #%d in line.\n<@%s> asked me to evolve \"%s\".",
		position,
		userID,
		text_escape.Markdown.Escape(concept))
}

func (b *botImpl) processEvolveCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	concept := conceptFromOptions(i.ApplicationCommandData().Options)

	var content string

	if concept == "" {
		content = "Please give me a concept to evolve."
	} else {
		position, queueError := b.evolveQueue.AddEvolve(&evolve_queue.QueueItem{
			Concept:            concept,
			DiscordInteraction: i.Interaction,
		})

		switch {
		case queueError != nil:
			b.logger.Errorf("Error adding evolve to queue: %v", queueError)

			content = "I'm too busy right now. Please try again later."
		default:
			content = queuedMessageContent(position, evolve_queue.InteractionUserID(i.Interaction), concept)
		}
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
	if err != nil {
		b.logger.Errorf("Error responding to interaction: %v", err)
	}
}

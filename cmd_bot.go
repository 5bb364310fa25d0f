package main

import (
	"fmt"
	"os"

	"prompt_evolver/discord_bot"
	"prompt_evolver/evolve_queue"
	"prompt_evolver/text_escape"

	"github.com/spf13/cobra"
)

// Bot parameters
var (
	botToken       string
	guildID        string
	evolveCommand  string
	removeCommands bool
	devMode        bool
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Discord bot with an evolve slash command",
	RunE:  runBot,
}

func init() {
	botCmd.Flags().StringVar(&botToken, "token", "", "Bot access token. Defaults to DISCORD_TOKEN")
	botCmd.Flags().StringVar(&guildID, "guild", "", "Guild ID. If not passed - bot registers commands globally. Defaults to DISCORD_GUILD_ID")
	botCmd.Flags().StringVar(&evolveCommand, "command", "evolve", "Evolve command name")
	botCmd.Flags().BoolVar(&removeCommands, "remove", false, "Delete all commands when bot exits")
	botCmd.Flags().BoolVar(&devMode, "dev", false, "Start in development mode, using \"dev_\" prefixed commands instead")
}

func runBot(cmd *cobra.Command, args []string) error {
	sugar := logger.Sugar()

	if botToken == "" {
		botToken = os.Getenv("DISCORD_TOKEN")
	}

	if guildID == "" {
		guildID = os.Getenv("DISCORD_GUILD_ID")
	}

	if botToken == "" {
		return fmt.Errorf("bot token is required")
	}

	if devMode {
		sugar.Infof("Starting in development mode.. all commands prefixed with \"dev_\"")
	}

	ctx := cmd.Context()

	env, err := newEnvironment(ctx, text_escape.Markdown)
	if err != nil {
		return err
	}
	defer env.Close()

	evolveQueue, err := evolve_queue.New(evolve_queue.Config{
		Pipeline: env.pipeline,
		Fetcher:  env.images,
		Logger:   sugar,
	})
	if err != nil {
		return fmt.Errorf("failed to create evolve queue: %w", err)
	}

	bot, err := discord_bot.New(discord_bot.Config{
		DevelopmentMode: devMode,
		BotToken:        botToken,
		GuildID:         guildID,
		EvolveQueue:     evolveQueue,
		EvolveCommand:   evolveCommand,
		RemoveCommands:  removeCommands,
		Logger:          sugar,
	})
	if err != nil {
		return fmt.Errorf("error creating Discord bot: %w", err)
	}

	sugar.Infof("Press Ctrl+C to exit")

	bot.Start(ctx)

	sugar.Infof("Gracefully shutting down.")

	return nil
}

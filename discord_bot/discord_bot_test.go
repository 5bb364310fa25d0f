package discord_bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestCommandName(t *testing.T) {
	assert.Equal(t, "evolve", commandName("evolve", false))
	assert.Equal(t, "dev_evolve", commandName("evolve", true))
}

func TestConceptFromOptions(t *testing.T) {
	options := []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "other", Type: discordgo.ApplicationCommandOptionString, Value: "ignored"},
		{Name: conceptOption, Type: discordgo.ApplicationCommandOptionString, Value: "  a cat  "},
	}

	assert.Equal(t, "a cat", conceptFromOptions(options))
	assert.Empty(t, conceptFromOptions(nil))
}

func TestQueuedMessageContent(t *testing.T) {
	assert.Equal(t,
		"I'm evolving that for you. You are currently #2 in line.\n<@u1> asked me to evolve \"a \\_cat\\_\".",
		queuedMessageContent(2, "u1", "a _cat_"))
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{})
	assert.EqualError(t, err, "missing bot token")

	_, err = New(Config{BotToken: "token"})
	assert.EqualError(t, err, "missing evolve queue")
}

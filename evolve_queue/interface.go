package evolve_queue

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

type Queue interface {
	AddEvolve(item *QueueItem) (int, error)
	StartPolling(ctx context.Context, messenger Messenger)
}

type QueueItem struct {
	Concept            string
	DiscordInteraction *discordgo.Interaction
}

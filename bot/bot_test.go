package bot

import (
	"context"
	"testing"
	"time"

	"NucleusBot/command/router"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepliesBypassTheCommandQueue(t *testing.T) {
	pending := router.NewPending()
	b := &Bot{
		router: router.New("!", &router.Deps{Pending: pending}),
		queue:  make(chan *discordgo.Message, 1),
	}

	dmWait, err := pending.Expect("100000000000000001")
	require.NoError(t, err)
	channelWait, err := pending.ExpectIn("100000000000000001", "700000000000000001")
	require.NoError(t, err)

	b.onMessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "dm-channel",
		Content:   "hunter2",
		Author:    &discordgo.User{ID: "100000000000000001"},
	}})
	b.onMessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "700000000000000001",
		GuildID:   "800000000000000001",
		Content:   "hello everyone",
		Author:    &discordgo.User{ID: "100000000000000001"},
	}})
	assert.Empty(t, b.queue, "resolved replies are not queued")

	m, err := dmWait.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", m.Content)

	m, err = channelWait.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hello everyone", m.Content)
}

func TestCommandsAreQueued(t *testing.T) {
	b := &Bot{
		router: router.New("!", &router.Deps{Pending: router.NewPending()}),
		queue:  make(chan *discordgo.Message, 1),
	}

	b.onMessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "700000000000000001",
		GuildID:   "800000000000000001",
		Content:   "!help",
		Author:    &discordgo.User{ID: "100000000000000001"},
	}})
	require.Len(t, b.queue, 1)
	assert.Equal(t, "!help", (<-b.queue).Content)
}

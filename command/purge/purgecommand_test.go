package purge

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"NucleusBot/command/router/routertest"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "100000000000000001"
	bob   = "100000000000000002"
)

func message(id, author string, age time.Duration) *discordgo.Message {
	return &discordgo.Message{
		ID:        id,
		ChannelID: routertest.Channel,
		Author:    &discordgo.User{ID: author},
		Timestamp: time.Now().Add(-age),
	}
}

func setup(t *testing.T, command string, history ...*discordgo.Message) *routertest.Env {
	env := routertest.NewEnv(t, Command())
	env.Grant(alice, 8, false)
	// Discord lists the command message itself first.
	cmd := routertest.GuildMessage(alice, command)
	env.Session.History[routertest.Channel] = append([]*discordgo.Message{message(cmd.ID, alice, 0)}, history...)
	return env
}

func TestPurgeDeletesLatestMessages(t *testing.T) {
	env := setup(t, "!purge 3",
		message("m5", bob, time.Minute),
		message("m4", alice, time.Minute),
		message("m3", bob, time.Minute),
		message("m2", bob, time.Minute),
	)

	env.Say(alice, "!purge 3")

	assert.Equal(t, "Deleted 4 message(s)", env.Reply())
	assert.Equal(t, [][]string{{"msg-!purge-3", "m5", "m4", "m3"}}, env.Session.BulkDeletes(routertest.Channel))
}

func TestPurgeOnlyOneUser(t *testing.T) {
	env := setup(t, "!purge 4 <@"+bob+">",
		message("m5", bob, time.Minute),
		message("m4", alice, time.Minute),
		message("m3", bob, time.Minute),
		message("m2", bob, 20*24*time.Hour),
		message("m1", bob, time.Minute),
	)

	env.Say(alice, "!purge 4 <@"+bob+">")

	assert.Equal(t, "Deleted 3 message(s)", env.Reply())
	assert.Equal(t, [][]string{{"m5", "m3"}}, env.Session.BulkDeletes(routertest.Channel))
	assert.Equal(t, []string{"m5", "m3", "m2"}, env.Session.Deleted(routertest.Channel), "old messages are deleted one by one")
}

func TestPurgeIsCapped(t *testing.T) {
	var history []*discordgo.Message
	for i := 0; i < 600; i++ {
		history = append(history, message(fmt.Sprintf("h%d", i), bob, time.Minute))
	}
	env := setup(t, "!purge 1000", history...)

	env.Say(alice, "!purge 1000")

	assert.Equal(t, "Deleted 501 message(s)", env.Reply())
	batches := env.Session.BulkDeletes(routertest.Channel)
	require.Len(t, batches, 6)
	for _, b := range batches[:5] {
		assert.Len(t, b, 100)
	}
	assert.Len(t, batches[5], 1)
}

func TestPurgeDefaultsToFive(t *testing.T) {
	var history []*discordgo.Message
	for i := 0; i < 10; i++ {
		history = append(history, message(fmt.Sprintf("h%d", i), bob, time.Minute))
	}
	env := setup(t, "!purge", history...)

	env.Say(alice, "!purge")
	assert.Equal(t, "Deleted 6 message(s)", env.Reply())
}

func TestPurgeNoticeIsRemoved(t *testing.T) {
	old := noticeLifetime
	noticeLifetime = 10 * time.Millisecond
	t.Cleanup(func() { noticeLifetime = old })

	env := setup(t, "!purge 1", message("m1", bob, time.Minute))
	env.Say(alice, "!purge 1")

	assert.Eventually(t, func() bool {
		for _, id := range env.Session.Deleted(routertest.Channel) {
			if strings.HasPrefix(id, "sent-") {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestPurgeValidation(t *testing.T) {
	env := setup(t, "!purge lots")

	env.Say(alice, "!purge lots")
	assert.Equal(t, "The number of messages you provided is not valid. Please check and try again.", env.Reply())

	env.Say(alice, "!purge 3 someone")
	assert.Equal(t, "The user you provided is not valid. Please check and try again.", env.Reply())

	env.SayDM(alice, "!purge")
	assert.Equal(t, "This is not a Text channel", env.Session.Last(routertest.DMChannel(alice)))

	assert.Empty(t, env.Session.Deleted(routertest.Channel))
}

func TestPurgeNeedsLevelEight(t *testing.T) {
	env := setup(t, "!purge")
	env.Grant(bob, 7, false)

	env.Say(bob, "!purge")
	assert.Equal(t, "Who told you that you could do that?", env.Reply())
	assert.Empty(t, env.Session.Deleted(routertest.Channel))
}

package whitelist_test

import (
	"context"
	"testing"

	"NucleusBot/command/router/routertest"
	"NucleusBot/command/whitelist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice   = "100000000000000001"
	channel = "700000000000000002"
)

func TestWhitelistAddAndRemove(t *testing.T) {
	env := routertest.NewEnv(t, whitelist.Command(), whitelist.RemoveCommand())
	env.Grant(alice, 6, false)
	ctx := context.Background()

	env.Say(alice, "!whitelist <#"+channel+">")
	assert.Equal(t, "Successfully added channel <#"+channel+"> to the whitelist! :smiley:", env.Reply())
	ok, err := env.Store.IsWhitelisted(ctx, routertest.GuildID, channel)
	require.NoError(t, err)
	assert.True(t, ok)

	env.Say(alice, "!whitelist "+channel)
	assert.Equal(t, "It appears that <#"+channel+"> is already part of the whitelist", env.Reply())

	env.Say(alice, "!whitelist_remove <#"+channel+">")
	assert.Equal(t, "Channel <#"+channel+"> was successfully removed!", env.Reply())

	env.Say(alice, "!whitelist_remove <#"+channel+">")
	assert.Equal(t, "Channel <#"+channel+"> is not on the whitelist!", env.Reply())
}

func TestWhitelistWorksOutsideWhitelistedChannels(t *testing.T) {
	env := routertest.NewEnv(t, whitelist.Command())
	env.Grant(alice, 6, false)

	m := routertest.GuildMessage(alice, "!whitelist <#"+channel+">")
	m.ChannelID = channel
	env.Router.Handle(context.Background(), env.Session, m, routertest.BotID)

	assert.Contains(t, env.Session.Last(channel), "Successfully added")
}

func TestWhitelistValidation(t *testing.T) {
	env := routertest.NewEnv(t, whitelist.Command())
	env.Grant(alice, 6, false)

	env.Say(alice, "!whitelist general")
	assert.Equal(t, "Invalid channel!", env.Reply())

	env.Grant("100000000000000002", 5, false)
	env.Say("100000000000000002", "!whitelist <#"+channel+">")
	assert.Equal(t, "Who told you that you could do that?", env.Reply())
}

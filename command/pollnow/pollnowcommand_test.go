package pollnow_test

import (
	"testing"

	"NucleusBot/command/pollnow"
	"NucleusBot/command/router/routertest"

	"github.com/stretchr/testify/assert"
)

const alice = "100000000000000001"

func TestPollNow(t *testing.T) {
	env := routertest.NewEnv(t, pollnow.Command())
	env.Grant(alice, 8, false)

	env.Say(alice, "!poll_now")
	assert.Contains(t, env.Reply(), "Poll cycle queued")

	env.Say(alice, "!poll_now")
	assert.Equal(t, "A poll cycle is already queued.", env.Reply())
}

func TestPollNowNeedsLevelEight(t *testing.T) {
	env := routertest.NewEnv(t, pollnow.Command())
	env.Grant(alice, 7, false)

	env.Say(alice, "!poll_now")
	assert.Equal(t, "Who told you that you could do that?", env.Reply())
}

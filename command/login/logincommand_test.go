package login_test

import (
	"context"
	"errors"
	"testing"

	"NucleusBot/command/login"
	"NucleusBot/command/router/routertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alice = "100000000000000001"

func TestLoginLinksAccount(t *testing.T) {
	env := routertest.NewEnv(t, login.Command())
	env.Portal.Passwords["21AB01"] = "hunter2"

	env.SayAndAnswer(alice, "!login 21ab01", "  hunter2 ")

	assert.Equal(t, []string{"Please send me the password...", "Login Succeeded!"},
		env.Session.Texts(routertest.DMChannel(alice)))
	assert.Equal(t, "Your Discord account is now linked to `21AB01`.", env.Reply())

	account, err := env.Store.AccountForDiscordUser(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "21AB01", account.Username)
	assert.Contains(t, account.Cookies, "fresh-21AB01")
	assert.Empty(t, account.Password, "plain logins never store the password")
	assert.False(t, account.IsAlert)
}

func TestLoginWrongPassword(t *testing.T) {
	env := routertest.NewEnv(t, login.Command())
	env.Portal.Passwords["21AB01"] = "hunter2"

	env.SayAndAnswer(alice, "!login 21AB01", "nope")

	assert.Equal(t, "Invalid Credentials!\nLogin failed....", env.Reply())
	assert.Equal(t, "Invalid Credentials!\nLogin failed....", env.Session.Last(routertest.DMChannel(alice)))

	_, err := env.Store.AccountForDiscordUser(context.Background(), alice)
	assert.Error(t, err)
}

func TestLoginRejectsBadUsername(t *testing.T) {
	env := routertest.NewEnv(t, login.Command())

	for _, arg := range []string{"31AB01", "2AB01", "21A101", "21AB012"} {
		env.Say(alice, "!login "+arg)
		assert.Equal(t, "Invalid Username!", env.Reply(), arg)
	}
	assert.Zero(t, env.Portal.Logins)
}

func TestLoginWithoutDMs(t *testing.T) {
	env := routertest.NewEnv(t, login.Command())
	env.Session.DMError = errors.New("cannot send messages to this user")

	env.Say(alice, "!login 21AB01")

	assert.Contains(t, env.Reply(), "couldn't send you a DM")
	assert.False(t, env.Pending.Waiting(alice))
}

func TestLoginWhileAlreadyWaiting(t *testing.T) {
	env := routertest.NewEnv(t, login.Command())
	reply, err := env.Pending.Expect(alice)
	require.NoError(t, err)
	defer reply.Cancel()

	env.Say(alice, "!login 21AB01")
	assert.Contains(t, env.Reply(), "already waiting")
}

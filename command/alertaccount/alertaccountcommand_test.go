package alertaccount_test

import (
	"context"
	"testing"

	"NucleusBot/command/alertaccount"
	"NucleusBot/command/router/routertest"
	"NucleusBot/nucleus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alice = "100000000000000001"

func TestAlertAccountStoresPasswordAndClass(t *testing.T) {
	env := routertest.NewEnv(t, alertaccount.Command())
	env.Grant(alice, 6, false)
	env.Portal.Passwords["21AB01"] = "hunter2"
	env.Portal.Profiles["21AB01"] = nucleus.Profile{RollNo: "21AB01", ClassID: "21ab"}

	env.SayAndAnswer(alice, "!alert_account 21AB01", "hunter2")

	assert.Contains(t, env.Reply(), "alert account for class `21AB`")

	account, err := env.Store.AlertAccountForClass(context.Background(), "21AB")
	require.NoError(t, err)
	assert.Equal(t, "21AB01", account.Username)
	assert.Equal(t, "hunter2", account.Password)
	assert.True(t, account.IsAlert)
}

func TestAlertAccountNeedsLevelSix(t *testing.T) {
	env := routertest.NewEnv(t, alertaccount.Command())
	env.Grant(alice, 5, false)

	env.Say(alice, "!alert_account 21AB01")

	assert.Equal(t, "Who told you that you could do that?", env.Reply())
	assert.False(t, env.Pending.Waiting(alice))
}

func TestAlertAccountWithoutClass(t *testing.T) {
	env := routertest.NewEnv(t, alertaccount.Command())
	env.Grant(alice, 6, false)
	env.Portal.Passwords["21AB01"] = "hunter2"

	env.SayAndAnswer(alice, "!alert_account 21AB01", "hunter2")

	assert.Equal(t, "Nucleus did not report a class for `21AB01`.", env.Reply())
	_, err := env.Store.Account(context.Background(), "21AB01")
	assert.Error(t, err)
}

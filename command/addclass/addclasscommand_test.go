package addclass_test

import (
	"context"
	"testing"
	"time"

	"NucleusBot/command/addclass"
	"NucleusBot/command/router/routertest"
	"NucleusBot/models"
	"NucleusBot/nucleus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alice = "100000000000000001"

func setup(t *testing.T) *routertest.Env {
	env := routertest.NewEnv(t, addclass.Command())
	env.Grant(alice, 6, false)
	env.Portal.Classes["24AB"] = nucleus.ClassDetails{
		ClassID: "24AB",
		Courses: []nucleus.Course{
			{ID: "24XT51", Name: "Data Structures"},
			{ID: "24XT52", Name: "Operating Systems"},
		},
	}
	require.NoError(t, env.Store.UpsertAccount(context.Background(), &models.Account{
		Username: "24AB01",
		Password: "hunter2",
		Cookies:  `{"sid":"old"}`,
		ClassID:  "24AB",
		IsAlert:  true,
	}))
	return env
}

func TestAddClassRegistersCourses(t *testing.T) {
	env := setup(t)
	before := time.Now().Add(-time.Second)

	env.Say(alice, "!add_class 24ab")

	assert.Contains(t, env.Reply(), "Class 24AB registered")
	assert.Contains(t, env.Reply(), "Operating Systems")

	marks, err := env.Store.Watermarks(context.Background(), "24AB")
	require.NoError(t, err)
	require.Len(t, marks, 2)
	for _, m := range marks {
		assert.True(t, m.LastCheckedAssignment.After(before), "watermarks start at registration time")
		assert.Equal(t, m.LastCheckedAssignment, m.LastCheckedResource)
	}
}

func TestAddClassTwice(t *testing.T) {
	env := setup(t)

	env.Say(alice, "!add_class 24AB")
	env.Say(alice, "!add_class 24AB")

	assert.Equal(t, "It appears that a registration for class `24AB` already exists.", env.Reply())
}

func TestAddClassWithoutAlertAccount(t *testing.T) {
	env := setup(t)

	env.Say(alice, "!add_class 99ZZ")

	assert.Contains(t, env.Reply(), "I couldn't find an alert account for class `99ZZ`")
}

func TestAddClassLogsInAgainWhenSessionExpired(t *testing.T) {
	env := setup(t)
	env.Portal.Expired["old"] = true
	env.Portal.Passwords["24AB01"] = "hunter2"

	env.Say(alice, "!add_class 24AB")

	assert.Contains(t, env.Reply(), "Class 24AB registered")
	assert.Equal(t, 1, env.Portal.Logins)

	account, err := env.Store.Account(context.Background(), "24AB01")
	require.NoError(t, err)
	assert.Contains(t, account.Cookies, "fresh-24AB01")
}

func TestAddClassWrongStoredPassword(t *testing.T) {
	env := setup(t)
	env.Portal.Expired["old"] = true
	env.Portal.Passwords["24AB01"] = "changed"

	env.Say(alice, "!add_class 24AB")

	assert.Equal(t, "Invalid Credentials!\nLogin failed....", env.Reply())
	has, err := env.Store.HasClass(context.Background(), "24AB")
	require.NoError(t, err)
	assert.False(t, has)
}

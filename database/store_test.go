package database_test

import (
	"context"
	"testing"
	"time"

	"NucleusBot/database"
	"NucleusBot/database/dbtest"
	"NucleusBot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCreateAccountDuplicate(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, &models.Account{Username: "21CS01", IsAlert: true}))

	err := store.CreateAccount(ctx, &models.Account{Username: "21CS01"})
	assert.ErrorIs(t, err, database.ErrDuplicate)
}

func TestUpsertAccountKeepsAlertFields(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertAccount(ctx, &models.Account{
		Username: "21CS01",
		Password: "hunter2",
		Cookies:  `{"sid":"one"}`,
		ClassID:  "24AB",
		IsAlert:  true,
	}))

	// A plain user login for the same roll number only refreshes cookies.
	require.NoError(t, store.UpsertAccount(ctx, &models.Account{
		Username: "21CS01",
		Cookies:  `{"sid":"two"}`,
	}))

	account, err := store.Account(ctx, "21CS01")
	require.NoError(t, err)
	assert.Equal(t, `{"sid":"two"}`, account.Cookies)
	assert.Equal(t, "hunter2", account.Password)
	assert.Equal(t, "24AB", account.ClassID)
	assert.True(t, account.IsAlert)
}

func TestAlertAccountsAndRefresh(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, &models.Account{Username: "21CS01", ClassID: "24AB", IsAlert: true, Cookies: "{}"}))
	require.NoError(t, store.CreateAccount(ctx, &models.Account{Username: "21CS02", ClassID: "24AB"}))

	accounts, err := store.AlertAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "21CS01", accounts[0].Username)

	require.NoError(t, store.SaveRefreshedSession(ctx, "21CS01", `{"sid":"fresh"}`))
	account, err := store.Account(ctx, "21CS01")
	require.NoError(t, err)
	assert.Equal(t, `{"sid":"fresh"}`, account.Cookies)
	assert.False(t, account.LastRefresh.IsZero())

	err = store.SaveRefreshedSession(ctx, "nobody", "{}")
	assert.ErrorIs(t, err, database.ErrNotFound)

	byClass, err := store.AlertAccountForClass(ctx, "24AB")
	require.NoError(t, err)
	assert.Equal(t, "21CS01", byClass.Username)

	_, err = store.AlertAccountForClass(ctx, "99ZZ")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestDiscordLink(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, &models.Account{Username: "21CS01"}))
	require.NoError(t, store.CreateAccount(ctx, &models.Account{Username: "21CS02"}))

	require.NoError(t, store.LinkDiscordUser(ctx, "1001", "21CS01"))
	require.NoError(t, store.LinkDiscordUser(ctx, "1001", "21CS02"))

	account, err := store.AccountForDiscordUser(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "21CS02", account.Username)

	_, err = store.AccountForDiscordUser(ctx, "2002")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestWatermarks(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	courses := []database.Course{{ID: "CS101", Name: "Intro"}, {ID: "CS102", Name: "Data"}}
	require.NoError(t, store.RegisterCourses(ctx, "24AB", courses, since))

	err := store.RegisterCourses(ctx, "24AB", courses[:1], since)
	assert.ErrorIs(t, err, database.ErrDuplicate)

	marks, err := store.Watermarks(ctx, "24AB")
	require.NoError(t, err)
	require.Len(t, marks, 2)
	assert.True(t, marks["CS101"].LastCheckedAssignment.Equal(since))
	assert.True(t, marks["CS101"].LastCheckedResource.Equal(since))

	next := since.Add(24 * time.Hour)
	require.NoError(t, store.AdvanceWatermark(ctx, "24AB", "CS101", models.ItemAssignment, next))

	marks, err = store.Watermarks(ctx, "24AB")
	require.NoError(t, err)
	assert.True(t, marks["CS101"].LastCheckedAssignment.Equal(next))
	assert.True(t, marks["CS101"].LastCheckedResource.Equal(since), "resource mark must be untouched")

	err = store.AdvanceWatermark(ctx, "24AB", "CS999", models.ItemResource, next)
	assert.ErrorIs(t, err, database.ErrNotFound)

	has, err := store.HasClass(ctx, "24AB")
	require.NoError(t, err)
	assert.True(t, has)

	empty, err := store.Watermarks(ctx, "99ZZ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAlerts(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddAlert(ctx, &models.AlertSubscription{ClassID: "24AB", ChannelID: "c1", GuildID: "g1", RoleID: "r1"}))
	require.NoError(t, store.AddAlert(ctx, &models.AlertSubscription{ClassID: "24AB", ChannelID: "c2", GuildID: "g1"}))

	err := store.AddAlert(ctx, &models.AlertSubscription{ClassID: "24AB", ChannelID: "c1", GuildID: "g1"})
	assert.ErrorIs(t, err, database.ErrDuplicate)

	subs, err := store.AlertsForClass(ctx, "24AB")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "r1", subs[0].RoleID)

	require.NoError(t, store.RemoveAlert(ctx, "24AB", "c1"))
	assert.ErrorIs(t, store.RemoveAlert(ctx, "24AB", "c1"), database.ErrNotFound)

	subs, err = store.AlertsForClass(ctx, "none")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestPermissions(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()

	_, found, err := store.PermissionLevel(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.AddAuth(ctx, &models.UserAuth{ItemID: "u1", Level: 2}))
	require.NoError(t, store.AddAuth(ctx, &models.UserAuth{ItemID: "role1", Level: 6, Role: true, ServerID: "g1"}))
	assert.ErrorIs(t, store.AddAuth(ctx, &models.UserAuth{ItemID: "u1", Level: 3}), database.ErrDuplicate)

	level, found, err := store.PermissionLevel(ctx, "u1", "role1", "role2")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 6, level)

	require.NoError(t, store.ChangeAuth(ctx, "u1", 8))
	level, _, err = store.PermissionLevel(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 8, level)
	assert.ErrorIs(t, store.ChangeAuth(ctx, "ghost", 1), database.ErrNotFound)

	name, err := store.PermissionName(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, "Admin", name)

	users, err := store.ListAuth(ctx, false)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Admin", users[0].Name)

	all, err := store.ListAuth(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestWhitelist(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()

	ok, err := store.IsWhitelisted(ctx, "g1", "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.AddWhitelist(ctx, "g1", "c1"))
	assert.ErrorIs(t, store.AddWhitelist(ctx, "g1", "c1"), database.ErrDuplicate)

	ok, err = store.IsWhitelisted(ctx, "g1", "c1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.RemoveWhitelist(ctx, "g1", "c1"))
	assert.ErrorIs(t, store.RemoveWhitelist(ctx, "g1", "c1"), database.ErrNotFound)
}

func TestRecordCommand(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordCommand(ctx, "login", true, 100*time.Millisecond))
	require.NoError(t, store.RecordCommand(ctx, "login", false, 300*time.Millisecond))
	require.NoError(t, store.RecordCommand(ctx, "help", true, 0))

	stats, err := store.CommandStats(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "login", stats[0].CommandName)
	assert.Equal(t, 2, stats[0].UsageCount)
	assert.Equal(t, 1, stats[0].SuccessCount)
	assert.Equal(t, 1, stats[0].ErrorCount)
	assert.InDelta(t, 200, stats[0].AverageTimeMs, 0.001)

	assert.Equal(t, "help", stats[1].CommandName)
	assert.Equal(t, 1, stats[1].UsageCount)

	stats, err = store.CommandStats(ctx, time.Now().AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestRecordCommandConcurrentRuns(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		success := i%4 != 0
		g.Go(func() error {
			return store.RecordCommand(ctx, "schedule", success, 50*time.Millisecond)
		})
	}
	require.NoError(t, g.Wait())

	stats, err := store.CommandStats(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 20, stats[0].UsageCount)
	assert.Equal(t, 15, stats[0].SuccessCount)
	assert.Equal(t, 5, stats[0].ErrorCount)
	assert.InDelta(t, 50, stats[0].AverageTimeMs, 0.001)
}

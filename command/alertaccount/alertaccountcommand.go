package alertaccount

import (
	"fmt"
	"time"

	"NucleusBot/command/login"
	"NucleusBot/command/router"
	"NucleusBot/errorhandler"
	"NucleusBot/logger"
	"NucleusBot/models"
	"NucleusBot/utils"
)

func Command() *router.Command {
	return &router.Command{
		Name:        "alert_account",
		Usage:       "<user_id>",
		Description: "Registers the account the bot polls for its class. The password is stored for automatic re-login.",
		Checks:      []router.Middleware{router.RequireWhitelist(), router.RequirePermission(6)},
		MinArgs:     1,
		Run:         CommandAlertAccount,
	}
}

func CommandAlertAccount(c *router.Context) error {
	username, ok := utils.NormalizeRollNumber(c.Arg(0))
	if !ok {
		return errorhandler.NewUserError("Invalid Username!")
	}

	sess, password, err := login.PromptCredentials(c, username)
	if err != nil {
		return err
	}

	profile, err := c.Deps.Portal.Profile(c.Ctx, sess)
	if err != nil {
		return router.PortalError(err, "profile of "+username)
	}
	classID, ok := utils.NormalizeClassID(profile.ClassID)
	if !ok {
		return errorhandler.NewUserError(fmt.Sprintf("Nucleus did not report a class for `%s`.", username))
	}

	cookies, err := sess.EncodeCookies()
	if err != nil {
		return errorhandler.NewError(errorhandler.UnknownError, err, "encode cookies", "", false)
	}
	account := &models.Account{
		Username:    username,
		Password:    password,
		Cookies:     cookies,
		ClassID:     classID,
		IsAlert:     true,
		LastRefresh: time.Now().UTC(),
	}
	if err := c.Deps.Store.UpsertAccount(c.Ctx, account); err != nil {
		return router.StoreError(err, "account `"+username+"`")
	}

	logger.Log.WithField("username", username).WithField("class_id", classID).Info("Registered alert account")
	return c.Replyf("`%s` is now the alert account for class `%s`. Use `%sadd_class %s` to start tracking its courses.",
		username, classID, c.Router.Prefix(), classID)
}

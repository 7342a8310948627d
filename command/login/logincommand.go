package login

import (
	"errors"
	"strings"
	"time"

	"NucleusBot/command/router"
	"NucleusBot/errorhandler"
	"NucleusBot/logger"
	"NucleusBot/models"
	"NucleusBot/nucleus"
	"NucleusBot/utils"
)

func Command() *router.Command {
	return &router.Command{
		Name:        "login",
		Usage:       "<user_id>",
		Description: "Links your Nucleus account. I'll ask for the password in DMs.",
		Checks:      []router.Middleware{router.RequireWhitelist()},
		MinArgs:     1,
		Run:         CommandLogin,
	}
}

func CommandLogin(c *router.Context) error {
	username, ok := utils.NormalizeRollNumber(c.Arg(0))
	if !ok {
		return errorhandler.NewUserError("Invalid Username!")
	}

	sess, _, err := PromptCredentials(c, username)
	if err != nil {
		return err
	}

	cookies, err := sess.EncodeCookies()
	if err != nil {
		return errorhandler.NewError(errorhandler.UnknownError, err, "encode cookies", "", false)
	}
	account := &models.Account{
		Username:    username,
		Cookies:     cookies,
		LastRefresh: time.Now().UTC(),
	}
	if err := c.Deps.Store.UpsertAccount(c.Ctx, account); err != nil {
		return router.StoreError(err, "account `"+username+"`")
	}
	if err := c.Deps.Store.LinkDiscordUser(c.Ctx, c.AuthorID(), username); err != nil {
		return router.StoreError(err, "a link for you")
	}

	logger.Log.WithField("username", username).WithField("user_id", c.AuthorID()).Info("Linked Discord user to Nucleus account")
	return c.Replyf("Your Discord account is now linked to `%s`.", username)
}

// PromptCredentials asks the author for the password of username in DMs,
// waits for the answer and logs in with it.
func PromptCredentials(c *router.Context, username string) (*nucleus.Session, string, error) {
	reply, err := c.Deps.Pending.Expect(c.AuthorID())
	if err != nil {
		return nil, "", errorhandler.NewUserError("I'm already waiting for a password from you. Check your DMs.")
	}

	if _, err := c.DM("Please send me the password..."); err != nil {
		reply.Cancel()
		return nil, "", errorhandler.NewUserError("I couldn't send you a DM. Please allow direct messages from server members.")
	}

	msg, err := reply.Wait(c.Ctx, c.Deps.ReplyTimeout)
	if err != nil {
		if errors.Is(err, router.ErrReplyTimeout) {
			_, _ = c.DM("Timed out waiting for the password.")
			return nil, "", errorhandler.NewUserError("You didn't send the password in time. Please try again.")
		}
		return nil, "", errorhandler.NewError(errorhandler.UnknownError, err, "waiting for password", "", false)
	}

	password := strings.TrimSpace(msg.Content)
	sess, err := c.Deps.Portal.Login(c.Ctx, username, password)
	if err != nil {
		if errors.Is(err, nucleus.ErrInvalidCredentials) || errors.Is(err, nucleus.ErrUnexpectedResponse) {
			_, _ = c.DM("Invalid Credentials!\nLogin failed....")
		}
		return nil, "", router.PortalError(err, "login "+username)
	}

	_, _ = c.DM("Login Succeeded!")
	return sess, password, nil
}

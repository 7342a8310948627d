package router

import (
	"errors"

	"NucleusBot/logger"
	"NucleusBot/models"
	"NucleusBot/nucleus"
)

// WithPortalSession runs fn with the stored session of account. When the
// portal says the session expired and a password is stored, it logs in once,
// saves the new cookies and runs fn again.
func (c *Context) WithPortalSession(account models.Account, fn func(sess *nucleus.Session) error) error {
	sess, err := nucleus.DecodeSession(account.Username, account.Cookies)
	if err != nil {
		logger.Log.WithError(err).WithField("username", account.Username).Warn("Stored cookies are unreadable")
		sess = &nucleus.Session{Username: account.Username}
	}

	err = fn(sess)
	if !errors.Is(err, nucleus.ErrSessionExpired) || account.Password == "" {
		return err
	}

	fresh, err := c.Deps.Portal.Login(c.Ctx, account.Username, account.Password)
	if err != nil {
		return err
	}
	if encoded, err := fresh.EncodeCookies(); err == nil {
		if err := c.Deps.Store.SaveRefreshedSession(c.Ctx, account.Username, encoded); err != nil {
			logger.Log.WithError(err).WithField("username", account.Username).Error("Failed to store refreshed session")
		}
	}
	return fn(fresh)
}

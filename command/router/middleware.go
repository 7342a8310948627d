package router

import (
	"errors"
	"fmt"

	"NucleusBot/errorhandler"
)

// RequireWhitelist lets the command run only in channels on the whitelist.
func RequireWhitelist() Middleware {
	return func(next Handler) Handler {
		return func(c *Context) error {
			if c.GuildID() == "" {
				return errorhandler.NewNotWhitelistedError(errors.New("command used in a DM"))
			}
			ok, err := c.Deps.Store.IsWhitelisted(c.Ctx, c.GuildID(), c.ChannelID())
			if err != nil {
				return errorhandler.NewDatabaseError(err, "whitelist check")
			}
			if !ok {
				return errorhandler.NewNotWhitelistedError(fmt.Errorf("channel %s is not whitelisted", c.ChannelID()))
			}
			return next(c)
		}
	}
}

// RequirePermission lets the command run when the highest level granted to
// the author or any of their roles is at least level. The owner always
// passes.
func RequirePermission(level int) Middleware {
	return func(next Handler) Handler {
		return func(c *Context) error {
			if c.IsOwner() {
				return next(c)
			}
			have, err := AuthorLevel(c)
			if err != nil {
				return errorhandler.NewDatabaseError(err, "permission check")
			}
			if have < level {
				return errorhandler.NewNotAuthorizedError(fmt.Errorf("%s has level %d, needs %d", c.AuthorID(), have, level))
			}
			return next(c)
		}
	}
}

// AuthorLevel is the author's effective level; 0 without any grant and 11
// for the owner.
func AuthorLevel(c *Context) (int, error) {
	if c.IsOwner() {
		return OwnerLevel, nil
	}
	ids := append([]string{c.AuthorID()}, c.RoleIDs()...)
	level, found, err := c.Deps.Store.PermissionLevel(c.Ctx, ids...)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return level, nil
}

const (
	MaxLevel   = 10
	OwnerLevel = MaxLevel + 1
)

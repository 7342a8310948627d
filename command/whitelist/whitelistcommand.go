package whitelist

import (
	"errors"

	"NucleusBot/command/router"
	"NucleusBot/database"
	"NucleusBot/errorhandler"
	"NucleusBot/logger"
	"NucleusBot/utils"
)

func Command() *router.Command {
	return &router.Command{
		Name:        "whitelist",
		Usage:       "<#channel>",
		Description: "Allows gated commands in a channel of this server.",
		Checks:      []router.Middleware{router.RequirePermission(6)},
		MinArgs:     1,
		Run:         CommandWhitelist,
	}
}

func RemoveCommand() *router.Command {
	return &router.Command{
		Name:        "whitelist_remove",
		Usage:       "<#channel>",
		Description: "Removes a channel from the whitelist.",
		Checks:      []router.Middleware{router.RequirePermission(6)},
		MinArgs:     1,
		Run:         CommandWhitelistRemove,
	}
}

func channelArg(c *router.Context) (string, error) {
	if c.GuildID() == "" {
		return "", errorhandler.NewUserError("This command only works in a server.")
	}
	channelID, ok := utils.ParseChannel(c.Arg(0))
	if !ok {
		return "", errorhandler.NewUserError("Invalid channel!")
	}
	return channelID, nil
}

func CommandWhitelist(c *router.Context) error {
	channelID, err := channelArg(c)
	if err != nil {
		return err
	}

	err = c.Deps.Store.AddWhitelist(c.Ctx, c.GuildID(), channelID)
	if errors.Is(err, database.ErrDuplicate) {
		return c.Replyf("It appears that <#%s> is already part of the whitelist", channelID)
	}
	if err != nil {
		return router.StoreError(err, "channel <#"+channelID+">")
	}

	logger.Log.WithField("guild_id", c.GuildID()).WithField("channel_id", channelID).Info("Channel whitelisted")
	return c.Replyf("Successfully added channel <#%s> to the whitelist! :smiley:", channelID)
}

func CommandWhitelistRemove(c *router.Context) error {
	channelID, err := channelArg(c)
	if err != nil {
		return err
	}

	err = c.Deps.Store.RemoveWhitelist(c.Ctx, c.GuildID(), channelID)
	if errors.Is(err, database.ErrNotFound) {
		return c.Replyf("Channel <#%s> is not on the whitelist!", channelID)
	}
	if err != nil {
		return router.StoreError(err, "channel <#"+channelID+">")
	}

	logger.Log.WithField("guild_id", c.GuildID()).WithField("channel_id", channelID).Info("Channel removed from whitelist")
	return c.Replyf("Channel <#%s> was successfully removed!", channelID)
}

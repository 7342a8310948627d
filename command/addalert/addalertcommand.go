package addalert

import (
	"fmt"
	"strings"

	"NucleusBot/command/router"
	"NucleusBot/errorhandler"
	"NucleusBot/logger"
	"NucleusBot/models"
	"NucleusBot/utils"
)

func Command() *router.Command {
	return &router.Command{
		Name:        "add_alert",
		Usage:       "<class_id> [@role|none] [#channel] [guild_id]",
		Description: "Announces new items of a class in a channel, optionally pinging a role.",
		Checks:      []router.Middleware{router.RequireWhitelist(), router.RequirePermission(6)},
		MinArgs:     1,
		Run:         CommandAddAlert,
	}
}

func RemoveCommand() *router.Command {
	return &router.Command{
		Name:        "remove_alert",
		Usage:       "<class_id> [#channel]",
		Description: "Stops announcing a class in a channel.",
		Checks:      []router.Middleware{router.RequireWhitelist(), router.RequirePermission(6)},
		MinArgs:     1,
		Run:         CommandRemoveAlert,
	}
}

func CommandAddAlert(c *router.Context) error {
	classID, ok := utils.NormalizeClassID(c.Arg(0))
	if !ok {
		return errorhandler.NewUserError("Invalid class id!")
	}

	tracked, err := c.Deps.Store.HasClass(c.Ctx, classID)
	if err != nil {
		return router.StoreError(err, "class `"+classID+"`")
	}
	if !tracked {
		return errorhandler.NewUserError(fmt.Sprintf("Class `%s` is not tracked yet. Use `%sadd_class %s` first.", classID, c.Router.Prefix(), classID))
	}

	sub := &models.AlertSubscription{
		ClassID:   classID,
		ChannelID: c.ChannelID(),
		GuildID:   c.GuildID(),
	}

	if arg := c.Arg(1); arg != "" && !strings.EqualFold(arg, "none") {
		roleID, ok := utils.ParseRole(arg)
		if !ok {
			return errorhandler.NewUserError("Invalid role! Mention it, give its id or use `none`.")
		}
		sub.RoleID = roleID
	}
	if arg := c.Arg(2); arg != "" {
		channelID, ok := utils.ParseChannel(arg)
		if !ok {
			return errorhandler.NewUserError("Invalid channel!")
		}
		sub.ChannelID = channelID
	}
	if arg := c.Arg(3); arg != "" {
		if !utils.IsSnowflake(arg) {
			return errorhandler.NewValidationError(fmt.Errorf("guild id %q", arg), "guild id")
		}
		sub.GuildID = arg
	}

	if err := c.Deps.Store.AddAlert(c.Ctx, sub); err != nil {
		return router.StoreError(err, fmt.Sprintf("an alert for class `%s` in <#%s>", classID, sub.ChannelID))
	}

	logger.Log.WithField("class_id", classID).WithField("channel_id", sub.ChannelID).Info("Added alert subscription")
	if sub.RoleID == "" {
		return c.Replyf("New items for class `%s` will be posted in <#%s>.", classID, sub.ChannelID)
	}
	return c.Replyf("New items for class `%s` will be posted in <#%s> pinging <@&%s>.", classID, sub.ChannelID, sub.RoleID)
}

func CommandRemoveAlert(c *router.Context) error {
	classID, ok := utils.NormalizeClassID(c.Arg(0))
	if !ok {
		return errorhandler.NewUserError("Invalid class id!")
	}
	channelID := c.ChannelID()
	if arg := c.Arg(1); arg != "" {
		if channelID, ok = utils.ParseChannel(arg); !ok {
			return errorhandler.NewUserError("Invalid channel!")
		}
	}

	if err := c.Deps.Store.RemoveAlert(c.Ctx, classID, channelID); err != nil {
		return router.StoreError(err, fmt.Sprintf("an alert for class `%s` in <#%s>", classID, channelID))
	}

	logger.Log.WithField("class_id", classID).WithField("channel_id", channelID).Info("Removed alert subscription")
	return c.Replyf("Class `%s` will no longer be posted in <#%s>.", classID, channelID)
}

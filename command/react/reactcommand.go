package react

import (
	"fmt"

	"NucleusBot/command/router"
	"NucleusBot/errorhandler"
	"NucleusBot/utils"

	"github.com/bwmarrin/discordgo"
)

func Command() *router.Command {
	return &router.Command{
		Name:        "react",
		Usage:       "<emoji> <message_id> [#channel]",
		Description: "Adds a reaction to a message.",
		Checks:      []router.Middleware{router.RequirePermission(8)},
		MinArgs:     2,
		Run:         CommandReact,
	}
}

func CommandReact(c *router.Context) error {
	emoji := utils.ParseEmoji(c.Arg(0))
	messageID := c.Arg(1)
	if !utils.IsSnowflake(messageID) {
		return errorhandler.NewValidationError(fmt.Errorf("message id %q", messageID), "message id")
	}

	channelID, err := c.TargetChannel(c.Arg(2))
	if err != nil {
		return err
	}

	notFound := errorhandler.NewUserError(fmt.Sprintf("Cannot find message with ID: `%s`", messageID))
	if _, err := c.Session.ChannelMessage(channelID, messageID); err != nil {
		if utils.DiscordErrorCode(err) == discordgo.ErrCodeUnknownMessage {
			return notFound
		}
		return router.DiscordFailure(err, "fetching the message")
	}

	if err := c.Session.MessageReactionAdd(channelID, messageID, emoji); err != nil {
		switch utils.DiscordErrorCode(err) {
		case discordgo.ErrCodeUnknownMessage:
			return notFound
		case discordgo.ErrCodeUnknownEmoji:
			return errorhandler.NewUserError("I can't use that emoji.")
		}
		return router.DiscordFailure(err, "adding the reaction")
	}
	return nil
}

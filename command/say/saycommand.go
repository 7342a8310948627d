package say

import (
	"errors"
	"strings"

	"NucleusBot/command/router"
	"NucleusBot/errorhandler"
	"NucleusBot/logger"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

func Command() *router.Command {
	return &router.Command{
		Name:        "say",
		Usage:       "[#channel]",
		Description: "Posts your next message in this channel as the bot, here or in another channel.",
		Checks:      []router.Middleware{router.RequirePermission(8)},
		Run:         CommandSay,
	}
}

func CommandSay(c *router.Context) error {
	target, err := c.TargetChannel(c.Arg(0))
	if err != nil {
		return err
	}

	reply, err := c.Deps.Pending.ExpectIn(c.AuthorID(), c.ChannelID())
	if errors.Is(err, router.ErrAlreadyWaiting) {
		return errorhandler.NewUserError("I'm already waiting for a message from you here.")
	}
	if err != nil {
		return err
	}

	prompt, err := c.ReplyMessage("Please send the message....")
	if err != nil {
		reply.Cancel()
		return router.DiscordFailure(err, "prompting for the message")
	}
	defer func() {
		if err := c.Session.ChannelMessageDelete(prompt.ChannelID, prompt.ID); err != nil {
			logger.Log.WithError(err).Debug("Failed to remove say prompt")
		}
	}()

	m, err := reply.Wait(c.Ctx, c.Deps.ReplyTimeout)
	if errors.Is(err, router.ErrReplyTimeout) {
		return c.Reply("Timed out!")
	}
	if err != nil {
		return err
	}
	if strings.TrimSpace(m.Content) == "" {
		return errorhandler.NewUserError("There was nothing to send.")
	}

	_, err = c.Session.ChannelMessageSendComplex(target, &discordgo.MessageSend{
		Content: m.Content,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers, discordgo.AllowedMentionTypeRoles},
		},
	})
	if err != nil {
		return router.DiscordFailure(err, "sending the message")
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":    c.AuthorID(),
		"channel_id": target,
	}).Info("Sent message on behalf of user")
	return c.Reply("Message sent")
}

package router

import (
	"errors"
	"fmt"

	"NucleusBot/errorhandler"
	"NucleusBot/utils"

	"github.com/bwmarrin/discordgo"
)

var errInvalidChannel = errorhandler.NewUserError("Invalid Channel ID")

// TargetChannel resolves a channel argument to a channel of the current
// guild. An empty arg means the channel the command was used in.
func (c *Context) TargetChannel(arg string) (string, error) {
	if arg == "" {
		return c.ChannelID(), nil
	}
	id, ok := utils.ParseChannel(arg)
	if !ok {
		return "", errInvalidChannel
	}
	if id == c.ChannelID() {
		return id, nil
	}

	ch, err := c.Session.Channel(id)
	if err != nil {
		switch utils.DiscordErrorCode(err) {
		case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeMissingAccess:
			return "", errInvalidChannel
		}
		return "", errorhandler.NewDiscordError(err, "channel lookup")
	}
	if ch.GuildID == "" || ch.GuildID != c.GuildID() {
		return "", errInvalidChannel
	}
	return ch.ID, nil
}

// MissingPermissions reports whether err is Discord refusing the bot access.
func MissingPermissions(err error) bool {
	switch utils.DiscordErrorCode(err) {
	case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
		return true
	}
	return false
}

// DiscordFailure turns a failed Discord call into a reply.
func DiscordFailure(err error, what string) error {
	if MissingPermissions(err) {
		return errorhandler.NewError(errorhandler.DiscordError, err, fmt.Sprintf("Discord refused %s", what),
			"I don't have enough permissions!", true)
	}
	var custom *errorhandler.CustomError
	if errors.As(err, &custom) {
		return err
	}
	return errorhandler.NewDiscordError(err, what)
}

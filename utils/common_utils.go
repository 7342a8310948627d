package utils

import (
	"errors"

	"NucleusBot/logger"

	"github.com/bwmarrin/discordgo"
)

// MessageSender is the part of *discordgo.Session used to answer messages.
type MessageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// RespondToMessage replies to m without pinging anyone.
func RespondToMessage(s MessageSender, m *discordgo.Message, message string) error {
	_, err := ReplyMessage(s, m, message)
	return err
}

// ReplyMessage is RespondToMessage returning the sent message.
func ReplyMessage(s MessageSender, m *discordgo.Message, message string) (*discordgo.Message, error) {
	sent, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content:         message,
		Reference:       m.Reference(),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		logger.Log.WithError(err).WithField("channel_id", m.ChannelID).Error("Error responding to message")
	}
	return sent, err
}

func RespondWithEmbed(s MessageSender, m *discordgo.Message, embed *discordgo.MessageEmbed) error {
	_, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{embed},
		Reference:       m.Reference(),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		logger.Log.WithError(err).WithField("channel_id", m.ChannelID).Error("Error responding to message with embed")
	}
	return err
}

type DMSender interface {
	MessageSender
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// SendDM opens (or reuses) the DM channel with userID and posts message.
// It returns the DM channel id.
func SendDM(s DMSender, userID, message string) (string, error) {
	channel, err := s.UserChannelCreate(userID)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Error creating DM channel")
		return "", err
	}
	if _, err := s.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{Content: message}); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Error sending DM")
		return channel.ID, err
	}
	return channel.ID, nil
}

// DiscordErrorCode returns the JSON error code of a Discord REST error, or 0.
func DiscordErrorCode(err error) int {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return 0
	}
	return restErr.Message.Code
}

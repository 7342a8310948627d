package notify

import (
	"context"
	"fmt"
	"time"

	"NucleusBot/logger"

	"github.com/bwmarrin/discordgo"
	"github.com/patrickmn/go-cache"
)

// DMSender can also open a DM channel, as *discordgo.Session does.
type DMSender interface {
	Sender
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// AdminAlerter tells the operators about failures the bot cannot fix on its
// own. Alerts go to the admin channel, or to the owner by DM when no channel
// is configured or the channel send fails. Repeats of a key within the
// cooldown are dropped.
type AdminAlerter struct {
	sender    DMSender
	channelID string
	ownerID   string
	cooldown  time.Duration
	recent    *cache.Cache
}

func NewAdminAlerter(sender DMSender, channelID, ownerID string, cooldown time.Duration) *AdminAlerter {
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &AdminAlerter{
		sender:    sender,
		channelID: channelID,
		ownerID:   ownerID,
		cooldown:  cooldown,
		recent:    cache.New(cooldown, 2*cooldown),
	}
}

func (a *AdminAlerter) Alert(ctx context.Context, key, title, message string) error {
	if err := a.recent.Add(key, struct{}{}, a.cooldown); err != nil {
		logger.Log.WithField("alert_key", key).Debug("Admin alert suppressed by cooldown")
		return nil
	}

	if err := a.deliver(ctx, title, message); err != nil {
		a.recent.Delete(key)
		return err
	}
	logger.Log.WithField("alert_key", key).Infof("Sent admin alert: %s", title)
	return nil
}

func (a *AdminAlerter) deliver(ctx context.Context, title, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{adminEmbed(title, message)}}

	if a.channelID != "" {
		_, err := a.sender.ChannelMessageSendComplex(a.channelID, msg)
		if err == nil {
			return nil
		}
		logger.Log.WithError(err).WithField("channel_id", a.channelID).Warn("Failed to post admin alert, falling back to owner DM")
	}

	if a.ownerID == "" {
		return fmt.Errorf("admin alert %q: no admin channel or owner configured", title)
	}
	channel, err := a.sender.UserChannelCreate(a.ownerID)
	if err != nil {
		return fmt.Errorf("open DM with owner: %w", err)
	}
	if _, err := a.sender.ChannelMessageSendComplex(channel.ID, msg); err != nil {
		return fmt.Errorf("send admin alert to owner: %w", err)
	}
	return nil
}

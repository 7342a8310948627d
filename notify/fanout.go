// Package notify delivers new portal items to the Discord channels
// subscribed to a class and raises operator alerts.
package notify

import (
	"context"
	"errors"
	"fmt"

	"NucleusBot/logger"
	"NucleusBot/models"
	"NucleusBot/nucleus"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Subscriptions resolves the destinations of a class.
type Subscriptions interface {
	AlertsForClass(ctx context.Context, classID string) ([]models.AlertSubscription, error)
}

// Sender is the part of *discordgo.Session used to post messages.
type Sender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Report counts item messages; role mentions are tracked separately.
type Report struct {
	Subscriptions  int
	Attempted      int
	Failed         int
	Mentions       int
	MentionsFailed int
}

type Fanout struct {
	subs    Subscriptions
	sender  Sender
	limiter *rate.Limiter
}

// NewFanout paces every send through limiter. A nil limiter does not pace.
func NewFanout(subs Subscriptions, sender Sender, limiter *rate.Limiter) *Fanout {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Fanout{subs: subs, sender: sender, limiter: limiter}
}

// Deliver posts one message per item to every subscription of the class,
// preceded by a role mention where the subscription has a role. A failing
// destination is logged and the remaining sends still happen. The error is
// non-nil only when the subscriptions could not be read.
func (f *Fanout) Deliver(ctx context.Context, classID string, assignments []nucleus.Assignment, resources []nucleus.Resource) (Report, error) {
	var report Report
	if len(assignments) == 0 && len(resources) == 0 {
		return report, nil
	}

	subs, err := f.subs.AlertsForClass(ctx, classID)
	if err != nil {
		return report, fmt.Errorf("load subscriptions for class %s: %w", classID, err)
	}
	if len(subs) == 0 {
		logger.Log.WithField("class_id", classID).Debug("No alert subscriptions, skipping delivery")
		return report, nil
	}
	report.Subscriptions = len(subs)

	messages := make([]*discordgo.MessageSend, 0, len(assignments)+len(resources))
	for _, a := range assignments {
		messages = append(messages, assignmentMessage(classID, a))
	}
	for _, r := range resources {
		messages = append(messages, resourceMessage(classID, r))
	}

	for _, sub := range subs {
		log := logger.Log.WithFields(logrus.Fields{
			"class_id":   classID,
			"channel_id": sub.ChannelID,
			"guild_id":   sub.GuildID,
		})

		if sub.RoleID != "" {
			report.Mentions++
			if err := f.send(ctx, sub.ChannelID, mentionMessage(sub.RoleID, classID, len(assignments), len(resources))); err != nil {
				report.MentionsFailed++
				log.WithError(err).Warnf("Failed to send role mention: %s", describeSendError(err))
			}
		}

		failed := 0
		for _, msg := range messages {
			report.Attempted++
			if err := f.send(ctx, sub.ChannelID, msg); err != nil {
				failed++
				log.WithError(err).Warnf("Failed to deliver item: %s", describeSendError(err))
			}
		}
		report.Failed += failed

		if failed == 0 {
			log.Infof("Delivered %d items", len(messages))
		} else {
			log.Warnf("Delivered %d of %d items", len(messages)-failed, len(messages))
		}
	}

	return report, nil
}

func (f *Fanout) send(ctx context.Context, channelID string, msg *discordgo.MessageSend) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := f.sender.ChannelMessageSendComplex(channelID, msg)
	return err
}

func describeSendError(err error) string {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return "send failed"
	}
	switch restErr.Message.Code {
	case discordgo.ErrCodeUnknownChannel:
		return "channel no longer exists"
	case discordgo.ErrCodeUnknownGuild:
		return "guild no longer exists"
	case discordgo.ErrCodeMissingAccess, discordgo.ErrCodeMissingPermissions:
		return "bot lacks access to the channel"
	case discordgo.ErrCodeUnknownRole:
		return "role no longer exists"
	default:
		return restErr.Message.Message
	}
}

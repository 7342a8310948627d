package purge

import (
	"fmt"
	"strconv"
	"time"

	"NucleusBot/command/router"
	"NucleusBot/errorhandler"
	"NucleusBot/logger"
	"NucleusBot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const (
	defaultCount = 5
	maxCount     = 500
	pageSize     = 100
	// Discord refuses to bulk delete messages older than two weeks.
	bulkDeleteMaxAge = 14 * 24 * time.Hour
)

// noticeLifetime is how long the "Deleted N message(s)" notice stays up.
var noticeLifetime = 5 * time.Second

func Command() *router.Command {
	return &router.Command{
		Name:        "purge",
		Usage:       "[count] [@user]",
		Description: "Deletes the latest messages of this channel, optionally only those of one user.",
		Checks:      []router.Middleware{router.RequirePermission(8)},
		Run:         CommandPurge,
	}
}

func CommandPurge(c *router.Context) error {
	if c.GuildID() == "" {
		return c.Reply("This is not a Text channel")
	}

	count := defaultCount
	if arg := c.Arg(0); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return errorhandler.NewValidationError(fmt.Errorf("purge count %q", arg), "number of messages")
		}
		count = min(n, maxCount)
	}

	var userID string
	if arg := c.Arg(1); arg != "" {
		id, kind := utils.ParseMention(arg)
		if kind != utils.MentionUser && kind != utils.MentionRaw {
			return errorhandler.NewValidationError(fmt.Errorf("purge user %q", arg), "user")
		}
		userID = id
	}

	// The scan includes the command message itself.
	recent, old, err := collect(c, count+1, userID)
	if err != nil {
		return router.DiscordFailure(err, "reading channel history")
	}

	deleted := 0
	for start := 0; start < len(recent); start += pageSize {
		batch := recent[start:min(start+pageSize, len(recent))]
		if err := c.Session.ChannelMessagesBulkDelete(c.ChannelID(), batch); err != nil {
			return router.DiscordFailure(err, "bulk deleting messages")
		}
		deleted += len(batch)
	}
	for _, id := range old {
		if err := c.Session.ChannelMessageDelete(c.ChannelID(), id); err != nil {
			return router.DiscordFailure(err, "deleting a message")
		}
		deleted++
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":    c.AuthorID(),
		"channel_id": c.ChannelID(),
		"deleted":    deleted,
	}).Info("Purged messages")

	notice, err := c.Session.ChannelMessageSendComplex(c.ChannelID(), &discordgo.MessageSend{
		Content:         fmt.Sprintf("Deleted %d message(s)", deleted),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		return router.DiscordFailure(err, "sending the purge notice")
	}
	time.AfterFunc(noticeLifetime, func() {
		if err := c.Session.ChannelMessageDelete(notice.ChannelID, notice.ID); err != nil {
			logger.Log.WithError(err).Debug("Failed to remove purge notice")
		}
	})
	return nil
}

// collect scans the latest limit messages and returns the ids to delete,
// split by whether Discord still allows bulk deleting them.
func collect(c *router.Context, limit int, userID string) (recent, old []string, err error) {
	cutoff := time.Now().Add(-bulkDeleteMaxAge)
	before := ""
	for limit > 0 {
		page, err := c.Session.ChannelMessages(c.ChannelID(), min(limit, pageSize), before, "", "")
		if err != nil {
			return nil, nil, err
		}
		if len(page) == 0 {
			break
		}
		for _, m := range page {
			if userID != "" && (m.Author == nil || m.Author.ID != userID) {
				continue
			}
			if sentAt(m).After(cutoff) {
				recent = append(recent, m.ID)
			} else {
				old = append(old, m.ID)
			}
		}
		limit -= len(page)
		before = page[len(page)-1].ID
	}
	return recent, old, nil
}

func sentAt(m *discordgo.Message) time.Time {
	if !m.Timestamp.IsZero() {
		return m.Timestamp
	}
	t, err := discordgo.SnowflakeTimestamp(m.ID)
	if err != nil {
		return time.Time{}
	}
	return t
}

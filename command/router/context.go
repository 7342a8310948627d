package router

import (
	"context"
	"strings"
	"time"

	"NucleusBot/database"
	"NucleusBot/nucleus"
	"NucleusBot/utils"

	"github.com/bwmarrin/discordgo"
)

// Session is the part of *discordgo.Session the commands use.
type Session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessagesBulkDelete(channelID string, messages []string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
}

// Portal is the part of the Nucleus client the commands use.
type Portal interface {
	Login(ctx context.Context, username, password string) (*nucleus.Session, error)
	Profile(ctx context.Context, sess *nucleus.Session) (nucleus.Profile, error)
	ClassDetails(ctx context.Context, sess *nucleus.Session, classID string) (nucleus.ClassDetails, error)
	Schedule(ctx context.Context, sess *nucleus.Session, date time.Time) ([]nucleus.Period, error)
}

// Trigger queues an immediate poll cycle.
type Trigger interface {
	TriggerNow() bool
}

// Deps is everything a command handler may reach. It is built once in main
// and shared by every invocation.
type Deps struct {
	Store        *database.Store
	Portal       Portal
	Poller       Trigger
	Pending      *Pending
	OwnerID      string
	ReplyTimeout time.Duration
}

// Context carries one command invocation.
type Context struct {
	Ctx     context.Context
	Session Session
	Message *discordgo.Message
	Command *Command
	Args    []string
	Deps    *Deps
	Router  *Router
}

func (c *Context) AuthorID() string {
	return c.Message.Author.ID
}

func (c *Context) GuildID() string {
	return c.Message.GuildID
}

func (c *Context) ChannelID() string {
	return c.Message.ChannelID
}

func (c *Context) IsOwner() bool {
	return c.Deps.OwnerID != "" && c.AuthorID() == c.Deps.OwnerID
}

// RoleIDs returns the author's role ids in this guild; empty in DMs.
func (c *Context) RoleIDs() []string {
	if c.Message.Member == nil {
		return nil
	}
	return c.Message.Member.Roles
}

// Arg returns the i-th argument or "".
func (c *Context) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

func (c *Context) Reply(message string) error {
	return utils.RespondToMessage(c.Session, c.Message, message)
}

func (c *Context) Replyf(format string, args ...interface{}) error {
	return c.Reply(sprintf(format, args...))
}

// ReplyMessage replies and returns the sent message.
func (c *Context) ReplyMessage(message string) (*discordgo.Message, error) {
	return utils.ReplyMessage(c.Session, c.Message, message)
}

func (c *Context) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	return utils.RespondWithEmbed(c.Session, c.Message, embed)
}

// DM sends message to the author and returns the DM channel id.
func (c *Context) DM(message string) (string, error) {
	return utils.SendDM(c.Session, c.AuthorID(), message)
}

func (c *Context) Usage() string {
	return strings.TrimSpace(c.Router.Prefix() + c.Command.Name + " " + c.Command.Usage)
}

// Package router parses prefixed chat messages into commands and runs them
// through their permission and whitelist checks.
package router

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"NucleusBot/errorhandler"
	"NucleusBot/logger"
	"NucleusBot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

type Handler func(c *Context) error

// Middleware wraps a handler with a check that runs first.
type Middleware func(next Handler) Handler

type Command struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
	Checks      []Middleware
	Run         Handler
	// MinArgs is checked before Run; fewer arguments reply with the usage.
	MinArgs int
}

type Router struct {
	prefix   string
	deps     *Deps
	commands map[string]*Command
	ordered  []*Command
}

func New(prefix string, deps *Deps) *Router {
	if prefix == "" {
		prefix = "!"
	}
	r := &Router{
		prefix:   prefix,
		deps:     deps,
		commands: make(map[string]*Command),
	}
	r.Register(r.helpCommand())
	return r
}

func (r *Router) Prefix() string {
	return r.prefix
}

// Register adds commands. Names and aliases must be unique.
func (r *Router) Register(cmds ...*Command) {
	for _, cmd := range cmds {
		for _, name := range append([]string{cmd.Name}, cmd.Aliases...) {
			name = strings.ToLower(name)
			if _, exists := r.commands[name]; exists {
				panic(fmt.Sprintf("command %q registered twice", name))
			}
			r.commands[name] = cmd
		}
		r.ordered = append(r.ordered, cmd)
		logger.Log.Debugf("Registered command %s", cmd.Name)
	}
}

func (r *Router) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// Commands returns every registered command sorted by name.
func (r *Router) Commands() []*Command {
	out := append([]*Command(nil), r.ordered...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Parse strips the prefix or a leading bot mention and splits the rest into
// a command name and arguments.
func (r *Router) Parse(content, botID string) (string, []string, bool) {
	content = strings.TrimSpace(content)

	var rest string
	switch {
	case strings.HasPrefix(content, r.prefix):
		rest = content[len(r.prefix):]
	case botID != "" && strings.HasPrefix(content, "<@"+botID+">"):
		rest = content[len("<@"+botID+">"):]
	case botID != "" && strings.HasPrefix(content, "<@!"+botID+">"):
		rest = content[len("<@!"+botID+">"):]
	default:
		return "", nil, false
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// ResolveReply hands m to a command waiting on its author: a DM to a DM
// wait, a guild message to a wait in that channel. It reports whether m was
// consumed.
func (r *Router) ResolveReply(m *discordgo.Message) bool {
	if r.deps.Pending == nil || m.Author == nil || m.Author.Bot {
		return false
	}
	if m.GuildID == "" {
		return r.deps.Pending.Resolve(m.Author.ID, m)
	}
	return r.deps.Pending.ResolveIn(m.Author.ID, m.ChannelID, m)
}

// Handle processes one incoming message and reports whether it was consumed.
// A message from a user the bot is waiting on resolves that wait instead of
// being parsed as a command.
func (r *Router) Handle(ctx context.Context, s Session, m *discordgo.Message, botID string) bool {
	if m.Author == nil || m.Author.Bot {
		return false
	}
	if r.ResolveReply(m) {
		return true
	}

	name, args, ok := r.Parse(m.Content, botID)
	if !ok {
		return false
	}
	cmd, ok := r.Lookup(name)
	if !ok {
		logger.Log.WithField("user_id", m.Author.ID).Debugf("Unknown command %q", name)
		return false
	}

	c := &Context{
		Ctx:     ctx,
		Session: s,
		Message: m,
		Command: cmd,
		Args:    args,
		Deps:    r.deps,
		Router:  r,
	}

	log := logger.Log.WithFields(logrus.Fields{
		"command":    cmd.Name,
		"user_id":    m.Author.ID,
		"guild_id":   m.GuildID,
		"channel_id": m.ChannelID,
	})
	log.Info("Running command")

	start := time.Now()
	success := true
	if err := r.chain(cmd)(c); err != nil {
		message, actionable := errorhandler.HandleError(err)
		_ = utils.RespondToMessage(s, m, message)
		success = actionable
	}
	r.record(ctx, cmd.Name, success, time.Since(start))
	return true
}

// record counts the run in the daily usage statistics. Failures the user
// caused count as successful runs.
func (r *Router) record(ctx context.Context, name string, success bool, elapsed time.Duration) {
	if r.deps.Store == nil {
		return
	}
	if err := r.deps.Store.RecordCommand(context.WithoutCancel(ctx), name, success, elapsed); err != nil {
		logger.Log.WithError(err).WithField("command", name).Warn("Failed to record command statistics")
	}
}

func (r *Router) chain(cmd *Command) Handler {
	h := func(c *Context) error {
		if len(c.Args) < cmd.MinArgs {
			return errorhandler.NewUserError("Usage: `" + c.Usage() + "`")
		}
		return cmd.Run(c)
	}
	for i := len(cmd.Checks) - 1; i >= 0; i-- {
		h = cmd.Checks[i](h)
	}
	return h
}

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

package router

import (
	"fmt"
	"strings"

	"NucleusBot/errorhandler"
	"NucleusBot/utils"

	"github.com/bwmarrin/discordgo"
)

func (r *Router) helpCommand() *Command {
	return &Command{
		Name:        "help",
		Usage:       "[command]",
		Description: "Lists the commands, or shows how to use one.",
		Run: func(c *Context) error {
			if name := c.Arg(0); name != "" {
				cmd, ok := r.Lookup(strings.TrimPrefix(name, r.prefix))
				if !ok {
					return errorhandler.NewNotFoundError(fmt.Errorf("no command %q", name), "a command called `"+utils.SanitizeInput(name)+"`")
				}
				return c.ReplyEmbed(r.commandEmbed(cmd))
			}
			return c.ReplyEmbed(r.overviewEmbed())
		},
	}
}

func (r *Router) overviewEmbed() *discordgo.MessageEmbed {
	var sb strings.Builder
	for _, cmd := range r.Commands() {
		fmt.Fprintf(&sb, "`%s%s` %s\n", r.prefix, cmd.Name, cmd.Description)
	}
	return &discordgo.MessageEmbed{
		Title:       "Commands",
		Description: sb.String(),
		Color:       0x00BFFF,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Use %shelp <command> for details", r.prefix),
		},
	}
}

func (r *Router) commandEmbed(cmd *Command) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Usage", Value: "`" + strings.TrimSpace(r.prefix+cmd.Name+" "+cmd.Usage) + "`"},
	}
	if len(cmd.Aliases) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Aliases", Value: strings.Join(cmd.Aliases, ", ")})
	}
	return &discordgo.MessageEmbed{
		Title:       cmd.Name,
		Description: cmd.Description,
		Color:       0x00BFFF,
		Fields:      fields,
	}
}

package authorize

import (
	"fmt"
	"strconv"
	"strings"

	"NucleusBot/command/router"
	"NucleusBot/errorhandler"
	"NucleusBot/logger"
	"NucleusBot/models"
	"NucleusBot/utils"

	"github.com/bwmarrin/discordgo"
)

func Command() *router.Command {
	return &router.Command{
		Name:        "authorize",
		Usage:       "<@user|@role> <level>",
		Description: "Grants or changes a clearance level (0-10).",
		Checks:      []router.Middleware{router.RequirePermission(6)},
		MinArgs:     2,
		Run:         CommandAuthorize,
	}
}

func CheckCommand() *router.Command {
	return &router.Command{
		Name:        "check_permissions",
		Usage:       "<@user>",
		Description: "Shows the effective clearance level of a member.",
		Checks:      []router.Middleware{router.RequirePermission(2)},
		MinArgs:     1,
		Run:         CommandCheckPermissions,
	}
}

func ListCommand() *router.Command {
	return &router.Command{
		Name:        "list_authorized",
		Aliases:     []string{"authorized_users", "super_users", "su"},
		Description: "Lists every user and role with a clearance level.",
		Checks:      []router.Middleware{router.RequirePermission(8)},
		Run:         CommandListAuthorized,
	}
}

func CommandAuthorize(c *router.Context) error {
	targetID, kind := utils.ParseMention(c.Arg(0))
	if kind != utils.MentionUser && kind != utils.MentionRole && kind != utils.MentionRaw {
		return errorhandler.NewUserError("Invalid target! Mention a user or a role.")
	}
	level, err := strconv.Atoi(c.Arg(1))
	if err != nil || level < 0 {
		return errorhandler.NewUserError("Invalid level! It must be a number between 0 and 10.")
	}
	if level > router.MaxLevel {
		return c.Reply("You are attempting to give a permission higher than the max. Do you want to usurp the god's power?")
	}

	selfLevel, err := router.AuthorLevel(c)
	if err != nil {
		return errorhandler.NewDatabaseError(err, "permission check")
	}

	targetLevel, found, err := c.Deps.Store.PermissionLevel(c.Ctx, targetID)
	if err != nil {
		return errorhandler.NewDatabaseError(err, "permission check")
	}

	if !found {
		auth := &models.UserAuth{ItemID: targetID, Level: level}
		if kind == utils.MentionRole {
			auth.Role = true
			auth.ServerID = c.GuildID()
		}
		if err := c.Deps.Store.AddAuth(c.Ctx, auth); err != nil {
			return router.StoreError(err, "a grant for "+c.Arg(0))
		}
		logger.Log.WithField("target", targetID).WithField("level", level).WithField("by", c.AuthorID()).Info("Granted clearance level")
		return c.Replyf("Successfully authorized %s to clearance level %d", c.Arg(0), level)
	}

	if targetLevel == level {
		return c.Reply("The target already has that clearance level!")
	}
	if targetLevel >= selfLevel && selfLevel != router.MaxLevel {
		return c.Reply("You do know you are attempting to commit insubordination right? (target has a higher or equal clearance level)")
	}

	if err := c.Deps.Store.ChangeAuth(c.Ctx, targetID, level); err != nil {
		return router.StoreError(err, "a grant for "+c.Arg(0))
	}
	logger.Log.WithField("target", targetID).WithField("from", targetLevel).WithField("to", level).WithField("by", c.AuthorID()).Info("Changed clearance level")
	return c.Replyf("Successfully changed %s clearance level from %d to %d", c.Arg(0), targetLevel, level)
}

func CommandCheckPermissions(c *router.Context) error {
	userID, kind := utils.ParseMention(c.Arg(0))
	if kind != utils.MentionUser && kind != utils.MentionRaw {
		return errorhandler.NewUserError("Invalid user! Mention a member of this server.")
	}

	if c.Deps.OwnerID != "" && userID == c.Deps.OwnerID {
		return c.Replyf("Permission level for <@%s>: %d (Owner)", userID, router.OwnerLevel)
	}

	ids := []string{userID}
	if c.GuildID() != "" {
		member, err := c.Session.GuildMember(c.GuildID(), userID)
		if err != nil {
			return errorhandler.NewDiscordError(err, "member lookup")
		}
		ids = append(ids, member.Roles...)
	}

	level, found, err := c.Deps.Store.PermissionLevel(c.Ctx, ids...)
	if err != nil {
		return errorhandler.NewDatabaseError(err, "permission check")
	}
	if !found {
		return c.Replyf("<@%s> has no clearance level.", userID)
	}

	name, err := c.Deps.Store.PermissionName(c.Ctx, level)
	if err != nil {
		return router.StoreError(err, fmt.Sprintf("a name for level %d", level))
	}
	return c.Replyf("Permission level for <@%s>: %d (%s)", userID, level, name)
}

func CommandListAuthorized(c *router.Context) error {
	entries, err := c.Deps.Store.ListAuth(c.Ctx, true)
	if err != nil {
		return errorhandler.NewDatabaseError(err, "list grants")
	}
	if len(entries) == 0 {
		return c.Reply("Nobody has been authorized yet.")
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		mention := "<@" + e.ItemID + ">"
		if e.Role {
			mention = "<@&" + e.ItemID + ">"
		}
		lines = append(lines, fmt.Sprintf("%s  Level: %d (%s)", mention, e.Level, e.Name))
	}

	return c.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "Authorized users and roles",
		Description: strings.Join(lines, "\n"),
		Color:       0x00BFFF,
	})
}

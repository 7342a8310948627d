package pollnow

import (
	"NucleusBot/command/router"
	"NucleusBot/logger"
)

func Command() *router.Command {
	return &router.Command{
		Name:        "poll_now",
		Description: "Runs a poll cycle for every alert account right away.",
		Checks:      []router.Middleware{router.RequirePermission(8)},
		Run:         CommandPollNow,
	}
}

func CommandPollNow(c *router.Context) error {
	if !c.Deps.Poller.TriggerNow() {
		return c.Reply("A poll cycle is already queued.")
	}
	logger.Log.WithField("user_id", c.AuthorID()).Info("Poll cycle triggered manually")
	return c.Reply("Poll cycle queued. New items will show up in their alert channels.")
}

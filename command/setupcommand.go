package command

import (
	"NucleusBot/command/addalert"
	"NucleusBot/command/addclass"
	"NucleusBot/command/alertaccount"
	"NucleusBot/command/authorize"
	"NucleusBot/command/login"
	"NucleusBot/command/pollnow"
	"NucleusBot/command/purge"
	"NucleusBot/command/react"
	"NucleusBot/command/router"
	"NucleusBot/command/say"
	"NucleusBot/command/schedule"
	"NucleusBot/command/whitelist"
	"NucleusBot/logger"
)

func RegisterCommands(r *router.Router) {
	logger.Log.Info("Registering message commands")

	r.Register(
		login.Command(),
		alertaccount.Command(),
		addclass.Command(),
		addalert.Command(),
		addalert.RemoveCommand(),
		schedule.Command(),
		pollnow.Command(),
		whitelist.Command(),
		whitelist.RemoveCommand(),
		authorize.Command(),
		authorize.CheckCommand(),
		authorize.ListCommand(),
		purge.Command(),
		say.Command(),
		react.Command(),
	)

	logger.Log.Infof("Registered %d commands with prefix %q", len(r.Commands()), r.Prefix())
}

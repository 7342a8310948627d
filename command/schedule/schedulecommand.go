package schedule

import (
	"fmt"
	"strings"
	"time"

	"NucleusBot/command/router"
	"NucleusBot/errorhandler"
	"NucleusBot/nucleus"

	"github.com/bwmarrin/discordgo"
)

// now is replaced in tests.
var now = time.Now

func Command() *router.Command {
	return &router.Command{
		Name:        "schedule",
		Aliases:     []string{"timetable"},
		Usage:       "<today|tomorrow|yesterday|YYYY-MM-DD>",
		Description: "Shows the class schedule for a day using your linked account.",
		Checks:      []router.Middleware{router.RequireWhitelist()},
		Run:         CommandSchedule,
	}
}

func CommandSchedule(c *router.Context) error {
	date, err := ParseDay(c.Arg(0), now())
	if err != nil {
		return errorhandler.NewUserError("Invalid date! Use `today`, `tomorrow`, `yesterday` or `YYYY-MM-DD`.")
	}

	account, err := c.Deps.Store.AccountForDiscordUser(c.Ctx, c.AuthorID())
	if err != nil {
		return router.StoreError(err, fmt.Sprintf("a Nucleus account linked to you. Use `%slogin <user_id>` first", c.Router.Prefix()))
	}

	var periods []nucleus.Period
	err = c.WithPortalSession(account, func(sess *nucleus.Session) error {
		var err error
		periods, err = c.Deps.Portal.Schedule(c.Ctx, sess, date)
		return err
	})
	if err != nil {
		return router.PortalError(err, "schedule for "+account.Username)
	}

	return c.ReplyEmbed(scheduleEmbed(date, periods))
}

// ParseDay resolves a day argument relative to today. An empty argument
// means today.
func ParseDay(arg string, today time.Time) (time.Time, error) {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "today":
		return day, nil
	case "tomorrow":
		return day.AddDate(0, 0, 1), nil
	case "yesterday":
		return day.AddDate(0, 0, -1), nil
	}
	return time.ParseInLocation("2006-01-02", arg, today.Location())
}

func scheduleEmbed(date time.Time, periods []nucleus.Period) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Schedule for " + date.Format("Monday, 02 Jan 2006"),
		Color: 0x00BFFF,
	}
	if len(periods) == 0 {
		embed.Description = "No classes scheduled."
		return embed
	}

	for _, p := range periods {
		name := p.CourseName
		if name == "" {
			name = p.CourseID
		}
		value := p.Faculty
		if value == "" {
			value = "​"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s - %s  %s", clock(p.Start), clock(p.End), name),
			Value: value,
		})
	}
	return embed
}

func clock(ts nucleus.Timestamp) string {
	if ts.IsZero() {
		return "?"
	}
	return ts.Format("15:04")
}

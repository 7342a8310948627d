package addclass

import (
	"fmt"
	"strings"
	"time"

	"NucleusBot/command/router"
	"NucleusBot/database"
	"NucleusBot/errorhandler"
	"NucleusBot/logger"
	"NucleusBot/nucleus"
	"NucleusBot/utils"

	"github.com/bwmarrin/discordgo"
)

func Command() *router.Command {
	return &router.Command{
		Name:        "add_class",
		Usage:       "<class_id>",
		Description: "Starts tracking every course of a class. The class needs an alert account first.",
		Checks:      []router.Middleware{router.RequireWhitelist(), router.RequirePermission(6)},
		MinArgs:     1,
		Run:         CommandAddClass,
	}
}

func CommandAddClass(c *router.Context) error {
	classID, ok := utils.NormalizeClassID(c.Arg(0))
	if !ok {
		return errorhandler.NewUserError("Invalid class id!")
	}

	account, err := c.Deps.Store.AlertAccountForClass(c.Ctx, classID)
	if err != nil {
		return router.StoreError(err, fmt.Sprintf("an alert account for class `%s`. Register one with `%salert_account`", classID, c.Router.Prefix()))
	}

	var details nucleus.ClassDetails
	err = c.WithPortalSession(account, func(sess *nucleus.Session) error {
		var err error
		details, err = c.Deps.Portal.ClassDetails(c.Ctx, sess, classID)
		return err
	})
	if err != nil {
		return router.PortalError(err, "class details of "+classID)
	}
	if len(details.Courses) == 0 {
		return errorhandler.NewUserError(fmt.Sprintf("Nucleus lists no courses for class `%s`.", classID))
	}

	courses := make([]database.Course, 0, len(details.Courses))
	for _, course := range details.Courses {
		courses = append(courses, database.Course{ID: course.ID, Name: course.Name})
	}
	if err := c.Deps.Store.RegisterCourses(c.Ctx, classID, courses, time.Now()); err != nil {
		return router.StoreError(err, fmt.Sprintf("a registration for class `%s`", classID))
	}

	logger.Log.WithField("class_id", classID).WithField("courses", len(courses)).Info("Registered class")
	return c.ReplyEmbed(coursesEmbed(classID, details.Courses))
}

func coursesEmbed(classID string, courses []nucleus.Course) *discordgo.MessageEmbed {
	lines := make([]string, 0, len(courses))
	for _, course := range courses {
		lines = append(lines, fmt.Sprintf("`%s` %s", course.ID, course.Name))
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Class %s registered", classID),
		Description: strings.Join(lines, "\n"),
		Color:       0x00FF00,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Only items added from now on will be announced."},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

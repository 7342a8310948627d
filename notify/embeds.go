package notify

import (
	"fmt"
	"strings"
	"time"

	"NucleusBot/nucleus"

	"github.com/bwmarrin/discordgo"
)

const (
	colorAssignment = 0x3498DB // Blue
	colorResource   = 0x2ECC71 // Green
	colorAdmin      = 0xFF0000

	maxDescription = 4096
	maxFieldValue  = 1024
)

func assignmentMessage(classID string, a nucleus.Assignment) *discordgo.MessageSend {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Course", Value: courseLabel(a.CourseID, a.CourseName), Inline: true},
	}
	if !a.DueDate.IsZero() {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Due",
			Value:  fmt.Sprintf("<t:%d:F>", a.DueDate.Unix()),
			Inline: true,
		})
	}
	if len(a.Links) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Links",
			Value: truncate(strings.Join(a.Links, "\n"), maxFieldValue),
		})
	}

	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       truncate(orDefault(a.Title, "New assignment"), 256),
			Description: truncate(a.Description, maxDescription),
			Color:       colorAssignment,
			Fields:      fields,
			Footer:      &discordgo.MessageEmbedFooter{Text: "Assignment • class " + classID},
			Timestamp:   embedTime(a.AddedOn.Time),
		}},
	}
}

func resourceMessage(classID string, r nucleus.Resource) *discordgo.MessageSend {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Course", Value: courseLabel(r.CourseID, r.CourseName), Inline: true},
	}
	if r.Type != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Type", Value: r.Type, Inline: true})
	}
	if r.Link != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Link", Value: truncate(r.Link, maxFieldValue)})
	}

	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       truncate(orDefault(r.Title, "New resource"), 256),
			Description: truncate(r.Description, maxDescription),
			Color:       colorResource,
			Fields:      fields,
			Footer:      &discordgo.MessageEmbedFooter{Text: "Resource • class " + classID},
			Timestamp:   embedTime(r.AddedOn.Time),
		}},
	}
}

// mentionMessage pings the role once ahead of the item messages. Only that
// role may be mentioned.
func mentionMessage(roleID, classID string, assignments, resources int) *discordgo.MessageSend {
	var parts []string
	if assignments > 0 {
		parts = append(parts, plural(assignments, "new assignment"))
	}
	if resources > 0 {
		parts = append(parts, plural(resources, "new resource"))
	}
	return &discordgo.MessageSend{
		Content: fmt.Sprintf("<@&%s> %s for class %s", roleID, strings.Join(parts, " and "), classID),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Roles: []string{roleID},
		},
	}
}

func adminEmbed(title, message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: truncate(message, maxDescription),
		Color:       colorAdmin,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

func courseLabel(id, name string) string {
	switch {
	case name == "":
		return orDefault(id, "unknown")
	case id == "":
		return name
	default:
		return fmt.Sprintf("%s (%s)", name, id)
	}
}

func embedTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

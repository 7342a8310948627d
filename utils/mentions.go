package utils

import (
	"regexp"
	"strings"
)

var (
	snowflakePattern = regexp.MustCompile(`^[0-9]{15,21}$`)
	userMention      = regexp.MustCompile(`^<@!?([0-9]{15,21})>$`)
	roleMention      = regexp.MustCompile(`^<@&([0-9]{15,21})>$`)
	channelMention   = regexp.MustCompile(`^<#([0-9]{15,21})>$`)
	customEmoji      = regexp.MustCompile(`^<a?:([A-Za-z0-9_]{2,32}):([0-9]{15,21})>$`)
)

// IsSnowflake reports whether s looks like a Discord id.
func IsSnowflake(s string) bool {
	return snowflakePattern.MatchString(s)
}

// MentionKind says what an argument referred to.
type MentionKind int

const (
	MentionNone MentionKind = iota
	MentionUser
	MentionRole
	MentionChannel
	MentionRaw // a bare id, kind unknown
)

// ParseMention extracts the id from <@id>, <@!id>, <@&id>, <#id> or a bare id.
func ParseMention(arg string) (string, MentionKind) {
	arg = strings.TrimSpace(arg)
	if m := userMention.FindStringSubmatch(arg); m != nil {
		return m[1], MentionUser
	}
	if m := roleMention.FindStringSubmatch(arg); m != nil {
		return m[1], MentionRole
	}
	if m := channelMention.FindStringSubmatch(arg); m != nil {
		return m[1], MentionChannel
	}
	if IsSnowflake(arg) {
		return arg, MentionRaw
	}
	return "", MentionNone
}

// ParseChannel accepts a channel mention or a bare id.
func ParseChannel(arg string) (string, bool) {
	id, kind := ParseMention(arg)
	return id, kind == MentionChannel || kind == MentionRaw
}

// ParseRole accepts a role mention or a bare id.
func ParseRole(arg string) (string, bool) {
	id, kind := ParseMention(arg)
	return id, kind == MentionRole || kind == MentionRaw
}

// ParseEmoji turns a custom emoji like <:name:id> into the name:id form the
// reaction endpoints take. Anything else is returned trimmed, as unicode.
func ParseEmoji(arg string) string {
	arg = strings.TrimSpace(arg)
	if m := customEmoji.FindStringSubmatch(arg); m != nil {
		return m[1] + ":" + m[2]
	}
	return arg
}

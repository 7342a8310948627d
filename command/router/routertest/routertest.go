// Package routertest provides fakes for driving commands through a Router
// in tests.
package routertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"NucleusBot/command/router"
	"NucleusBot/database"
	"NucleusBot/database/dbtest"
	"NucleusBot/models"
	"NucleusBot/nucleus"

	"github.com/bwmarrin/discordgo"
)

const (
	BotID   = "900000000000000001"
	OwnerID = "900000000000000002"
	GuildID = "800000000000000001"
	Channel = "700000000000000001"
)

// Session records every message sent, deleted and reacted to through it.
type Session struct {
	mu      sync.Mutex
	sent    map[string][]*discordgo.MessageSend
	deleted map[string][]string
	bulk    map[string][][]string
	reacts  []Reaction
	nextID  int
	Members map[string]*discordgo.Member
	// Channels the bot can see. The test channel is present by default.
	Channels map[string]*discordgo.Channel
	// History holds channel messages newest first, the way Discord lists them.
	History map[string][]*discordgo.Message
	// Forbidden channels answer every read and write with Missing Permissions.
	Forbidden map[string]bool
	DMError   error
}

// Reaction is one MessageReactionAdd call.
type Reaction struct {
	ChannelID string
	MessageID string
	Emoji     string
}

func NewSession() *Session {
	return &Session{
		sent:      make(map[string][]*discordgo.MessageSend),
		deleted:   make(map[string][]string),
		bulk:      make(map[string][][]string),
		Members:   make(map[string]*discordgo.Member),
		Channels:  map[string]*discordgo.Channel{Channel: {ID: Channel, GuildID: GuildID}},
		History:   make(map[string][]*discordgo.Message),
		Forbidden: make(map[string]bool),
	}
}

// RESTError builds a Discord API error with the given JSON code.
func RESTError(code int) error {
	return &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: code, Message: "scripted failure"}}
}

func (s *Session) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Forbidden[channelID] {
		return nil, RESTError(discordgo.ErrCodeMissingPermissions)
	}
	s.sent[channelID] = append(s.sent[channelID], data)
	s.nextID++
	return &discordgo.Message{ID: fmt.Sprintf("sent-%d", s.nextID), ChannelID: channelID, Content: data.Content}, nil
}

func (s *Session) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.Channels[channelID]; ok {
		return ch, nil
	}
	return nil, RESTError(discordgo.ErrCodeUnknownChannel)
}

func (s *Session) ChannelMessage(channelID, messageID string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Forbidden[channelID] {
		return nil, RESTError(discordgo.ErrCodeMissingPermissions)
	}
	for _, m := range s.History[channelID] {
		if m.ID == messageID {
			return m, nil
		}
	}
	return nil, RESTError(discordgo.ErrCodeUnknownMessage)
}

// ChannelMessages pages through History like the Discord endpoint: newest
// first, strictly before beforeID when it is set.
func (s *Session) ChannelMessages(channelID string, limit int, beforeID, _, _ string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Forbidden[channelID] {
		return nil, RESTError(discordgo.ErrCodeMissingPermissions)
	}
	history := s.History[channelID]
	start := 0
	if beforeID != "" {
		start = len(history)
		for i, m := range history {
			if m.ID == beforeID {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(history) {
		end = len(history)
	}
	return append([]*discordgo.Message(nil), history[start:end]...), nil
}

func (s *Session) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted[channelID] = append(s.deleted[channelID], messageID)
	return nil
}

func (s *Session) ChannelMessagesBulkDelete(channelID string, messages []string, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(messages) > 100 {
		return fmt.Errorf("bulk delete of %d messages", len(messages))
	}
	s.bulk[channelID] = append(s.bulk[channelID], append([]string(nil), messages...))
	s.deleted[channelID] = append(s.deleted[channelID], messages...)
	return nil
}

func (s *Session) MessageReactionAdd(channelID, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Forbidden[channelID] {
		return RESTError(discordgo.ErrCodeMissingPermissions)
	}
	s.reacts = append(s.reacts, Reaction{ChannelID: channelID, MessageID: messageID, Emoji: emojiID})
	return nil
}

// Deleted returns the ids of messages deleted in channelID so far.
func (s *Session) Deleted(channelID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted[channelID]...)
}

// BulkDeletes returns the id batches passed to ChannelMessagesBulkDelete.
func (s *Session) BulkDeletes(channelID string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.bulk[channelID]...)
}

func (s *Session) Reactions() []Reaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Reaction(nil), s.reacts...)
}

func (s *Session) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if s.DMError != nil {
		return nil, s.DMError
	}
	return &discordgo.Channel{ID: DMChannel(recipientID)}, nil
}

func (s *Session) GuildMember(guildID, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.Members[userID]; ok {
		return m, nil
	}
	return nil, errors.New("unknown member")
}

// Sent returns the messages sent to channelID so far.
func (s *Session) Sent(channelID string) []*discordgo.MessageSend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*discordgo.MessageSend(nil), s.sent[channelID]...)
}

// Texts returns the contents and embed titles/descriptions sent to channelID.
func (s *Session) Texts(channelID string) []string {
	var out []string
	for _, m := range s.Sent(channelID) {
		text := m.Content
		for _, e := range m.Embeds {
			text += e.Title + "\n" + e.Description
			for _, f := range e.Fields {
				text += "\n" + f.Name + " " + f.Value
			}
		}
		out = append(out, text)
	}
	return out
}

// Last returns the latest text sent to channelID or "".
func (s *Session) Last(channelID string) string {
	texts := s.Texts(channelID)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func DMChannel(userID string) string {
	return "dm-" + userID
}

// Portal is a scripted Nucleus portal.
type Portal struct {
	mu        sync.Mutex
	Passwords map[string]string
	Profiles  map[string]nucleus.Profile
	Classes   map[string]nucleus.ClassDetails
	Periods   []nucleus.Period
	// Expired makes reads with these cookie values fail as expired.
	Expired map[string]bool
	Logins  int
}

func NewPortal() *Portal {
	return &Portal{
		Passwords: make(map[string]string),
		Profiles:  make(map[string]nucleus.Profile),
		Classes:   make(map[string]nucleus.ClassDetails),
		Expired:   make(map[string]bool),
	}
}

func (p *Portal) Login(_ context.Context, username, password string) (*nucleus.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Logins++
	if want, ok := p.Passwords[username]; !ok || want != password {
		return nil, nucleus.ErrInvalidCredentials
	}
	return &nucleus.Session{Username: username, Cookies: map[string]string{"sid": "fresh-" + username}}, nil
}

func (p *Portal) check(sess *nucleus.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(sess.Cookies) == 0 || p.Expired[sess.Cookies["sid"]] {
		return nucleus.ErrSessionExpired
	}
	return nil
}

func (p *Portal) Profile(_ context.Context, sess *nucleus.Session) (nucleus.Profile, error) {
	if err := p.check(sess); err != nil {
		return nucleus.Profile{}, err
	}
	return p.Profiles[sess.Username], nil
}

func (p *Portal) ClassDetails(_ context.Context, sess *nucleus.Session, classID string) (nucleus.ClassDetails, error) {
	if err := p.check(sess); err != nil {
		return nucleus.ClassDetails{}, err
	}
	return p.Classes[classID], nil
}

func (p *Portal) Schedule(_ context.Context, sess *nucleus.Session, _ time.Time) ([]nucleus.Period, error) {
	if err := p.check(sess); err != nil {
		return nil, err
	}
	return p.Periods, nil
}

type Trigger struct {
	queued bool
}

func (t *Trigger) TriggerNow() bool {
	if t.queued {
		return false
	}
	t.queued = true
	return true
}

// Env is a router wired to fakes and an in-memory store.
type Env struct {
	T       *testing.T
	Router  *router.Router
	Session *Session
	Portal  *Portal
	Store   *database.Store
	Trigger *Trigger
	Pending *router.Pending
}

// NewEnv builds a router with the given commands registered and the test
// channel already whitelisted.
func NewEnv(t *testing.T, cmds ...*router.Command) *Env {
	t.Helper()
	store := dbtest.NewStore(t)
	env := &Env{
		T:       t,
		Session: NewSession(),
		Portal:  NewPortal(),
		Store:   store,
		Trigger: &Trigger{},
		Pending: router.NewPending(),
	}
	env.Router = router.New("!", &router.Deps{
		Store:        store,
		Portal:       env.Portal,
		Poller:       env.Trigger,
		Pending:      env.Pending,
		OwnerID:      OwnerID,
		ReplyTimeout: 2 * time.Second,
	})
	env.Router.Register(cmds...)

	if err := store.AddWhitelist(context.Background(), GuildID, Channel); err != nil {
		t.Fatalf("whitelist test channel: %v", err)
	}
	return env
}

// Grant gives id a permission level.
func (e *Env) Grant(id string, level int, role bool) {
	e.T.Helper()
	auth := &models.UserAuth{ItemID: id, Level: level, Role: role}
	if role {
		auth.ServerID = GuildID
	}
	if err := e.Store.AddAuth(context.Background(), auth); err != nil {
		e.T.Fatalf("grant %s: %v", id, err)
	}
}

// Say sends content as userID in the test channel and waits for the
// handler to finish.
func (e *Env) Say(userID, content string, roles ...string) bool {
	return e.Router.Handle(context.Background(), e.Session, GuildMessage(userID, content, roles...), BotID)
}

// SayDM sends content as a direct message from userID.
func (e *Env) SayDM(userID, content string) bool {
	return e.Router.Handle(context.Background(), e.Session, &discordgo.Message{
		ID:        "dm-msg",
		ChannelID: DMChannel(userID),
		Content:   content,
		Author:    &discordgo.User{ID: userID},
	}, BotID)
}

func GuildMessage(userID, content string, roles ...string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "msg-" + strings.ReplaceAll(content, " ", "-"),
		ChannelID: Channel,
		GuildID:   GuildID,
		Content:   content,
		Author:    &discordgo.User{ID: userID},
		Member:    &discordgo.Member{Roles: roles},
	}
}

// SayAndAnswer sends content as userID and, once the command waits for a DM
// from that user, answers with answer. It returns after the command finished.
func (e *Env) SayAndAnswer(userID, content, answer string) {
	e.T.Helper()
	e.sayAndThen(content,
		func() bool { return e.Pending.Waiting(userID) },
		func() bool { return e.SayDM(userID, answer) },
		userID, "DM")
}

// SayAndFollowUp is SayAndAnswer for a command that waits for the user's
// next message in the test channel.
func (e *Env) SayAndFollowUp(userID, content, followUp string) {
	e.T.Helper()
	e.sayAndThen(content,
		func() bool { return e.Pending.WaitingIn(userID, Channel) },
		func() bool { return e.Say(userID, followUp) },
		userID, "channel message")
}

func (e *Env) sayAndThen(content string, waiting, answer func() bool, userID, kind string) {
	e.T.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Say(userID, content)
	}()

	deadline := time.After(time.Second)
	for !waiting() {
		select {
		case <-done:
			e.T.Fatalf("%q finished without waiting for a %s", content, kind)
		case <-deadline:
			e.T.Fatalf("%q never waited for a %s", content, kind)
		case <-time.After(5 * time.Millisecond):
		}
	}
	if !answer() {
		e.T.Fatalf("%s from %s was not consumed", kind, userID)
	}
	<-done
}

// Reply returns the latest reply in the test channel.
func (e *Env) Reply() string {
	return e.Session.Last(Channel)
}

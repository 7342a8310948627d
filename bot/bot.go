package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"NucleusBot/command/router"
	"NucleusBot/logger"
	"NucleusBot/utils"

	"github.com/bwmarrin/discordgo"
)

const (
	maxQueueSize = 1000
	maxWorkers   = 50
)

// Runner is started once the gateway reports ready.
type Runner interface {
	Run(ctx context.Context)
}

type Bot struct {
	session       *discordgo.Session
	router        *router.Router
	poller        Runner
	workerTimeout time.Duration

	ctx       context.Context
	queue     chan *discordgo.Message
	pollOnce  sync.Once
	closeOnce sync.Once
}

// New creates the Discord session without connecting it, so the senders
// built on it can be wired before Start.
func New(token string) (*Bot, error) {
	if token == "" {
		return nil, errors.New("discord token not set")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &Bot{
		session: session,
		queue:   make(chan *discordgo.Message, maxQueueSize),
	}, nil
}

// Start opens the gateway, starts the command workers and, on the first
// Ready event, the poller. Commands get workerTimeout each; it must exceed
// the DM reply timeout.
func (b *Bot) Start(ctx context.Context, r *router.Router, poller Runner, workerTimeout time.Duration) error {
	b.ctx = ctx
	b.router = r
	b.poller = poller
	b.workerTimeout = workerTimeout

	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)

	for i := 0; i < maxWorkers; i++ {
		go b.worker()
	}

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	return nil
}

func (b *Bot) Session() *discordgo.Session {
	return b.session
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	logger.Log.Infof("Logged in as %s#%s", event.User.Username, event.User.Discriminator)

	err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{{
			Name: "Nucleus for new assignments",
			Type: discordgo.ActivityTypeWatching,
		}},
		Status: "online",
	})
	if err != nil {
		logger.Log.WithError(err).Error("Error setting presence")
	}

	b.pollOnce.Do(func() {
		go b.poller.Run(b.ctx)
	})
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	// Replies go straight to their waiting command, which holds a worker.
	if b.router.ResolveReply(m.Message) {
		return
	}

	select {
	case b.queue <- m.Message:
	default:
		logger.Log.Warn("Command queue is full, dropping message")
		_ = utils.RespondToMessage(s, m.Message, "The bot is currently experiencing high load. Please try again later.")
	}
}

func (b *Bot) worker() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case m := <-b.queue:
			b.process(m)
		}
	}
}

func (b *Bot) process(m *discordgo.Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("Panic recovered in command processing: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(b.ctx, b.workerTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Errorf("Panic recovered in command handler: %v", r)
			}
		}()
		b.router.Handle(ctx, b.session, m, b.session.State.User.ID)
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.Log.WithField("channel_id", m.ChannelID).Warn("Command processing timed out")
			_ = utils.RespondToMessage(b.session, m, "The command processing timed out. Please try again later.")
		}
	case <-done:
	}
}

func (b *Bot) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = b.session.Close()
	})
	return err
}

package router

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrAlreadyWaiting = errors.New("already waiting for a reply from this user")
	ErrReplyTimeout   = errors.New("timed out waiting for a reply")
)

// Pending correlates replies with the command waiting for them. A wait is
// either for the user's next DM or for their next message in one channel;
// there is at most one of each per user and channel.
type Pending struct {
	mu      sync.Mutex
	waiters map[waitKey]chan *discordgo.Message
}

// waitKey identifies a wait. An empty channelID stands for any DM.
type waitKey struct {
	userID    string
	channelID string
}

func NewPending() *Pending {
	return &Pending{waiters: make(map[waitKey]chan *discordgo.Message)}
}

// Reply is a registered wait for one user's next message.
type Reply struct {
	p   *Pending
	key waitKey
	ch  chan *discordgo.Message
}

// Expect registers a wait for userID's next DM. Register before prompting
// the user so a fast answer is not lost.
func (p *Pending) Expect(userID string) (*Reply, error) {
	return p.expect(waitKey{userID: userID})
}

// ExpectIn registers a wait for userID's next message in channelID.
func (p *Pending) ExpectIn(userID, channelID string) (*Reply, error) {
	return p.expect(waitKey{userID: userID, channelID: channelID})
}

func (p *Pending) expect(key waitKey) (*Reply, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.waiters[key]; busy {
		return nil, ErrAlreadyWaiting
	}
	ch := make(chan *discordgo.Message, 1)
	p.waiters[key] = ch
	return &Reply{p: p, key: key, ch: ch}, nil
}

// Resolve hands the DM m to the waiter for userID, if any.
func (p *Pending) Resolve(userID string, m *discordgo.Message) bool {
	return p.resolve(waitKey{userID: userID}, m)
}

// ResolveIn hands m to the waiter for userID in channelID, if any.
func (p *Pending) ResolveIn(userID, channelID string, m *discordgo.Message) bool {
	return p.resolve(waitKey{userID: userID, channelID: channelID}, m)
}

func (p *Pending) resolve(key waitKey, m *discordgo.Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.waiters[key]
	if !ok {
		return false
	}
	delete(p.waiters, key)
	ch <- m
	return true
}

// Waiting reports whether a DM from userID is awaited.
func (p *Pending) Waiting(userID string) bool {
	return p.waiting(waitKey{userID: userID})
}

func (p *Pending) WaitingIn(userID, channelID string) bool {
	return p.waiting(waitKey{userID: userID, channelID: channelID})
}

func (p *Pending) waiting(key waitKey) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.waiters[key]
	return ok
}

// Wait blocks until the reply arrives, the timeout passes or ctx is done.
func (r *Reply) Wait(ctx context.Context, timeout time.Duration) (*discordgo.Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case m := <-r.ch:
		return m, nil
	case <-timer.C:
		return r.abandon(ErrReplyTimeout)
	case <-ctx.Done():
		return r.abandon(ctx.Err())
	}
}

// Cancel drops the wait without waiting.
func (r *Reply) Cancel() {
	_, _ = r.abandon(nil)
}

func (r *Reply) abandon(cause error) (*discordgo.Message, error) {
	r.p.mu.Lock()
	if ch, ok := r.p.waiters[r.key]; ok && ch == r.ch {
		delete(r.p.waiters, r.key)
	}
	r.p.mu.Unlock()

	// Resolve may have won the race.
	select {
	case m := <-r.ch:
		return m, nil
	default:
		return nil, cause
	}
}

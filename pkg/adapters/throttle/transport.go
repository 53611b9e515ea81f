// Package throttle rate-limits a ports.Transport with a token bucket per chat
// and one shared bucket for the whole bot.
package throttle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/ports"
	"golang.org/x/time/rate"
)

// Defaults follow the usual chat API limits: about one message per second in
// a chat and thirty per second overall.
const (
	DefaultChatRate    = 1.0
	DefaultChatBurst   = 3
	DefaultGlobalRate  = 30.0
	DefaultGlobalBurst = 30
	DefaultIdleTTL     = 10 * time.Minute
)

const sweepEvery = 256

// Option configures a Transport.
type Option func(*Transport)

// WithChatRate sets the per-chat token bucket.
func WithChatRate(rps float64, burst int) Option {
	return func(t *Transport) {
		t.chatLimit = rate.Limit(rps)
		t.chatBurst = burst
	}
}

// WithGlobalRate sets the bucket shared by every call.
func WithGlobalRate(rps float64, burst int) Option {
	return func(t *Transport) {
		t.global = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithIdleTTL sets how long an idle chat keeps its bucket.
func WithIdleTTL(ttl time.Duration) Option {
	return func(t *Transport) {
		t.idleTTL = ttl
	}
}

// WithClock overrides time.Now for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(t *Transport) {
		t.now = now
	}
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Transport waits for a token before forwarding each call. Callback answers
// only draw from the global bucket since they carry no chat id.
type Transport struct {
	next      ports.Transport
	global    *rate.Limiter
	chatLimit rate.Limit
	chatBurst int
	idleTTL   time.Duration
	now       func() time.Time

	mu    sync.Mutex
	chats map[int64]*entry
	calls uint64
}

// New wraps next.
func New(next ports.Transport, opts ...Option) *Transport {
	t := &Transport{
		next:      next,
		global:    rate.NewLimiter(rate.Limit(DefaultGlobalRate), DefaultGlobalBurst),
		chatLimit: rate.Limit(DefaultChatRate),
		chatBurst: DefaultChatBurst,
		idleTTL:   DefaultIdleTTL,
		now:       time.Now,
		chats:     make(map[int64]*entry),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) Send(ctx context.Context, chatID int64, msg domain.OutgoingMessage) (int32, error) {
	if err := t.wait(ctx, chatID); err != nil {
		return 0, err
	}
	return t.next.Send(ctx, chatID, msg)
}

func (t *Transport) Edit(ctx context.Context, chatID int64, messageID int32, view domain.View) error {
	if err := t.wait(ctx, chatID); err != nil {
		return err
	}
	return t.next.Edit(ctx, chatID, messageID, view)
}

func (t *Transport) Delete(ctx context.Context, chatID int64, messageID int32) error {
	if err := t.wait(ctx, chatID); err != nil {
		return err
	}
	return t.next.Delete(ctx, chatID, messageID)
}

func (t *Transport) AnswerCallback(ctx context.Context, callbackID string, text string, showAlert bool) error {
	if err := t.global.Wait(ctx); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	return t.next.AnswerCallback(ctx, callbackID, text, showAlert)
}

// Chats returns how many chats currently hold a bucket.
func (t *Transport) Chats() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.chats)
}

func (t *Transport) wait(ctx context.Context, chatID int64) error {
	if err := t.limiter(chatID).Wait(ctx); err != nil {
		return fmt.Errorf("throttle: chat %d: %w", chatID, err)
	}
	if err := t.global.Wait(ctx); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	return nil
}

func (t *Transport) limiter(chatID int64) *rate.Limiter {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.chats[chatID]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(t.chatLimit, t.chatBurst)}
		t.chats[chatID] = e
	}
	e.lastSeen = now

	t.calls++
	if t.calls%sweepEvery == 0 {
		cutoff := now.Add(-t.idleTTL)
		for id, v := range t.chats {
			if v.lastSeen.Before(cutoff) {
				delete(t.chats, id)
			}
		}
	}
	return e.limiter
}

// Package testutils holds test doubles shared by the engine's test suites.
package testutils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aretw0/stagehand/pkg/domain"
)

// ErrInjected is returned by FakeTransport operations configured to fail.
var ErrInjected = errors.New("injected transport failure")

// Sent records one Send call.
type Sent struct {
	ChatID    int64
	MessageID int32
	Msg       domain.OutgoingMessage
}

// Edited records one successful Edit call.
type Edited struct {
	ChatID    int64
	MessageID int32
	View      domain.View
}

// Answer records one AnswerCallback call.
type Answer struct {
	CallbackID string
	Text       string
	ShowAlert  bool
}

// FakeTransport is an in-memory ports.Transport that records every call.
// Message ids are allocated sequentially starting at 100.
type FakeTransport struct {
	mu sync.Mutex

	nextID  int32
	live    map[int32]bool
	Sent    []Sent
	Edited  []Edited
	Deleted []int32
	Answers []Answer

	// Failure injection.
	FailSend   bool
	FailEdit   bool
	FailDelete bool
}

// NewFakeTransport creates an empty FakeTransport.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{nextID: 100, live: make(map[int32]bool)}
}

func (f *FakeTransport) Send(ctx context.Context, chatID int64, msg domain.OutgoingMessage) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSend {
		return 0, ErrInjected
	}
	id := f.nextID
	f.nextID++
	f.live[id] = true
	f.Sent = append(f.Sent, Sent{ChatID: chatID, MessageID: id, Msg: msg})
	return id, nil
}

// Edit fails for unknown or deleted messages, like a real chat API.
func (f *FakeTransport) Edit(ctx context.Context, chatID int64, messageID int32, view domain.View) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailEdit {
		return ErrInjected
	}
	if !f.live[messageID] {
		return errors.New("message to edit not found")
	}
	f.Edited = append(f.Edited, Edited{ChatID: chatID, MessageID: messageID, View: view})
	return nil
}

func (f *FakeTransport) Delete(ctx context.Context, chatID int64, messageID int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailDelete {
		return ErrInjected
	}
	delete(f.live, messageID)
	f.Deleted = append(f.Deleted, messageID)
	return nil
}

func (f *FakeTransport) AnswerCallback(ctx context.Context, callbackID string, text string, showAlert bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Answers = append(f.Answers, Answer{CallbackID: callbackID, Text: text, ShowAlert: showAlert})
	return nil
}

// Adopt marks id as an existing, editable message (e.g. one sent before a restart).
func (f *FakeTransport) Adopt(id int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live[id] = true
}

// LastSent returns the most recent Send call.
func (f *FakeTransport) LastSent() (Sent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Sent) == 0 {
		return Sent{}, false
	}
	return f.Sent[len(f.Sent)-1], true
}

// LastAnswer returns the most recent AnswerCallback call.
func (f *FakeTransport) LastAnswer() (Answer, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Answers) == 0 {
		return Answer{}, false
	}
	return f.Answers[len(f.Answers)-1], true
}

// FakeScheduler captures scheduled tasks so tests can run them on demand.
type FakeScheduler struct {
	mu     sync.Mutex
	Delays []time.Duration
	tasks  []func(ctx context.Context)
}

func (s *FakeScheduler) After(delay time.Duration, task func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Delays = append(s.Delays, delay)
	s.tasks = append(s.tasks, task)
}

// RunAll executes and clears every captured task.
func (s *FakeScheduler) RunAll(ctx context.Context) int {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	for _, task := range tasks {
		task(ctx)
	}
	return len(tasks)
}

package demo_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/stagehand/internal/demo"
	"github.com/aretw0/stagehand/internal/testutils"
	"github.com/aretw0/stagehand/pkg/adapters/memory"
	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatID = int64(42)

type harness struct {
	t         *testing.T
	router    *router.Router
	transport *testutils.FakeTransport
	sessions  *memory.SessionStore
	scheduler *testutils.FakeScheduler
	nextUser  int32
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		t:         t,
		transport: testutils.NewFakeTransport(),
		sessions:  memory.NewSessionStore(),
		scheduler: &testutils.FakeScheduler{},
		nextUser:  1,
	}
	r, err := router.NewBuilder(h.transport, h.sessions, memory.NewMetadataStore(),
		router.WithScheduler(h.scheduler),
	).Register(demo.Scenes()...).Build()
	require.NoError(t, err)
	h.router = r
	return h
}

func (h *harness) say(text string) (int32, bool) {
	id := h.nextUser
	h.nextUser++
	return id, h.router.HandleMessage(context.Background(), domain.Message{ChatID: chatID, MessageID: id, Text: domain.Ptr(text)})
}

func (h *harness) press(data string, origin int32) bool {
	return h.router.HandleCallback(context.Background(), domain.CallbackQuery{
		ID:     "cq",
		ChatID: chatID,
		Data:   domain.Ptr(data),
		Origin: &domain.Message{ChatID: chatID, MessageID: origin},
	})
}

func (h *harness) lastEdit() testutils.Edited {
	h.t.Helper()
	require.NotEmpty(h.t, h.transport.Edited)
	return h.transport.Edited[len(h.transport.Edited)-1]
}

func (h *harness) lastSentText() string {
	h.t.Helper()
	sent, ok := h.transport.LastSent()
	require.True(h.t, ok)
	return sent.Msg.Text
}

func TestScenes_Register(t *testing.T) {
	h := newHarness(t)
	ids := make([]string, 0, 2)
	for _, info := range h.router.Scenes() {
		ids = append(ids, info.ID)
	}
	assert.Equal(t, []string{demo.CounterID, demo.ProfileID}, ids)
}

func TestCounter(t *testing.T) {
	h := newHarness(t)

	_, ok := h.say("/start")
	require.True(t, ok)
	menu, ok := h.transport.LastSent()
	require.True(t, ok)
	assert.Equal(t, "Count: 0", menu.Msg.Text)
	require.Len(t, menu.Msg.Markup.Rows, 3)
	assert.Equal(t, "● ×1", menu.Msg.Markup.Rows[1][0].Text)

	require.True(t, h.press("cnt:inc", menu.MessageID))
	assert.Equal(t, "Count: 1", h.lastEdit().View.Text)
	assert.Equal(t, menu.MessageID, h.lastEdit().MessageID)

	require.True(t, h.press("cnt:step:5", menu.MessageID))
	steps := h.lastEdit().View.Markup.Rows[1]
	assert.Equal(t, "×1", steps[0].Text)
	assert.Equal(t, "● ×5", steps[1].Text)

	require.True(t, h.press("cnt:inc", menu.MessageID))
	assert.Equal(t, "Count: 6", h.lastEdit().View.Text)
	require.True(t, h.press("cnt:dec", menu.MessageID))
	assert.Equal(t, "Count: 1", h.lastEdit().View.Text)

	require.True(t, h.press("cnt:reset", menu.MessageID))
	assert.Equal(t, "Count: 0", h.lastEdit().View.Text)
	assert.Equal(t, domain.EscapeMarkdownV2("Counter reset."), h.lastSentText())
	assert.Equal(t, []time.Duration{3 * time.Second}, h.scheduler.Delays)
}

func TestCounter_RejectsUnknownStep(t *testing.T) {
	h := newHarness(t)
	_, ok := h.say("/counter")
	require.True(t, ok)
	menu, _ := h.transport.LastSent()

	assert.False(t, h.press("cnt:step:7", menu.MessageID))
	answer, ok := h.transport.LastAnswer()
	require.True(t, ok)
	assert.True(t, answer.ShowAlert, "undecodable payload is a stale menu")
}

func TestProfile_RenameFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, ok := h.say("/start")
	require.True(t, ok)
	menu, _ := h.transport.LastSent()

	require.True(t, h.press("cnt:profile", menu.MessageID))
	assert.Equal(t, "Name: anonymous", h.lastEdit().View.Text)
	assert.Equal(t, menu.MessageID, h.lastEdit().MessageID, "switching scenes reuses the menu")

	require.True(t, h.press("pf:rename", menu.MessageID))
	prompt, _ := h.transport.LastSent()
	assert.True(t, strings.HasPrefix(prompt.Msg.Text, "Send me a new name"))
	s, err := h.sessions.Load(ctx, chatID)
	require.NoError(t, err)
	require.NotNil(t, s.InputPromptMessageID)
	assert.Equal(t, prompt.MessageID, *s.InputPromptMessageID)

	tooLong, ok := h.say(strings.Repeat("x", demo.MaxNameLength+1))
	require.True(t, ok)
	assert.Contains(t, h.transport.Deleted, tooLong)
	assert.Equal(t, domain.EscapeMarkdownV2("Names must be 1-32 characters."), h.lastSentText())
	s, err = h.sessions.Load(ctx, chatID)
	require.NoError(t, err)
	assert.NotNil(t, s.InputPromptMessageID, "prompt stays open")

	reply, ok := h.say("  Ada  ")
	require.True(t, ok)
	assert.Contains(t, h.transport.Deleted, reply)
	assert.Contains(t, h.transport.Deleted, prompt.MessageID)
	assert.Equal(t, "Name: Ada", h.lastEdit().View.Text)
	assert.Equal(t, menu.MessageID, h.lastEdit().MessageID)
	assert.Equal(t, domain.EscapeMarkdownV2("Name saved."), h.lastSentText())
	s, err = h.sessions.Load(ctx, chatID)
	require.NoError(t, err)
	assert.Nil(t, s.InputPromptMessageID)

	require.True(t, h.press("pf:back", menu.MessageID))
	assert.Equal(t, "Count: 0", h.lastEdit().View.Text)
}

func TestProfileCommand(t *testing.T) {
	h := newHarness(t)
	_, ok := h.say("/profile")
	require.True(t, ok)
	assert.Equal(t, "Name: anonymous", h.lastSentText())
}

func TestCommandsSwitchActiveScene(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, ok := h.say("/start")
	require.True(t, ok)
	menu, _ := h.transport.LastSent()

	_, ok = h.say("/profile")
	require.True(t, ok, "the active counter hands over to the profile")
	assert.Equal(t, "Name: anonymous", h.lastEdit().View.Text)
	assert.Equal(t, menu.MessageID, h.lastEdit().MessageID)
	s, err := h.sessions.Load(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, demo.ProfileID, *s.ActiveSceneID)

	_, ok = h.say("/counter")
	require.True(t, ok)
	assert.Equal(t, "Count: 0", h.lastEdit().View.Text)

	_, ok = h.say("hello")
	assert.False(t, ok, "the active scene alone decides")
}

func TestProfile_CommandDuringPrompt(t *testing.T) {
	h := newHarness(t)

	_, ok := h.say("/profile")
	require.True(t, ok)
	menu, _ := h.transport.LastSent()
	require.True(t, h.press("pf:rename", menu.MessageID))

	cmd, ok := h.say("/counter")
	require.True(t, ok)
	assert.NotContains(t, h.transport.Deleted, cmd, "commands are not taken as names")
	assert.Equal(t, "Count: 0", h.lastEdit().View.Text)
}

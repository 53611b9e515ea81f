package scene_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/aretw0/stagehand/internal/testutils"
	"github.com/aretw0/stagehand/pkg/adapters/memory"
	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/scene"
	"github.com/aretw0/stagehand/pkg/session"
	"github.com/aretw0/stagehand/pkg/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatID = int64(1001)

type counterState struct {
	Count int               `json:"count"`
	Tags  map[string]string `json:"tags,omitempty"`
}

// counter is a minimal scene: every callback payload is a number that
// becomes the new count; "/count" sends a fresh menu.
type counter struct {
	id, prefix string
	version    uint16
	effect     func(s counterState, event int) scene.Effect[counterState]
}

func newCounter(id, prefix string) *counter {
	return &counter{id: id, prefix: prefix, version: 1}
}

func (c *counter) ID() string      { return c.id }
func (c *counter) Prefix() string  { return c.prefix }
func (c *counter) Version() uint16 { return c.version }

func (c *counter) Init(ctx *scene.Context) counterState {
	return counterState{Count: -1}
}

func (c *counter) Render(ctx *scene.Context, s counterState) domain.View {
	return domain.View{
		Text:   "count=" + strconv.Itoa(s.Count),
		Markup: domain.NewMarkup(domain.Row(domain.CallbackButton("+1", domain.CallbackData(c.prefix, strconv.Itoa(s.Count+1))))),
	}
}

func (c *counter) Update(ctx *scene.Context, s counterState, event int) scene.Effect[counterState] {
	if c.effect != nil {
		return c.effect(s, event)
	}
	s.Count = event
	return scene.Stay(s, domain.EditOrReply)
}

func (c *counter) Bindings() scene.Bindings[int] {
	return scene.Bindings[int]{
		Messages: []scene.MessageMatcher[int]{
			scene.Command("count", func(args string) (int, bool) {
				n, err := strconv.Atoi(args)
				return n, err == nil
			}),
			scene.AnyText(func(text string) (int, bool) {
				n, err := strconv.Atoi(text)
				return n, err == nil
			}),
		},
		Callbacks: []scene.CallbackMatcher[int]{
			scene.Payload(func(payload string) (int, bool) {
				n, err := strconv.Atoi(payload)
				return n, err == nil
			}),
		},
	}
}

type harness struct {
	rt        *scene.Runtime
	transport *testutils.FakeTransport
	sessions  *memory.SessionStore
	metadata  *memory.MetadataStore
	scheduler *testutils.FakeScheduler
	switched  []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		transport: testutils.NewFakeTransport(),
		sessions:  memory.NewSessionStore(),
		metadata:  memory.NewMetadataStore(),
		scheduler: &testutils.FakeScheduler{},
	}
	manager := session.NewManager(h.sessions)
	h.rt = &scene.Runtime{
		Transport: h.transport,
		Sessions:  manager,
		Metadata:  h.metadata,
		Viewport:  viewport.New(h.transport, manager, h.metadata),
		Scheduler: h.scheduler,
		Switch: func(ctx context.Context, chatID int64, sceneID string) bool {
			h.switched = append(h.switched, sceneID)
			return sceneID == "known"
		},
	}
	return h
}

func (h *harness) session(t *testing.T) *domain.Session {
	t.Helper()
	s, err := h.sessions.Load(context.Background(), chatID)
	require.NoError(t, err)
	return s
}

func sceneCtx() *scene.Context {
	return &scene.Context{ChatID: chatID, Now: time.Now()}
}

func TestDefaultSnapshot_RoundTrip(t *testing.T) {
	states := []counterState{
		{},
		{Count: 42},
		{Count: -7, Tags: map[string]string{"z": "1", "a": "2"}},
	}
	for _, s := range states {
		snap := scene.DefaultSnapshot("a", 3, s)
		require.NotNil(t, snap)

		restored, ok := scene.DefaultRestore[counterState]("a", 3, *snap)
		require.True(t, ok)
		assert.Equal(t, s, restored)
	}
}

func TestDefaultSnapshot_IsByteStable(t *testing.T) {
	s := counterState{Count: 1, Tags: map[string]string{"b": "x", "a": "y", "c": "z"}}
	first := scene.DefaultSnapshot("a", 1, s)
	for i := 0; i < 10; i++ {
		again := scene.DefaultSnapshot("a", 1, s)
		assert.Equal(t, *first.Checksum, *again.Checksum)
	}
}

func TestDefaultSnapshot_UnserializableStateIsNil(t *testing.T) {
	assert.Nil(t, scene.DefaultSnapshot("a", 1, map[string]any{"ch": make(chan int)}))
}

func TestDefaultRestore_RejectsForeignScene(t *testing.T) {
	snap := scene.DefaultSnapshot("b", 1, counterState{Count: 5})

	_, ok := scene.DefaultRestore[counterState]("a", 1, *snap)
	assert.False(t, ok)
}

func TestDefaultRestore_RejectsWrongChecksum(t *testing.T) {
	snap := scene.DefaultSnapshot("a", 1, counterState{Count: 5})
	snap.Checksum = domain.Ptr(domain.Checksum([]byte(`{"count":6}`)))

	state, ok := scene.DefaultRestore[counterState]("a", 1, *snap)
	assert.False(t, ok)
	assert.Equal(t, counterState{}, state, "never a coerced or partial state")
}

func TestDefaultRestore_AcceptsMissingChecksum(t *testing.T) {
	raw := `{"count":9}`
	state, ok := scene.DefaultRestore[counterState]("a", 1, domain.Snapshot{SceneID: "a", SceneVersion: 1, StateJSON: &raw})
	require.True(t, ok)
	assert.Equal(t, 9, state.Count)
}

func TestDefaultRestore_RejectsOtherVersionAndGarbage(t *testing.T) {
	snap := scene.DefaultSnapshot("a", 1, counterState{Count: 5})
	_, ok := scene.DefaultRestore[counterState]("a", 2, *snap)
	assert.False(t, ok, "state encoding changed")

	garbage := domain.NewSnapshot("a", 1, []byte(`[1,2`))
	_, ok = scene.DefaultRestore[counterState]("a", 1, garbage)
	assert.False(t, ok)

	_, ok = scene.DefaultRestore[counterState]("a", 1, domain.Snapshot{SceneID: "a", SceneVersion: 1})
	assert.False(t, ok, "no state to decode")
}

func TestRestore_NoSourceIsInit(t *testing.T) {
	h := newHarness(t)

	state, label := scene.Restore(context.Background(), h.rt, newCounter("a", "a"), sceneCtx(), nil)
	assert.Equal(t, scene.LabelInit, label)
	assert.Equal(t, -1, state.Count)
}

func TestRestore_SessionTier(t *testing.T) {
	h := newHarness(t)
	sc := newCounter("a", "a")
	hint, err := domain.EncodeSceneHint(*scene.Snapshot[counterState, int](sc, counterState{Count: 11}))
	require.NoError(t, err)
	s := domain.NewSession()
	s.LastMessageID = domain.Ptr(int32(5))
	s.SetSceneHint(5, hint)
	require.NoError(t, h.sessions.Save(context.Background(), chatID, s))

	state, label := scene.Restore(context.Background(), h.rt, sc, sceneCtx(), domain.Ptr(int32(5)))
	assert.Equal(t, scene.LabelDialogue, label)
	assert.Equal(t, 11, state.Count)
}

func TestRestore_SessionTierOnlyForLastMessage(t *testing.T) {
	h := newHarness(t)
	sc := newCounter("a", "a")
	hint, err := domain.EncodeSceneHint(*scene.Snapshot[counterState, int](sc, counterState{Count: 11}))
	require.NoError(t, err)
	s := domain.NewSession()
	s.LastMessageID = domain.Ptr(int32(6))
	s.SetSceneHint(5, hint)
	require.NoError(t, h.sessions.Save(context.Background(), chatID, s))

	_, label := scene.Restore(context.Background(), h.rt, sc, sceneCtx(), domain.Ptr(int32(5)))
	assert.Equal(t, scene.LabelInit, label, "hint ignored when ids do not line up and no metadata exists")
}

func TestRestore_LegacyPlainHintIsIgnored(t *testing.T) {
	h := newHarness(t)
	s := domain.NewSession()
	s.LastMessageID = domain.Ptr(int32(5))
	s.SetSceneHint(5, `{"count":99}`)
	require.NoError(t, h.sessions.Save(context.Background(), chatID, s))

	state, label := scene.Restore(context.Background(), h.rt, newCounter("a", "a"), sceneCtx(), domain.Ptr(int32(5)))
	assert.Equal(t, scene.LabelInit, label)
	assert.Equal(t, -1, state.Count)
}

func TestRestore_UnverifiedSessionHintFallsThroughToMetadata(t *testing.T) {
	sc := newCounter("a", "a")
	good := scene.Snapshot[counterState, int](sc, counterState{Count: 21})

	tampered := *scene.Snapshot[counterState, int](sc, counterState{Count: 11})
	tampered.Checksum = domain.Ptr(domain.Checksum([]byte(`{"count":12}`)))
	unsummed := *scene.Snapshot[counterState, int](sc, counterState{Count: 11})
	unsummed.Checksum = nil

	for name, hintSnap := range map[string]domain.Snapshot{"tampered": tampered, "no checksum": unsummed} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			hint, err := domain.EncodeSceneHint(hintSnap)
			require.NoError(t, err)
			s := domain.NewSession()
			s.LastMessageID = domain.Ptr(int32(5))
			s.SetSceneHint(5, hint)
			require.NoError(t, h.sessions.Save(ctx, chatID, s))
			require.NoError(t, h.metadata.Put(ctx, chatID, 5, domain.MetadataFromSnapshot(*good, time.Now(), time.Hour)))

			state, label := scene.Restore(ctx, h.rt, sc, sceneCtx(), domain.Ptr(int32(5)))
			assert.Equal(t, scene.LabelMeta, label)
			assert.Equal(t, 21, state.Count)
		})
	}
}

func TestRestore_MetadataTier(t *testing.T) {
	h := newHarness(t)
	sc := newCounter("a", "a")
	snap := scene.Snapshot[counterState, int](sc, counterState{Count: 21})
	require.NoError(t, h.metadata.Put(context.Background(), chatID, 8, domain.MetadataFromSnapshot(*snap, time.Now(), time.Hour)))

	state, label := scene.Restore(context.Background(), h.rt, sc, sceneCtx(), domain.Ptr(int32(8)))
	assert.Equal(t, scene.LabelMeta, label)
	assert.Equal(t, 21, state.Count)
}

func TestRestore_TamperedMetadataIsMismatch(t *testing.T) {
	h := newHarness(t)
	sc := newCounter("a", "a")
	snap := scene.Snapshot[counterState, int](sc, counterState{Count: 21})
	meta := domain.MetadataFromSnapshot(*snap, time.Now(), time.Hour)
	meta.StateChecksum = domain.Ptr("deadbeef")
	require.NoError(t, h.metadata.Put(context.Background(), chatID, 8, meta))

	state, label := scene.Restore(context.Background(), h.rt, sc, sceneCtx(), domain.Ptr(int32(8)))
	assert.Equal(t, scene.LabelMismatch, label)
	assert.Equal(t, sc.Init(sceneCtx()), state)
}

func TestRestore_ForeignMetadataIsMismatch(t *testing.T) {
	h := newHarness(t)
	other := newCounter("b", "b")
	snap := scene.Snapshot[counterState, int](other, counterState{Count: 3})
	require.NoError(t, h.metadata.Put(context.Background(), chatID, 8, domain.MetadataFromSnapshot(*snap, time.Now(), time.Hour)))

	_, label := scene.Restore(context.Background(), h.rt, newCounter("a", "a"), sceneCtx(), domain.Ptr(int32(8)))
	assert.Equal(t, scene.LabelMismatch, label)
}

func TestHandleCallback_FromEmptySession(t *testing.T) {
	h := newHarness(t)
	entry := scene.Bind[counterState, int](newCounter("a", "a"))

	handled := entry.HandleCallback(context.Background(), h.rt, domain.CallbackQuery{
		ID:     "q1",
		ChatID: chatID,
		Data:   domain.Ptr("a:42"),
	})
	require.True(t, handled)

	s := h.session(t)
	assert.Equal(t, "a", *s.ActiveSceneID)
	sent, ok := h.transport.LastSent()
	require.True(t, ok)
	assert.Equal(t, "count=42", sent.Msg.Text)

	meta, err := h.metadata.Get(context.Background(), chatID, sent.MessageID)
	require.NoError(t, err)
	assert.Equal(t, "a", meta.SceneID)
	assert.Equal(t, `{"count":42}`, *meta.StateJSON)
}

func TestHandleCallback_UndecodablePayload(t *testing.T) {
	h := newHarness(t)
	entry := scene.Bind[counterState, int](newCounter("a", "a"))

	assert.False(t, entry.HandleCallback(context.Background(), h.rt, domain.CallbackQuery{ID: "q", ChatID: chatID, Data: domain.Ptr("a:x")}))
	assert.False(t, entry.HandleCallback(context.Background(), h.rt, domain.CallbackQuery{ID: "q", ChatID: chatID}))
	assert.Empty(t, h.transport.Sent)
}

func TestHandleMessage_ContinuesFromLastMessage(t *testing.T) {
	h := newHarness(t)
	sc := newCounter("a", "a")
	sc.effect = func(s counterState, event int) scene.Effect[counterState] {
		s.Count += event
		return scene.Stay(s, domain.EditOrReply)
	}
	entry := scene.Bind[counterState, int](sc)
	ctx := context.Background()

	require.True(t, entry.Enter(ctx, h.rt, chatID))
	require.True(t, entry.HandleMessage(ctx, h.rt, domain.Message{ChatID: chatID, MessageID: 900, Text: domain.Ptr("/count 5")}))

	require.Len(t, h.transport.Edited, 1, "second render edits the first message")
	assert.Equal(t, "count=4", h.transport.Edited[0].View.Text, "restored -1 from the session tier, plus 5")
}

func TestEnter_InitAndRender(t *testing.T) {
	h := newHarness(t)
	entry := scene.Bind[counterState, int](newCounter("a", "a"))

	require.True(t, entry.Enter(context.Background(), h.rt, chatID))

	sent, ok := h.transport.LastSent()
	require.True(t, ok)
	assert.Equal(t, "count=-1", sent.Msg.Text)
	s := h.session(t)
	assert.Equal(t, "a", *s.ActiveSceneID)
	assert.Equal(t, sent.MessageID, *s.LastMessageID)
}

func TestEffects_SwitchScene(t *testing.T) {
	h := newHarness(t)
	sc := newCounter("a", "a")
	sc.effect = func(s counterState, event int) scene.Effect[counterState] {
		if event == 1 {
			return scene.SwitchScene[counterState]("known")
		}
		return scene.SwitchScene[counterState]("unknown")
	}
	entry := scene.Bind[counterState, int](sc)
	ctx := context.Background()

	assert.True(t, entry.HandleCallback(ctx, h.rt, domain.CallbackQuery{ID: "q", ChatID: chatID, Data: domain.Ptr("a:1")}))
	assert.False(t, entry.HandleCallback(ctx, h.rt, domain.CallbackQuery{ID: "q", ChatID: chatID, Data: domain.Ptr("a:2")}))
	assert.Equal(t, []string{"known", "unknown"}, h.switched)
	assert.Empty(t, h.transport.Sent)

	_, err := h.sessions.Load(ctx, chatID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "switching does not touch the session itself")
}

func TestEffects_NoopWithSideEffects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	prompt := domain.NewSession()
	prompt.InputPromptMessageID = domain.Ptr(int32(77))
	require.NoError(t, h.sessions.Save(ctx, chatID, prompt))

	sc := newCounter("a", "a")
	sc.effect = func(s counterState, event int) scene.Effect[counterState] {
		return scene.NoopWithSideEffects[counterState](
			scene.Notification{Text: "Saved", TTL: 5 * time.Second},
			scene.ClearPrompt{},
		)
	}
	entry := scene.Bind[counterState, int](sc)

	require.True(t, entry.HandleCallback(ctx, h.rt, domain.CallbackQuery{ID: "q", ChatID: chatID, Data: domain.Ptr("a:1")}))

	require.Len(t, h.transport.Sent, 1, "only the notification is sent")
	note := h.transport.Sent[0]
	assert.Equal(t, "Saved", note.Msg.Text)
	assert.Equal(t, domain.CallbackDisableNotifications, note.Msg.Markup.Rows[0][0].Data)
	assert.Equal(t, domain.CallbackHide, note.Msg.Markup.Rows[0][1].Data)
	assert.Equal(t, []int32{77}, h.transport.Deleted, "prompt cleared")
	assert.Nil(t, h.session(t).InputPromptMessageID)
	assert.Nil(t, h.session(t).ActiveSceneID, "noop does not activate the scene")

	require.Equal(t, []time.Duration{5 * time.Second}, h.scheduler.Delays)
	assert.Equal(t, 1, h.scheduler.RunAll(ctx))
	assert.Equal(t, []int32{77, note.MessageID}, h.transport.Deleted, "notification deleted after its TTL")
}

func TestEffects_StayWithSideEffectsRunsAfterRender(t *testing.T) {
	h := newHarness(t)
	sc := newCounter("a", "a")
	sc.effect = func(s counterState, event int) scene.Effect[counterState] {
		s.Count = event
		return scene.StayWithSideEffects(s, domain.EditOrReply, scene.Notification{Text: "done"})
	}
	entry := scene.Bind[counterState, int](sc)

	require.True(t, entry.HandleCallback(context.Background(), h.rt, domain.CallbackQuery{ID: "q", ChatID: chatID, Data: domain.Ptr("a:3")}))

	require.Len(t, h.transport.Sent, 2)
	assert.Equal(t, "count=3", h.transport.Sent[0].Msg.Text)
	assert.Equal(t, "done", h.transport.Sent[1].Msg.Text)
	assert.Empty(t, h.scheduler.Delays, "no TTL, no scheduled deletion")
	assert.Equal(t, h.transport.Sent[0].MessageID, *h.session(t).LastMessageID, "notifications are not tracked")
}

package throttle_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/stagehand/internal/testutils"
	"github.com/aretw0/stagehand/pkg/adapters/throttle"
	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generous() []throttle.Option {
	return []throttle.Option{
		throttle.WithChatRate(1000, 1000),
		throttle.WithGlobalRate(1000, 1000),
	}
}

func TestTransport_Forwards(t *testing.T) {
	fake := testutils.NewFakeTransport()
	tr := throttle.New(fake, generous()...)
	ctx := context.Background()

	id, err := tr.Send(ctx, 1, domain.OutgoingMessage{View: domain.View{Text: "hi"}})
	require.NoError(t, err)
	require.NoError(t, tr.Edit(ctx, 1, id, domain.View{Text: "edited"}))
	require.NoError(t, tr.Delete(ctx, 1, id))
	require.NoError(t, tr.AnswerCallback(ctx, "cb", "ok", false))

	assert.Len(t, fake.Sent, 1)
	assert.Len(t, fake.Edited, 1)
	assert.Equal(t, []int32{id}, fake.Deleted)
	assert.Len(t, fake.Answers, 1)
}

func TestTransport_PerChatLimit(t *testing.T) {
	fake := testutils.NewFakeTransport()
	tr := throttle.New(fake, throttle.WithChatRate(0.01, 1), throttle.WithGlobalRate(1000, 1000))

	_, err := tr.Send(context.Background(), 1, domain.OutgoingMessage{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = tr.Send(ctx, 1, domain.OutgoingMessage{})
	assert.Error(t, err, "second message in the same chat must wait past the deadline")

	_, err = tr.Send(ctx, 2, domain.OutgoingMessage{})
	assert.NoError(t, err, "other chats have their own bucket")
	assert.Len(t, fake.Sent, 2)
}

func TestTransport_EvictsIdleChats(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	opts := append(generous(),
		throttle.WithIdleTTL(time.Minute),
		throttle.WithClock(func() time.Time { return now }),
	)
	tr := throttle.New(testutils.NewFakeTransport(), opts...)
	ctx := context.Background()

	require.NoError(t, tr.Delete(ctx, 2, 1))
	now = now.Add(2 * time.Minute)
	for i := 0; i < 255; i++ {
		require.NoError(t, tr.Delete(ctx, 1, int32(i)))
	}
	assert.Equal(t, 1, tr.Chats())
}

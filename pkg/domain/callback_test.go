package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCallbackData(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{name: "empty", data: "", want: false},
		{name: "simple", data: "cnt:inc", want: true},
		{name: "max length", data: strings.Repeat("x", MaxCallbackDataLen), want: true},
		{name: "over max length", data: strings.Repeat("x", MaxCallbackDataLen+1), want: false},
		{name: "non ascii", data: "cnt:é", want: false},
		{name: "emoji", data: "🔕", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCallbackData(tt.data))
		})
	}
}

func TestIsReservedCallback(t *testing.T) {
	for _, data := range []string{CallbackCancel, CallbackHide, CallbackDisableNotifications, CallbackBack, CallbackDisableInfoNotifications} {
		assert.True(t, IsReservedCallback(data), data)
	}
	assert.False(t, IsReservedCallback("ui:other"))
	assert.False(t, IsReservedCallback("ui"))
}

func TestSplitCallbackData(t *testing.T) {
	tests := []struct {
		name        string
		prefix      string
		data        string
		wantPayload string
		wantOK      bool
	}{
		{name: "bare prefix", prefix: "a", data: "a", wantPayload: "", wantOK: true},
		{name: "with payload", prefix: "a", data: "a:42", wantPayload: "42", wantOK: true},
		{name: "payload keeps colons", prefix: "a", data: "a:x:y", wantPayload: "x:y", wantOK: true},
		{name: "longer prefix not claimed", prefix: "a", data: "ab:1", wantOK: false},
		{name: "other prefix", prefix: "b", data: "a:1", wantOK: false},
		{name: "empty prefix", prefix: "", data: ":1", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, ok := SplitCallbackData(tt.prefix, tt.data)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantPayload, payload)
		})
	}
}

func TestCallbackData(t *testing.T) {
	assert.Equal(t, "cnt", CallbackData("cnt", ""))
	assert.Equal(t, "cnt:inc", CallbackData("cnt", "inc"))

	payload, ok := SplitCallbackData("cnt", CallbackData("cnt", "inc"))
	assert.True(t, ok)
	assert.Equal(t, "inc", payload)
}

func TestCallbackQuery_Chat(t *testing.T) {
	q := CallbackQuery{ID: "1", ChatID: 5}
	assert.Equal(t, int64(5), q.Chat())
	assert.Nil(t, q.OriginID())

	q.Origin = &Message{ChatID: 9, MessageID: 12}
	assert.Equal(t, int64(9), q.Chat())
	if assert.NotNil(t, q.OriginID()) {
		assert.Equal(t, int32(12), *q.OriginID())
	}
}

func TestMessage_TextOrEmpty(t *testing.T) {
	assert.Equal(t, "", Message{}.TextOrEmpty())
	assert.Equal(t, "hi", Message{Text: Ptr("hi")}.TextOrEmpty())
}

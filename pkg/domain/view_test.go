package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkup_Empty(t *testing.T) {
	var nilMarkup *Markup
	assert.True(t, nilMarkup.Empty())
	assert.True(t, NewMarkup().Empty())
	assert.True(t, NewMarkup(Row()).Empty())
	assert.False(t, NewMarkup(Row(CallbackButton("ok", "a:ok"))).Empty())
}

func TestMarkup_WithRow(t *testing.T) {
	base := NewMarkup(Row(CallbackButton("one", "a:1")), Row())
	out := base.WithRow(CallbackButton("hide", CallbackHide))

	assert.Len(t, base.Rows, 2, "receiver untouched")
	assert.Len(t, out.Rows, 2, "empty rows dropped")
	assert.Equal(t, CallbackHide, out.Rows[1][0].Data)

	out.Rows[0][0].Text = "changed"
	assert.Equal(t, "one", base.Rows[0][0].Text)

	var nilMarkup *Markup
	fresh := nilMarkup.WithRow(CallbackButton("x", "x"))
	assert.Len(t, fresh.Rows, 1)
}

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, "plain text", EscapeMarkdownV2("plain text"))
	assert.Equal(t, `Saved\! \(1\.5\)`, EscapeMarkdownV2("Saved! (1.5)"))
	assert.Equal(t, `a\_b\*c\~d\|e`, EscapeMarkdownV2("a_b*c~d|e"))
}

func TestKeyboardHelpers(t *testing.T) {
	assert.Equal(t, "✅ Sound", Decorate("Sound", true, "✅", "⬜"))
	assert.Equal(t, "⬜ Sound", Decorate("Sound", false, "✅", "⬜"))
	assert.Equal(t, "Sound", Decorate("Sound", false, "✅", ""))

	row := ChoiceRow([]Choice{
		{Label: "Low", Data: "vol:low"},
		{Label: "High", Data: "vol:high", Selected: true},
	}, "●", "")
	assert.Equal(t, []Button{
		{Text: "Low", Data: "vol:low"},
		{Text: "● High", Data: "vol:high"},
	}, row)

	back := BackButton("Back", CallbackBack)
	assert.Equal(t, [][]Button{{{Text: "Back", Data: CallbackBack}}}, back.Rows)
}

func TestRenderPolicy_String(t *testing.T) {
	assert.Equal(t, "edit_or_reply", EditOrReply.String())
	assert.Equal(t, "edit_only", EditOnly.String())
	assert.Equal(t, "send_new", SendNew.String())
	assert.Equal(t, "unknown", RenderPolicy(9).String())
}

package domain

// Format selects how the transport parses the text of a message.
type Format string

const (
	FormatPlain      Format = ""
	FormatMarkdown   Format = "Markdown"
	FormatMarkdownV2 Format = "MarkdownV2"
	FormatHTML       Format = "HTML"
)

// Button is a single inline keyboard button.
// Exactly one of Data or URL is expected to be set.
type Button struct {
	Text string `json:"text"`
	Data string `json:"callback_data,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Markup is an inline keyboard attached to a message.
type Markup struct {
	Rows [][]Button `json:"inline_keyboard"`
}

// NewMarkup builds a keyboard from rows of buttons.
func NewMarkup(rows ...[]Button) *Markup {
	return &Markup{Rows: rows}
}

// Row is a convenience for building a keyboard row.
func Row(buttons ...Button) []Button {
	return buttons
}

// CallbackButton creates a button that emits a callback query with data.
func CallbackButton(text, data string) Button {
	return Button{Text: text, Data: data}
}

// Empty reports whether the keyboard carries no buttons.
// A nil Markup is empty.
func (m *Markup) Empty() bool {
	if m == nil {
		return true
	}
	for _, row := range m.Rows {
		if len(row) > 0 {
			return false
		}
	}
	return true
}

// WithRow returns a copy of the keyboard with an extra row appended.
// The receiver is never modified.
func (m *Markup) WithRow(buttons ...Button) *Markup {
	out := &Markup{}
	if m != nil {
		out.Rows = make([][]Button, 0, len(m.Rows)+1)
		for _, row := range m.Rows {
			if len(row) == 0 {
				continue
			}
			out.Rows = append(out.Rows, append([]Button(nil), row...))
		}
	}
	out.Rows = append(out.Rows, buttons)
	return out
}

// View is the output of a scene render: what should be on screen.
// Rendering is pure, the Viewport decides how the view reaches the chat.
type View struct {
	Text        string  `json:"text"`
	Markup      *Markup `json:"markup,omitempty"`
	Format      Format  `json:"format,omitempty"`
	LinkPreview bool    `json:"link_preview,omitempty"`
}

// OutgoingMessage is a View to be sent as a new message.
type OutgoingMessage struct {
	View
	// ReplyTo makes the new message a reply to an existing one.
	ReplyTo *int32 `json:"reply_to,omitempty"`
}

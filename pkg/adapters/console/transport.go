// Package console runs scenes in a terminal. Transport prints what a chat
// client would show and REPL turns typed lines into updates.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ErrMessageNotFound is returned when editing or deleting an unknown message.
var ErrMessageNotFound = errors.New("console: message not found")

// Option configures a Transport.
type Option func(*Transport)

// WithMarkdown renders Markdown views through glamour.
func WithMarkdown() Option {
	return func(t *Transport) {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
		if err != nil {
			return
		}
		t.render = r.Render
	}
}

// WithProfile sets the color profile. Defaults to termenv.Ascii.
func WithProfile(p termenv.Profile) Option {
	return func(t *Transport) {
		t.profile = p
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Transport implements ports.Transport on an io.Writer. Message ids are
// shared with REPL so typed lines can be deleted like sent ones.
type Transport struct {
	mu       sync.Mutex
	out      *termenv.Output
	profile  termenv.Profile
	render   func(string) (string, error)
	nextID   int32
	messages map[int32]domain.View
	keyboard int32
}

// New creates a Transport writing to w.
func New(w io.Writer, opts ...Option) *Transport {
	t := &Transport{
		profile:  termenv.Ascii,
		nextID:   1,
		messages: make(map[int32]domain.View),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.out = termenv.NewOutput(w, termenv.WithProfile(t.profile))
	return t
}

// NextID reserves a message id.
func (t *Transport) NextID() int32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allocate()
}

func (t *Transport) allocate() int32 {
	id := t.nextID
	t.nextID++
	return id
}

func (t *Transport) Send(ctx context.Context, chatID int64, msg domain.OutgoingMessage) (int32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.allocate()
	t.messages[id] = msg.View
	header := fmt.Sprintf("#%d", id)
	if msg.ReplyTo != nil {
		header += fmt.Sprintf(" (reply to #%d)", *msg.ReplyTo)
	}
	t.print(id, header, msg.View)
	return id, nil
}

func (t *Transport) Edit(ctx context.Context, chatID int64, messageID int32, view domain.View) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.messages[messageID]; !ok {
		return ErrMessageNotFound
	}
	t.messages[messageID] = view
	t.print(messageID, fmt.Sprintf("#%d (edited)", messageID), view)
	return nil
}

func (t *Transport) Delete(ctx context.Context, chatID int64, messageID int32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.messages[messageID]; !ok && messageID >= t.nextID {
		return ErrMessageNotFound
	}
	delete(t.messages, messageID)
	if t.keyboard == messageID {
		t.keyboard = 0
	}
	fmt.Fprintln(t.out, t.meta(fmt.Sprintf("#%d deleted", messageID)))
	return nil
}

func (t *Transport) AnswerCallback(ctx context.Context, callbackID string, text string, showAlert bool) error {
	if text == "" {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	kind := "toast"
	if showAlert {
		kind = "alert"
	}
	fmt.Fprintln(t.out, t.out.String(fmt.Sprintf("[%s] %s", kind, text)).Foreground(t.out.Color("#fb7185")).Bold().String())
	return nil
}

// Button returns the n-th (1-based) callback button of the most recent
// message that still shows a keyboard, with that message's id.
func (t *Transport) Button(n int) (domain.Button, int32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	view, ok := t.messages[t.keyboard]
	if !ok || view.Markup.Empty() || n < 1 {
		return domain.Button{}, 0, false
	}
	i := 0
	for _, row := range view.Markup.Rows {
		for _, b := range row {
			i++
			if i == n {
				return b, t.keyboard, true
			}
		}
	}
	return domain.Button{}, 0, false
}

func (t *Transport) print(id int32, header string, view domain.View) {
	fmt.Fprintln(t.out, t.meta(header))

	text := view.Text
	if t.render != nil && view.Format != domain.FormatPlain && view.Format != domain.FormatHTML {
		if rendered, err := t.render(text); err == nil {
			text = strings.TrimRight(rendered, "\n")
		}
	}
	fmt.Fprintln(t.out, text)

	if view.Markup.Empty() {
		return
	}
	t.keyboard = id
	i := 0
	for _, row := range view.Markup.Rows {
		labels := make([]string, 0, len(row))
		for _, b := range row {
			i++
			labels = append(labels, t.out.String(fmt.Sprintf("[%d] %s", i, b.Text)).Foreground(t.out.Color("#818cf8")).String())
		}
		fmt.Fprintln(t.out, strings.Join(labels, "  "))
	}
}

var bannerPalette = []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6", "#fb7185"}

// Banner prints title with one palette color per letter, then a rule.
func (t *Transport) Banner(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	i := 0
	for _, r := range title {
		color := bannerPalette[i%len(bannerPalette)]
		b.WriteString(t.out.String(string(r)).Foreground(t.out.Color(color)).Bold().String())
		if r != ' ' {
			i++
		}
	}
	fmt.Fprintln(t.out, b.String())
	fmt.Fprintln(t.out, t.meta(strings.Repeat("─", utf8.RuneCountInString(title))))
}

// Note prints a dimmed status line.
func (t *Transport) Note(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, t.meta(s))
}

func (t *Transport) meta(s string) string {
	return t.out.String(s).Faint().String()
}

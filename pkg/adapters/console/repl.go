package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/ports"
	"github.com/google/uuid"
)

// DefaultChatID is the chat the console pretends to be.
const DefaultChatID = int64(1)

// REPL reads lines and dispatches them as updates for one chat.
//
//	!N     presses button N of the latest keyboard
//	/quit  ends the loop
//
// Any other line is sent as a text message. Lines pass through Sanitize
// first.
type REPL struct {
	Transport  *Transport
	Dispatcher ports.Dispatcher
	ChatID     int64
}

// Run loops until in is exhausted, "/quit" is read or ctx is done.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	chatID := r.ChatID
	if chatID == 0 {
		chatID = DefaultChatID
	}

	scanner := bufio.NewScanner(in)
	var updateID int64
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := Sanitize(scanner.Text())
		if err != nil {
			r.Transport.Note(err.Error())
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}

		updateID++
		update, err := r.parse(chatID, updateID, line)
		if err != nil {
			r.Transport.Note(err.Error())
			continue
		}
		r.Dispatcher.Dispatch(ctx, update)
	}
	return scanner.Err()
}

func (r *REPL) parse(chatID, updateID int64, line string) (domain.Update, error) {
	rest, press := strings.CutPrefix(line, "!")
	if !press {
		msg := domain.Message{ChatID: chatID, MessageID: r.Transport.NextID(), Text: domain.Ptr(line)}
		return domain.Update{ID: updateID, Message: &msg}, nil
	}

	n, err := strconv.Atoi(rest)
	if err != nil {
		return domain.Update{}, fmt.Errorf("not a button number: %q", rest)
	}
	b, messageID, ok := r.Transport.Button(n)
	if !ok {
		return domain.Update{}, fmt.Errorf("no button %d on screen", n)
	}
	if b.Data == "" {
		return domain.Update{}, fmt.Errorf("button %d opens %s", n, b.URL)
	}
	q := domain.CallbackQuery{
		ID:     uuid.NewString(),
		ChatID: chatID,
		Data:   domain.Ptr(b.Data),
		Origin: &domain.Message{ChatID: chatID, MessageID: messageID},
	}
	return domain.Update{ID: updateID, CallbackQuery: &q}, nil
}

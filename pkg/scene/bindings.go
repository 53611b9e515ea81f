package scene

import (
	"strings"

	"github.com/aretw0/stagehand/pkg/domain"
)

// Bindings lists how incoming texts and callback payloads decode into events.
// Matchers are tried in order; the first one that matches and decodes wins.
type Bindings[E any] struct {
	Messages  []MessageMatcher[E]
	Callbacks []CallbackMatcher[E]
}

type matchKind int

const (
	matchCommand matchKind = iota
	matchTextPrefix
	matchAnyText
	matchCallbackKey
	matchCallbackPrefix
	matchPayload
)

// MessageMatcher pairs a text pattern with a decoder.
type MessageMatcher[E any] struct {
	kind   matchKind
	value  string
	decode func(string) (E, bool)
}

// Command matches "/name", "/name@bot" and "/name args". The decoder receives
// the (trimmed) arguments.
func Command[E any](name string, decode func(args string) (E, bool)) MessageMatcher[E] {
	return MessageMatcher[E]{kind: matchCommand, value: strings.TrimPrefix(name, "/"), decode: decode}
}

// TextPrefix matches texts starting with prefix. The decoder receives the rest.
func TextPrefix[E any](prefix string, decode func(rest string) (E, bool)) MessageMatcher[E] {
	return MessageMatcher[E]{kind: matchTextPrefix, value: prefix, decode: decode}
}

// AnyText matches any text. During the router's global scan it only fires
// while an input prompt is open for the chat.
func AnyText[E any](decode func(text string) (E, bool)) MessageMatcher[E] {
	return MessageMatcher[E]{kind: matchAnyText, decode: decode}
}

// FreeText reports whether the matcher is an AnyText matcher.
func (m MessageMatcher[E]) FreeText() bool {
	return m.kind == matchAnyText
}

// Matches reports whether the pattern accepts text, without decoding.
func (m MessageMatcher[E]) Matches(text string) bool {
	_, ok := m.match(text)
	return ok
}

// Decode matches text and decodes it into an event.
func (m MessageMatcher[E]) Decode(text string) (E, bool) {
	var zero E
	rest, ok := m.match(text)
	if !ok || m.decode == nil {
		return zero, false
	}
	return m.decode(rest)
}

func (m MessageMatcher[E]) match(text string) (string, bool) {
	switch m.kind {
	case matchCommand:
		return matchCommandText(m.value, text)
	case matchTextPrefix:
		if strings.HasPrefix(text, m.value) {
			return text[len(m.value):], true
		}
		return "", false
	case matchAnyText:
		return text, text != ""
	}
	return "", false
}

func matchCommandText(name, text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	head, args, _ := strings.Cut(text[1:], " ")
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	if head != name {
		return "", false
	}
	return strings.TrimSpace(args), true
}

// CallbackMatcher pairs a callback payload pattern with a decoder.
type CallbackMatcher[E any] struct {
	kind   matchKind
	value  string
	decode func(string) (E, bool)
}

// CallbackKey matches exactly key and yields event.
func CallbackKey[E any](key string, event E) CallbackMatcher[E] {
	return CallbackMatcher[E]{
		kind:   matchCallbackKey,
		value:  key,
		decode: func(string) (E, bool) { return event, true },
	}
}

// CallbackPrefix matches payloads starting with prefix. The decoder receives the rest.
func CallbackPrefix[E any](prefix string, decode func(rest string) (E, bool)) CallbackMatcher[E] {
	return CallbackMatcher[E]{kind: matchCallbackPrefix, value: prefix, decode: decode}
}

// Payload matches the scene's own "<prefix>" / "<prefix>:<payload>" convention.
// The decoder receives the payload with the separator stripped.
func Payload[E any](decode func(payload string) (E, bool)) CallbackMatcher[E] {
	return CallbackMatcher[E]{kind: matchPayload, decode: decode}
}

// Matches reports whether the pattern accepts data for a scene with prefix.
func (m CallbackMatcher[E]) Matches(prefix, data string) bool {
	_, ok := m.match(prefix, data)
	return ok
}

// Decode matches data and decodes it into an event.
func (m CallbackMatcher[E]) Decode(prefix, data string) (E, bool) {
	var zero E
	rest, ok := m.match(prefix, data)
	if !ok || m.decode == nil {
		return zero, false
	}
	return m.decode(rest)
}

func (m CallbackMatcher[E]) match(prefix, data string) (string, bool) {
	switch m.kind {
	case matchCallbackKey:
		return data, data == m.value
	case matchCallbackPrefix:
		if strings.HasPrefix(data, m.value) {
			return data[len(m.value):], true
		}
		return "", false
	case matchPayload:
		return domain.SplitCallbackData(prefix, data)
	}
	return "", false
}

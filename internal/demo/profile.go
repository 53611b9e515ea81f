package demo

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/scene"
)

// Profile scene identifiers.
const (
	ProfileID     = "profile"
	ProfilePrefix = "pf"
)

// MaxNameLength bounds the display name, in runes.
const MaxNameLength = 32

// ProfileState is persisted with every rendered profile message.
type ProfileState struct {
	Name   string `json:"name"`
	Asking bool   `json:"asking,omitempty"`
}

// ProfileEvent is a decoded command or button press.
type ProfileEvent string

// Profile events.
const (
	ProfileShow   ProfileEvent = "show"
	ProfileRename ProfileEvent = "rename"
	ProfileBack   ProfileEvent = "back"
)

// Profile shows a display name and edits it through an input prompt.
type Profile struct{}

func (Profile) ID() string                         { return ProfileID }
func (Profile) Prefix() string                     { return ProfilePrefix }
func (Profile) Version() uint16                    { return 1 }
func (Profile) Init(c *scene.Context) ProfileState { return ProfileState{Name: "anonymous"} }

func (Profile) Render(c *scene.Context, s ProfileState) domain.View {
	if s.Asking {
		return domain.View{Text: "Send me a new name (1-32 characters)."}
	}
	return domain.View{
		Text: "Name: " + s.Name,
		Markup: domain.NewMarkup(
			domain.Row(domain.CallbackButton("Rename", domain.CallbackData(ProfilePrefix, string(ProfileRename)))),
			domain.Row(domain.CallbackButton("« Counter", domain.CallbackData(ProfilePrefix, string(ProfileBack)))),
		),
	}
}

func (Profile) Update(c *scene.Context, s ProfileState, ev ProfileEvent) scene.Effect[ProfileState] {
	switch ev {
	case ProfileShow:
		s.Asking = false
		return scene.Stay(s, domain.SendNew)
	case ProfileRename:
		s.Asking = true
		return scene.Stay(s, domain.SendNew)
	case ProfileBack:
		return scene.SwitchScene[ProfileState](CounterID)
	}
	return scene.Noop[ProfileState]()
}

// HandleInput takes the reply to the rename prompt. Invalid names keep the
// prompt open and explain why. Commands are left to the bindings.
func (Profile) HandleInput(c *scene.Context, s ProfileState, text string) (scene.Effect[ProfileState], bool) {
	name := strings.TrimSpace(text)
	if !s.Asking || strings.HasPrefix(name, "/") {
		return scene.Effect[ProfileState]{}, false
	}
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return scene.NoopWithSideEffects[ProfileState](scene.Notification{
			Text: "Names must be 1-32 characters.",
			TTL:  5 * time.Second,
		}), true
	}
	s.Name, s.Asking = name, false
	return scene.StayWithSideEffects(s, domain.EditOrReply,
		scene.ClearPrompt{},
		scene.Notification{Text: "Name saved.", TTL: 3 * time.Second},
	), true
}

func (Profile) Bindings() scene.Bindings[ProfileEvent] {
	back := func(string) (ProfileEvent, bool) { return ProfileBack, true }
	return scene.Bindings[ProfileEvent]{
		Messages: []scene.MessageMatcher[ProfileEvent]{
			scene.Command("profile", func(string) (ProfileEvent, bool) { return ProfileShow, true }),
			scene.Command("start", back),
			scene.Command("counter", back),
		},
		Callbacks: []scene.CallbackMatcher[ProfileEvent]{
			scene.Payload(func(p string) (ProfileEvent, bool) {
				switch ev := ProfileEvent(p); ev {
				case ProfileRename, ProfileBack:
					return ev, true
				}
				return "", false
			}),
		},
	}
}

package demo

import (
	"strconv"
	"time"

	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/scene"
)

// Counter scene identifiers.
const (
	CounterID     = "counter"
	CounterPrefix = "cnt"
)

var counterSteps = []int{1, 5, 10}

// CounterState is persisted with every rendered counter menu.
type CounterState struct {
	Count int `json:"count"`
	Step  int `json:"step"`
}

// CounterEvent is a decoded command or button press.
type CounterEvent struct {
	Kind string
	Step int
}

// Counter events.
const (
	CounterShow    = "show"
	CounterInc     = "inc"
	CounterDec     = "dec"
	CounterReset   = "reset"
	CounterStep    = "step"
	CounterProfile = "profile"
)

// Counter is a number with configurable step, reset and a link to the
// profile scene.
type Counter struct{}

func (Counter) ID() string                         { return CounterID }
func (Counter) Prefix() string                     { return CounterPrefix }
func (Counter) Version() uint16                    { return 1 }
func (Counter) Init(c *scene.Context) CounterState { return CounterState{Step: 1} }

func (Counter) Render(c *scene.Context, s CounterState) domain.View {
	steps := make([]domain.Choice, 0, len(counterSteps))
	for _, n := range counterSteps {
		steps = append(steps, domain.Choice{
			Label:    "×" + strconv.Itoa(n),
			Data:     domain.CallbackData(CounterPrefix, "step:"+strconv.Itoa(n)),
			Selected: n == s.Step,
		})
	}
	return domain.View{
		Text: "Count: " + strconv.Itoa(s.Count),
		Markup: domain.NewMarkup(
			domain.Row(
				domain.CallbackButton("−", domain.CallbackData(CounterPrefix, CounterDec)),
				domain.CallbackButton("+", domain.CallbackData(CounterPrefix, CounterInc)),
			),
			domain.ChoiceRow(steps, "●", ""),
			domain.Row(
				domain.CallbackButton("Reset", domain.CallbackData(CounterPrefix, CounterReset)),
				domain.CallbackButton("Profile", domain.CallbackData(CounterPrefix, CounterProfile)),
			),
		),
	}
}

func (Counter) Update(c *scene.Context, s CounterState, ev CounterEvent) scene.Effect[CounterState] {
	switch ev.Kind {
	case CounterShow:
		return scene.Stay(s, domain.SendNew)
	case CounterInc:
		s.Count += s.Step
	case CounterDec:
		s.Count -= s.Step
	case CounterReset:
		s.Count = 0
		return scene.StayWithSideEffects(s, domain.EditOrReply, scene.Notification{Text: "Counter reset.", TTL: 3 * time.Second})
	case CounterStep:
		if s.Step == ev.Step {
			return scene.Noop[CounterState]()
		}
		s.Step = ev.Step
	case CounterProfile:
		return scene.SwitchScene[CounterState](ProfileID)
	}
	return scene.Stay(s, domain.EditOrReply)
}

func (Counter) Bindings() scene.Bindings[CounterEvent] {
	show := func(string) (CounterEvent, bool) { return CounterEvent{Kind: CounterShow}, true }
	return scene.Bindings[CounterEvent]{
		Messages: []scene.MessageMatcher[CounterEvent]{
			scene.Command("start", show),
			scene.Command("counter", show),
			scene.Command("profile", func(string) (CounterEvent, bool) { return CounterEvent{Kind: CounterProfile}, true }),
		},
		Callbacks: []scene.CallbackMatcher[CounterEvent]{
			scene.Payload(decodeCounterPayload),
		},
	}
}

func decodeCounterPayload(payload string) (CounterEvent, bool) {
	switch payload {
	case CounterInc, CounterDec, CounterReset, CounterProfile:
		return CounterEvent{Kind: payload}, true
	}
	if rest, ok := domain.SplitCallbackData(CounterStep, payload); ok {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return CounterEvent{}, false
		}
		for _, step := range counterSteps {
			if step == n {
				return CounterEvent{Kind: CounterStep, Step: n}, true
			}
		}
	}
	return CounterEvent{}, false
}

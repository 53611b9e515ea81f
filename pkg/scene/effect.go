package scene

import (
	"time"

	"github.com/aretw0/stagehand/pkg/domain"
)

// EffectKind discriminates the Effect variants.
type EffectKind int

const (
	KindNoop EffectKind = iota
	KindStay
	KindSwitch
)

// Effect is what Update asks the engine to do.
// Build one with Stay, StayWithSideEffects, SwitchScene, Noop or NoopWithSideEffects.
type Effect[S any] struct {
	kind    EffectKind
	state   S
	policy  domain.RenderPolicy
	effects []SideEffect
	target  string
}

// Stay renders state under policy and persists its snapshot.
func Stay[S any](state S, policy domain.RenderPolicy) Effect[S] {
	return Effect[S]{kind: KindStay, state: state, policy: policy}
}

// StayWithSideEffects is Stay followed by effects, run in order after the render.
func StayWithSideEffects[S any](state S, policy domain.RenderPolicy, effects ...SideEffect) Effect[S] {
	return Effect[S]{kind: KindStay, state: state, policy: policy, effects: effects}
}

// SwitchScene re-enters the target scene from scratch (Init, not restore).
func SwitchScene[S any](targetID string) Effect[S] {
	return Effect[S]{kind: KindSwitch, target: targetID}
}

// Noop renders and persists nothing.
func Noop[S any]() Effect[S] {
	return Effect[S]{kind: KindNoop}
}

// NoopWithSideEffects renders nothing but still runs effects.
func NoopWithSideEffects[S any](effects ...SideEffect) Effect[S] {
	return Effect[S]{kind: KindNoop, effects: effects}
}

func (e Effect[S]) Kind() EffectKind            { return e.kind }
func (e Effect[S]) State() S                    { return e.state }
func (e Effect[S]) Policy() domain.RenderPolicy { return e.policy }
func (e Effect[S]) SideEffects() []SideEffect   { return e.effects }
func (e Effect[S]) Target() string              { return e.target }

// SideEffect is a UI action run after an effect's render.
type SideEffect interface {
	sideEffect()
}

// Notification posts an ephemeral message with "disable notifications" and
// "hide" controls. Text is plain; it is escaped and sent as MarkdownV2.
// A positive TTL deletes the message after that delay.
type Notification struct {
	Text string
	TTL  time.Duration
}

// ClearPrompt deletes the chat's open input prompt, if any.
type ClearPrompt struct{}

func (Notification) sideEffect() {}
func (ClearPrompt) sideEffect()  {}

/*
Package scene defines the Scene protocol and the machinery that drives one.

A Scene is a self-contained conversation flow with its own State and Event
types. It is pure: Init builds a fresh state, Render turns a state into a
View, Update turns (state, event) into an Effect, and Bindings says which
texts and callback payloads decode into events.

Bind erases a Scene's type parameters into an Entry the router can hold in a
plain list. The Entry owns the per-event pipeline:

	event -> restore State (session tier, metadata tier, Init) -> Update -> apply Effect

Restoration never fails: a missing, foreign, stale or tampered snapshot
falls through to the next tier and finally to Init.
*/
package scene

// Package demo holds the sample scenes served by the stagehand CLI.
package demo

import "github.com/aretw0/stagehand/pkg/scene"

// Scenes returns the demo scenes in registration order.
func Scenes() []scene.Entry {
	return []scene.Entry{
		scene.Bind[CounterState, CounterEvent](Counter{}),
		scene.Bind[ProfileState, ProfileEvent](Profile{}),
	}
}

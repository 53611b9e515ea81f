// Package router resolves incoming chat events to registered scenes.
//
// A Router is assembled once with a Builder, which validates that scene ids
// and callback prefixes are unique, and is then safe for concurrent use:
// every message or callback query is handled independently, with no lock
// serializing events of the same chat.
//
// Callback queries pass through three stages before reaching a scene:
//
//  1. Payloads longer than 64 bytes or containing non-ASCII bytes are
//     acknowledged and dropped.
//  2. Reserved "ui:*" controls (cancel, hide, back and the notification
//     toggles) are handled by the router itself.
//  3. The originating message is adopted as the chat's current context
//     ("activate from callback") so older menus keep working.
//
// Callbacks nobody claims are answered with a stale-menu alert.
package router

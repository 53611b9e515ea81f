package domain

// RenderPolicy governs whether and how a view produces an on-screen message.
type RenderPolicy int

const (
	// EditOrReply edits the tracked last-action message in place and falls back
	// to sending a new message when the edit fails or nothing is tracked.
	EditOrReply RenderPolicy = iota
	// EditOnly edits the tracked last-action message and never sends.
	// Used for best-effort background refreshes.
	EditOnly
	// SendNew always sends a new message. A view without markup becomes an
	// input prompt.
	SendNew
)

func (p RenderPolicy) String() string {
	switch p {
	case EditOrReply:
		return "edit_or_reply"
	case EditOnly:
		return "edit_only"
	case SendNew:
		return "send_new"
	default:
		return "unknown"
	}
}

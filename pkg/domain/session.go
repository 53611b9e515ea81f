package domain

// Session is the short-lived per-chat bookkeeping record.
//
// It is always replaced as a whole (read-modify-write). Concurrent events on
// the same chat race and the later write wins.
type Session struct {
	ActiveSceneID        *string          `json:"active_scene_id,omitempty"`
	LastMessageID        *int32           `json:"last_message_id,omitempty"`
	InputPromptMessageID *int32           `json:"input_prompt_message_id,omitempty"`
	ReplyToLastOnce      bool             `json:"reply_to_last_once"`
	MessageScenes        map[int32]string `json:"message_scenes,omitempty"`
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{MessageScenes: make(map[int32]string)}
}

// ActiveScene returns the active scene id, if any.
func (s *Session) ActiveScene() (string, bool) {
	if s.ActiveSceneID == nil || *s.ActiveSceneID == "" {
		return "", false
	}
	return *s.ActiveSceneID, true
}

// PromptOpen reports whether an input prompt is currently tracked.
func (s *Session) PromptOpen() bool {
	return s.InputPromptMessageID != nil
}

// IsLast reports whether id is the tracked last-action message.
func (s *Session) IsLast(id int32) bool {
	return s.LastMessageID != nil && *s.LastMessageID == id
}

// IsTracked reports whether id is either the open prompt or the last-action message.
func (s *Session) IsTracked(id int32) bool {
	if s.InputPromptMessageID != nil && *s.InputPromptMessageID == id {
		return true
	}
	return s.IsLast(id)
}

// SceneHint returns the envelope recorded for message id.
func (s *Session) SceneHint(id int32) (Snapshot, bool) {
	hint, ok := s.MessageScenes[id]
	if !ok {
		return Snapshot{}, false
	}
	return DecodeSceneHint(hint)
}

// SetSceneHint records an envelope for message id.
func (s *Session) SetSceneHint(id int32, hint string) {
	if s.MessageScenes == nil {
		s.MessageScenes = make(map[int32]string)
	}
	s.MessageScenes[id] = hint
}

// Clone returns a deep copy, so stores can isolate callers from their records.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := &Session{ReplyToLastOnce: s.ReplyToLastOnce}
	if s.ActiveSceneID != nil {
		out.ActiveSceneID = Ptr(*s.ActiveSceneID)
	}
	if s.LastMessageID != nil {
		out.LastMessageID = Ptr(*s.LastMessageID)
	}
	if s.InputPromptMessageID != nil {
		out.InputPromptMessageID = Ptr(*s.InputPromptMessageID)
	}
	out.MessageScenes = make(map[int32]string, len(s.MessageScenes))
	for k, v := range s.MessageScenes {
		out.MessageScenes[k] = v
	}
	return out
}

package history

import "rteditor/internal/dom"

// Delta replaces Old[Start:EndOld] of the previous state with Text.
// Offsets are byte offsets into the serialized HTML.
type Delta struct {
	Start  int    `json:"start"`
	EndOld int    `json:"end_old"`
	Text   string `json:"text"`
}

// State is a reconstructed history position
type State struct {
	HTML      string
	Selection *dom.SavedSelection
}

// entry is either a full anchor snapshot or a delta against the entry before it
type entry struct {
	id        uint64
	anchor    bool
	html      string
	delta     Delta
	selection *dom.SavedSelection
}

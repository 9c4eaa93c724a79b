package editor

import (
	"strings"
)

// Action is an editing command bound to a keyboard shortcut.
type Action int

const (
	ActionNone Action = iota
	ActionUndo
	ActionRedo
	ActionCopy
	ActionCut
	ActionPaste
	ActionDuplicate
	ActionDelete
)

var actionNames = map[Action]string{
	ActionNone:      "none",
	ActionUndo:      "undo",
	ActionRedo:      "redo",
	ActionCopy:      "copy",
	ActionCut:       "cut",
	ActionPaste:     "paste",
	ActionDuplicate: "duplicate",
	ActionDelete:    "delete",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "none"
}

// ParseShortcut maps a key chord such as "ctrl+z", "cmd+shift+z" or
// "Delete" to an action. Ctrl and Cmd are interchangeable. Unbound chords
// map to ActionNone.
func ParseShortcut(chord string) Action {
	var mod, shift bool
	key := ""
	for _, part := range strings.Split(strings.ToLower(strings.TrimSpace(chord)), "+") {
		switch part = strings.TrimSpace(part); part {
		case "ctrl", "control", "cmd", "meta", "command":
			mod = true
		case "shift":
			shift = true
		default:
			key = part
		}
	}

	switch {
	case key == "delete" || key == "backspace":
		if !mod && !shift {
			return ActionDelete
		}
	case !mod:
	case key == "z" && shift:
		return ActionRedo
	case key == "z":
		return ActionUndo
	case key == "y" && !shift:
		return ActionRedo
	case shift:
	case key == "c":
		return ActionCopy
	case key == "x":
		return ActionCut
	case key == "v":
		return ActionPaste
	case key == "d":
		return ActionDuplicate
	}
	return ActionNone
}

// Perform runs an action. Each action is a no-op when its precondition
// fails: an empty selection for copy, cut, duplicate and delete, an empty
// clipboard for paste, the end of history for undo and redo. It reports
// whether anything happened.
func (s *Session) Perform(a Action) bool {
	switch a {
	case ActionUndo:
		return s.Undo()
	case ActionRedo:
		return s.Redo()
	case ActionCopy:
		return s.Copy()
	case ActionCut:
		return s.Cut()
	case ActionPaste:
		return s.Paste() != nil
	case ActionDuplicate:
		return s.Duplicate() != nil
	case ActionDelete:
		return s.DeleteSelection()
	default:
		return false
	}
}

// HandleShortcut parses chord and performs the bound action.
func (s *Session) HandleShortcut(chord string) bool {
	a := ParseShortcut(chord)
	if a == ActionNone {
		return false
	}
	ok := s.Perform(a)
	s.logger.Debug("shortcut", "chord", chord, "action", a, "applied", ok)
	return ok
}

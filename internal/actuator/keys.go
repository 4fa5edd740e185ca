// File: internal/actuator/keys.go
package actuator

import "github.com/chromedp/cdproto/input"

// Chord describes a simultaneous key combination: zero or more modifiers
// held while a single key is struck.
type Chord struct {
	Name      string
	Modifiers input.Modifier
	Key       string
	Code      string
	KeyCode   int64
}

// The fixed set of chords the workflow needs. These are the only key
// combinations ever issued; everything else goes through Type.
var (
	// ChordSelectAll selects the content of the focused field.
	ChordSelectAll = Chord{Name: "select-all", Modifiers: input.ModifierCtrl, Key: "a", Code: "KeyA", KeyCode: 65}
	// ChordCopy copies the current selection to the system clipboard.
	ChordCopy = Chord{Name: "copy", Modifiers: input.ModifierCtrl, Key: "c", Code: "KeyC", KeyCode: 67}
	// ChordPaste pastes the system clipboard into the focused field.
	ChordPaste = Chord{Name: "paste", Modifiers: input.ModifierCtrl, Key: "v", Code: "KeyV", KeyCode: 86}
	// ChordCycleWindow cycles to the next top-level window. This single
	// keystroke is the only window-management primitive used.
	ChordCycleWindow = Chord{Name: "cycle-window", Modifiers: input.ModifierAlt, Key: "Tab", Code: "Tab", KeyCode: 9}
	// ChordOpenDropdown opens the dropdown of the focused combo box.
	ChordOpenDropdown = Chord{Name: "open-dropdown", Modifiers: input.ModifierAlt, Key: "ArrowDown", Code: "ArrowDown", KeyCode: 40}

	// KeyEnter confirms the focused control.
	KeyEnter = Chord{Name: "enter", Key: "Enter", Code: "Enter", KeyCode: 13}
	// KeyBackspace deletes the current selection.
	KeyBackspace = Chord{Name: "backspace", Key: "Backspace", Code: "Backspace", KeyCode: 8}
	// KeyArrowDown moves the selection down one row.
	KeyArrowDown = Chord{Name: "arrow-down", Key: "ArrowDown", Code: "ArrowDown", KeyCode: 40}
)

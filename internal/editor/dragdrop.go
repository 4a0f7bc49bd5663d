package editor

import (
	"errors"
	"strings"
)

// DropController translates external drag payloads (plain variable names)
// into token insertions at the drop position.
type DropController struct {
	editor   *Editor
	notifier Notifier
}

// NewDropController wires a controller to an editor. notifier may be nil.
func NewDropController(e *Editor, notifier Notifier) *DropController {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &DropController{editor: e, notifier: notifier}
}

// HandleDrop inserts the dragged variable at offset. Unrecognized payloads
// are ignored silently; an adjacent duplicate surfaces a warning and
// performs no insertion.
func (c *DropController) HandleDrop(payload string, offset int) error {
	name := strings.TrimSpace(payload)
	if name == "" || !c.editor.catalog.Contains(name) {
		return nil
	}
	if err := c.editor.InsertTokenAt(offset, name); err != nil {
		var dup *AdjacentDuplicateError
		if errors.As(err, &dup) {
			c.notifier.Notify("Cannot add the same variable consecutively")
		}
		return err
	}
	return nil
}

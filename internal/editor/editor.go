package editor

// History closes undo steps in the host engine. Token insertions commit the
// current step so the insertion is a single atomic undo unit, never
// coalesced with surrounding typing.
type History interface {
	CloseStep()
}

// Notifier surfaces user-facing warnings. Implementations must not mutate
// the document from inside Notify.
type Notifier interface {
	Notify(message string)
}

type noopHistory struct{}

func (noopHistory) CloseStep() {}

type noopNotifier struct{}

func (noopNotifier) Notify(string) {}

// Editor owns the live document, the cursor, and the queue of deferred
// rollback tasks. All methods are single-writer: the one UI event loop.
type Editor struct {
	doc       Document
	cursor    int
	catalog   Catalog
	history   History
	notifier  Notifier
	pending   []rollback
	wordCount int
}

// NewEditor wraps a document. history and notifier may be nil.
func NewEditor(doc Document, catalog Catalog, notifier Notifier, history History) *Editor {
	e := &Editor{
		doc:      doc.normalize(),
		catalog:  catalog,
		history:  history,
		notifier: notifier,
	}
	if e.history == nil {
		e.history = noopHistory{}
	}
	if e.notifier == nil {
		e.notifier = noopNotifier{}
	}
	e.recount()
	return e
}

func (e *Editor) Doc() Document  { return e.doc }
func (e *Editor) Cursor() int    { return e.cursor }
func (e *Editor) WordCount() int { return e.wordCount }

// SetCursor moves the cursor, clamped to the document extent.
func (e *Editor) SetCursor(offset int) {
	if offset < 0 {
		offset = 0
	}
	if max := e.doc.Len(); offset > max {
		offset = max
	}
	e.cursor = offset
}

// InsertTokenAt splices a token at offset, advances the cursor past it, and
// closes the current undo step. AdjacentDuplicateError leaves the document
// untouched.
func (e *Editor) InsertTokenAt(offset int, name string) error {
	doc, err := e.doc.InsertToken(offset, name)
	if err != nil {
		return err
	}
	e.doc = doc
	e.cursor = offset + 1
	e.history.CloseStep()
	e.recount()
	return nil
}

// DeleteTokenAt removes the run spanning offset; the delete-affordance
// click path.
func (e *Editor) DeleteTokenAt(offset int) error {
	doc, _, err := e.doc.DeleteRunAt(offset)
	if err != nil {
		return err
	}
	e.doc = doc
	if e.cursor > offset {
		e.cursor--
	}
	e.recount()
	return nil
}

func (e *Editor) recount() {
	e.wordCount = WordCount(e.doc.PlainText())
}

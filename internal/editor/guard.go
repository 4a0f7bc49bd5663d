package editor

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxWords is the body word ceiling.
	MaxWords = 2000
	// maxNewlineRun is the longest trailing run of newlines the guard
	// tolerates; the next newline is rolled back.
	maxNewlineRun = 3
)

// insertWhitelist matches permitted typed input: letters, digits,
// whitespace, and a fixed punctuation set.
var insertWhitelist = regexp.MustCompile(`^[a-zA-Z0-9_\s.+|\\/*&,;!?'"()\[\]%{}-]*$`)

// WordCount counts whitespace-separated words, discarding empty tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// rollback is a deferred deletion scheduled by the guard. The mutation is
// not performed inline because the engine is still unwinding from the
// change event; it runs on the next tick with a freshness check.
type rollback struct {
	offset        int
	length        int
	expect        string
	restoreCursor int
	message       string
}

func (e *Editor) schedule(r rollback) {
	e.pending = append(e.pending, r)
}

// Type applies a single contiguous insert at the cursor, the way the host
// engine delivers a content-change event, then validates it. A violation is
// returned immediately; the corrective deletion and its notification are
// queued for FlushPending.
func (e *Editor) Type(text string) error {
	doc, err := e.doc.InsertText(e.cursor, text)
	if err != nil {
		return err
	}
	e.doc = doc
	e.cursor += utf8.RuneCountInString(text)
	return e.checkChange(text)
}

// checkChange evaluates the guard rules in order; the first match wins and
// aborts further checks for this change.
func (e *Editor) checkChange(inserted string) error {
	n := utf8.RuneCountInString(inserted)

	if inserted != "" && !insertWhitelist.MatchString(inserted) {
		e.schedule(rollback{
			offset:        e.cursor - n,
			length:        n,
			expect:        inserted,
			restoreCursor: e.cursor - n,
			message:       "This character is not allowed in the template",
		})
		return &IllegalCharacterError{Inserted: inserted}
	}

	if inserted == "\n" {
		prefix := e.doc.PrefixText(e.cursor)
		if trailingNewlines(prefix) > maxNewlineRun {
			e.schedule(rollback{
				offset:        e.cursor - 1,
				length:        1,
				expect:        "\n",
				restoreCursor: e.cursor - 1,
				message:       "No more than 3 consecutive blank lines",
			})
			return &BlankLineLimitError{}
		}
	}

	if count := WordCount(e.doc.PlainText()); count > MaxWords {
		e.schedule(rollback{
			offset:        e.cursor - 1,
			length:        1,
			expect:        e.doc.RangeText(e.cursor-1, 1),
			restoreCursor: e.cursor - 1,
			message:       "Word limit of 2000 reached",
		})
		return &WordLimitError{Count: count}
	}

	e.recount()
	return nil
}

// FlushPending runs the deferred rollbacks queued by the guard. Each task
// re-verifies the text it is about to remove; when the document has changed
// underneath it, the offset is re-derived from the current cursor, and the
// task becomes a no-op if that fails too.
func (e *Editor) FlushPending() {
	pending := e.pending
	e.pending = nil
	for _, t := range pending {
		offset := t.offset
		cursor := t.restoreCursor
		if e.doc.RangeText(offset, t.length) != t.expect {
			offset = e.cursor - t.length
			cursor = offset
			if offset < 0 || e.doc.RangeText(offset, t.length) != t.expect {
				continue
			}
		}
		e.doc = e.doc.DeleteRange(offset, t.length)
		if cursor >= 0 && cursor <= e.doc.Len() {
			e.cursor = cursor
		} else if e.cursor > e.doc.Len() {
			e.cursor = e.doc.Len()
		}
		e.recount()
		e.notifier.Notify(t.message)
	}
}

// trailingNewlines counts the newline run at the end of text.
func trailingNewlines(text string) int {
	count := 0
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] != '\n' {
			break
		}
		count++
	}
	return count
}

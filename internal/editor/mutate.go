package editor

import "fmt"

// RunAt returns the run spanning offset and the local offset within it.
// The scan accumulates run lengths; the match is the first run whose
// cumulative start <= offset < cumulative end.
func (d Document) RunAt(offset int) (Run, int, bool) {
	pos := 0
	for _, r := range d {
		n := r.Len()
		if offset >= pos && offset < pos+n {
			return r, offset - pos, true
		}
		pos += n
	}
	return nil, 0, false
}

// runEndingAt returns the run whose extent ends exactly at offset, i.e. the
// "previous run" when no run spans the offset boundary.
func (d Document) runEndingAt(offset int) (Run, bool) {
	pos := 0
	for _, r := range d {
		pos += r.Len()
		if pos == offset {
			return r, true
		}
		if pos > offset {
			break
		}
	}
	return nil, false
}

// InsertToken splices a length-1 TokenRun at offset and shifts everything
// after it by one position. It fails with AdjacentDuplicateError when the
// run ending at offset is a TokenRun of the same name, leaving the document
// unchanged. Splitting a spanned text run is handled here; the caller owns
// cursor movement and the undo-step boundary.
func (d Document) InsertToken(offset int, name string) (Document, error) {
	if offset < 0 || offset > d.Len() {
		return d, fmt.Errorf("insert token: offset %d out of range 0..%d", offset, d.Len())
	}
	if prev, ok := d.runEndingAt(offset); ok {
		if tok, isToken := prev.(TokenRun); isToken && tok.Name == name {
			return d, &AdjacentDuplicateError{Name: name}
		}
	}

	out := make(Document, 0, len(d)+2)
	pos := 0
	inserted := false
	for _, r := range d {
		n := r.Len()
		if !inserted && offset == pos {
			out = append(out, TokenRun{Name: name})
			inserted = true
		}
		if !inserted && offset > pos && offset < pos+n {
			// Tokens are length 1, so only a text run can span the offset.
			tr := r.(TextRun)
			rs := []rune(tr.Content)
			local := offset - pos
			out = append(out,
				TextRun{Content: string(rs[:local])},
				TokenRun{Name: name},
				TextRun{Content: string(rs[local:])},
			)
			inserted = true
			pos += n
			continue
		}
		out = append(out, r)
		pos += n
	}
	if !inserted {
		out = append(out, TokenRun{Name: name})
	}
	return out.normalize(), nil
}

// InsertText splices plain text at offset. Validation of the inserted text
// is the guard's job, not the mutator's.
func (d Document) InsertText(offset int, text string) (Document, error) {
	if offset < 0 || offset > d.Len() {
		return d, fmt.Errorf("insert text: offset %d out of range 0..%d", offset, d.Len())
	}
	if text == "" {
		return d, nil
	}

	out := make(Document, 0, len(d)+2)
	pos := 0
	inserted := false
	for _, r := range d {
		n := r.Len()
		if !inserted && offset == pos {
			out = append(out, TextRun{Content: text})
			inserted = true
		}
		if !inserted && offset > pos && offset < pos+n {
			tr := r.(TextRun)
			rs := []rune(tr.Content)
			local := offset - pos
			out = append(out, TextRun{Content: string(rs[:local]) + text + string(rs[local:])})
			inserted = true
			pos += n
			continue
		}
		out = append(out, r)
		pos += n
	}
	if !inserted {
		out = append(out, TextRun{Content: text})
	}
	return out.normalize(), nil
}

// DeleteRunAt removes the whole run spanning offset, exactly its extent and
// nothing more. This is the delete-affordance path for tokens, not a
// generic range delete.
func (d Document) DeleteRunAt(offset int) (Document, Run, error) {
	pos := 0
	for i, r := range d {
		n := r.Len()
		if offset >= pos && offset < pos+n {
			out := make(Document, 0, len(d)-1)
			out = append(out, d[:i]...)
			out = append(out, d[i+1:]...)
			return out.normalize(), r, nil
		}
		pos += n
	}
	return d, nil, fmt.Errorf("delete run: no run spans offset %d", offset)
}

// DeleteRange removes [offset, offset+length) from the document. Runs fully
// covered are dropped; text runs at the boundaries are trimmed. Used by the
// guard to undo disallowed typed input.
func (d Document) DeleteRange(offset, length int) Document {
	if length <= 0 {
		return d
	}
	end := offset + length
	out := make(Document, 0, len(d))
	pos := 0
	for _, r := range d {
		n := r.Len()
		runStart, runEnd := pos, pos+n
		pos = runEnd
		if runEnd <= offset || runStart >= end {
			out = append(out, r)
			continue
		}
		tr, isText := r.(TextRun)
		if !isText {
			// A token overlapping the range is covered entirely (length 1).
			continue
		}
		rs := []rune(tr.Content)
		keepHead := 0
		if offset > runStart {
			keepHead = offset - runStart
		}
		keepTail := 0
		if end < runEnd {
			keepTail = runEnd - end
		}
		content := string(rs[:keepHead]) + string(rs[n-keepTail:])
		if content != "" {
			out = append(out, TextRun{Content: content})
		}
	}
	return out.normalize()
}

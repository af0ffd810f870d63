package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/stevemurr/gwconsole/schema"
)

// NewRecord is the editor target meaning "append a new record".
const NewRecord = -1

// EditorSession is the state of an open add/edit form: a private draft, the
// position it will be saved to, and the field errors of the last save
// attempt. Drafts are not validated until Save.
type EditorSession struct {
	schema *schema.Schema
	draft  Record
	target int
	errors map[string]string
}

func newEditorSession(s *schema.Schema, draft Record, target int) *EditorSession {
	return &EditorSession{
		schema: s,
		draft:  draft,
		target: target,
		errors: map[string]string{},
	}
}

// Draft returns a copy of the current draft.
func (e *EditorSession) Draft() Record { return e.draft.Clone() }

// Target returns the position being edited, or false for a new record.
func (e *EditorSession) Target() (int, bool) {
	return e.target, e.target != NewRecord
}

// Errors returns the field errors recorded by the last failed save.
func (e *EditorSession) Errors() map[string]string {
	out := make(map[string]string, len(e.errors))
	for k, v := range e.errors {
		out[k] = v
	}
	return out
}

// SetField stores value in the draft. Only the value's type is checked;
// the schema rules run on Save.
func (e *EditorSession) SetField(name string, value any) error {
	if _, ok := e.schema.Field(name); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if _, ok := scalarValue(value); !ok {
		return fmt.Errorf("%w: field %q holds %T", ErrInvalidValue, name, value)
	}
	e.draft[name] = value
	return nil
}

// OpenEditor starts an editor session, replacing any open one. With target
// NewRecord the draft holds the schema defaults; otherwise it is a copy of
// the record at target.
func (l *List) OpenEditor(target int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	draft := Record(l.schema.Defaults())
	if target != NewRecord {
		r, err := l.records.At(target)
		if err != nil {
			return err
		}
		draft = r
	}
	l.editor = newEditorSession(l.schema, draft, target)
	return nil
}

// SetField updates one field of the open draft.
func (l *List) SetField(name string, value any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.editor == nil {
		return ErrNoEditor
	}
	return l.editor.SetField(name, value)
}

// Save validates the draft and commits it. Validation failures are stored
// in the session and returned as *ValidationError without touching the
// list. Otherwise the draft is appended or written over its target and the
// session closes; it also closes on a *PersistenceError, since the record
// is committed in memory and Flush retries the write.
func (l *List) Save(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.editor
	if e == nil {
		return -1, ErrNoEditor
	}

	if errs := l.schema.Validate(e.draft); len(errs) > 0 {
		e.errors = errs
		verr := &ValidationError{Fields: e.Errors()}
		l.report("save", verr)
		return -1, verr
	}

	var (
		pos int
		op  string
		err error
	)
	if target, ok := e.Target(); ok {
		op, pos = "replace", target
		err = l.records.Replace(ctx, target, e.draft)
	} else {
		op = "append"
		pos, err = l.records.Append(ctx, e.draft)
	}
	var perr *PersistenceError
	if err != nil && !errors.As(err, &perr) {
		return -1, err
	}
	l.editor = nil
	l.report(op, err)
	return pos, err
}

// CancelEditor discards the open session.
func (l *List) CancelEditor() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.editor == nil {
		return ErrNoEditor
	}
	l.editor = nil
	return nil
}

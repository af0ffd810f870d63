package records

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stevemurr/gwconsole/schema"
	"github.com/stevemurr/gwconsole/store"
)

// Observer receives notifications about list activity, for metrics.
type Observer interface {
	Mutated(list, op string, size int)
	Dispatched(list string, cmd Command)
	ValidationFailed(list string, fields int)
	PersistFailed(list, op string)
}

type nopObserver struct{}

func (nopObserver) Mutated(string, string, int) {}
func (nopObserver) Dispatched(string, Command) {}
func (nopObserver) ValidationFailed(string, int) {}
func (nopObserver) PersistFailed(string, string) {}

// List is a managed record list: a RecordStore, the selection over it and
// at most one editor session. All methods are safe for concurrent use and
// run one at a time.
type List struct {
	mu sync.Mutex

	name      string
	schema    *schema.Schema
	records   *RecordStore
	selection *SelectionSet
	editor    *EditorSession

	observer Observer
	log      zerolog.Logger
	key      string
}

// Option configures a List.
type Option func(*List)

func WithLogger(logger zerolog.Logger) Option {
	return func(l *List) { l.log = logger }
}

func WithObserver(o Observer) Option {
	return func(l *List) { l.observer = o }
}

// WithKey sets the slot key. It defaults to the list name.
func WithKey(key string) Option {
	return func(l *List) { l.key = key }
}

// Open creates a list over slot and loads its records.
func Open(ctx context.Context, name string, s *schema.Schema, slot store.Store, opts ...Option) (*List, error) {
	l := &List{
		name:      name,
		schema:    s,
		selection: NewSelectionSet(),
		observer:  nopObserver{},
		log:       zerolog.Nop(),
		key:       name,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With().Str("list", name).Logger()
	l.records = NewRecordStore(slot, l.key, s, l.log)
	l.records.onResize = l.resized

	recs, err := l.records.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("open list %s: %w", name, err)
	}
	l.observer.Mutated(l.name, "load", len(recs))
	l.log.Debug().Int("records", len(recs)).Msg("list loaded")
	return l, nil
}

func (l *List) Name() string { return l.name }

func (l *List) Schema() *schema.Schema { return l.schema }

func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records.Len()
}

// Records returns copies of every record in order.
func (l *List) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records.All()
}

// Selected returns the checked positions in ascending order.
func (l *List) Selected() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selection.Members()
}

// Reload re-reads the list from its slot.
func (l *List) Reload(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	recs, err := l.records.Load(ctx)
	if err != nil {
		return err
	}
	l.observer.Mutated(l.name, "load", len(recs))
	return nil
}

// Append validates r and adds it at the end of the list.
func (l *List) Append(ctx context.Context, r Record) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, err := l.records.Append(ctx, r)
	l.report("append", err)
	return pos, err
}

// Replace validates r and writes it over the record at pos.
func (l *List) Replace(ctx context.Context, pos int, r Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.records.Replace(ctx, pos, r)
	l.report("replace", err)
	return err
}

// Toggle flips the checkbox of the record at pos.
func (l *List) Toggle(pos int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if pos < 0 || pos >= l.records.Len() {
		return fmt.Errorf("%w: %d (have %d)", ErrPositionOutOfRange, pos, l.records.Len())
	}
	l.selection.Toggle(pos)
	return nil
}

// Flush retries writing the list to its slot.
func (l *List) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.records.Flush(ctx)
	if err != nil {
		l.report("flush", err)
	}
	return err
}

// Row is one record as displayed: its position, its 1-based display index
// and whether its checkbox is set.
type Row struct {
	Position int    `json:"position"`
	Index    int    `json:"index"`
	Selected bool   `json:"selected"`
	Record   Record `json:"record"`
}

// EditorView is the state of the open editor session.
type EditorView struct {
	Target *int              `json:"target"`
	Draft  Record            `json:"draft"`
	Errors map[string]string `json:"errors"`
}

// View is a snapshot of everything a list page renders.
type View struct {
	Name     string      `json:"name"`
	Title    string      `json:"title"`
	Rows     []Row       `json:"rows"`
	Selected []int       `json:"selected"`
	Editor   *EditorView `json:"editor"`
	Dirty    bool        `json:"dirty"`
}

func (l *List) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()

	recs := l.records.All()
	v := View{
		Name:     l.name,
		Title:    l.schema.Title,
		Rows:     make([]Row, len(recs)),
		Selected: l.selection.Members(),
		Dirty:    l.records.Dirty(),
	}
	for i, r := range recs {
		v.Rows[i] = Row{Position: i, Index: i + 1, Selected: l.selection.Contains(i), Record: r}
	}
	if e := l.editor; e != nil {
		ev := &EditorView{Draft: e.Draft(), Errors: e.Errors()}
		if target, ok := e.Target(); ok {
			ev.Target = &target
		}
		v.Editor = ev
	}
	return v
}

// resized runs after every mutation that changes the record count.
// Positions have shifted, so the selection is cleared and an editor bound
// to an existing record is closed.
func (l *List) resized() {
	l.selection.Clear()
	if l.editor == nil {
		return
	}
	if target, ok := l.editor.Target(); ok {
		l.log.Info().Int("target", target).Msg("closing editor, record positions changed")
		l.editor = nil
	}
}

func (l *List) report(op string, err error) {
	var verr *ValidationError
	var perr *PersistenceError
	switch {
	case err == nil:
		l.observer.Mutated(l.name, op, l.records.Len())
	case errors.As(err, &verr):
		l.observer.ValidationFailed(l.name, len(verr.Fields))
		l.log.Debug().Interface("fields", verr.Fields).Str("op", op).Msg("validation failed")
	case errors.As(err, &perr):
		if op != "flush" {
			l.observer.Mutated(l.name, op, l.records.Len())
		}
		l.observer.PersistFailed(l.name, op)
		l.log.Error().Err(perr.Err).Str("op", op).Msg("persist failed, change kept in memory")
	}
}

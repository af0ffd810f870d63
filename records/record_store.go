package records

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stevemurr/gwconsole/schema"
	"github.com/stevemurr/gwconsole/store"
)

// RecordStore is the ordered list of records behind one slot of a Store.
// Every mutation is written through to the slot before it returns. A failed
// write leaves the in-memory change in place and marks the store dirty
// until a later write succeeds.
//
// RecordStore is not safe for concurrent use; List serializes access.
type RecordStore struct {
	slot   store.Store
	key    string
	schema *schema.Schema
	log    zerolog.Logger

	records []Record
	// absent is set by Clear: the slot should not exist rather than hold
	// an empty list.
	absent bool
	dirty  bool

	onResize func()
}

func NewRecordStore(slot store.Store, key string, s *schema.Schema, logger zerolog.Logger) *RecordStore {
	return &RecordStore{
		slot:   slot,
		key:    key,
		schema: s,
		log:    logger.With().Str("slot", key).Logger(),
	}
}

// Load replaces the in-memory list with the slot's contents. A missing or
// undecodable slot yields an empty list.
func (rs *RecordStore) Load(ctx context.Context) ([]Record, error) {
	value, ok, err := rs.slot.Get(ctx, rs.key)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Key: rs.key, Err: err}
	}
	var recs []Record
	if ok {
		recs, err = decodeRecords(rs.key, value)
		if err != nil {
			rs.log.Warn().Err(err).Msg("slot unreadable, starting empty")
			recs = nil
		}
	}
	prev := len(rs.records)
	rs.records = recs
	rs.absent = !ok
	rs.dirty = false
	if prev != len(recs) {
		rs.resized()
	}
	return rs.All(), nil
}

// Append validates r and adds it to the end of the list. It returns the new
// record's position. On a *PersistenceError the record has still been
// appended and the position is valid.
func (rs *RecordStore) Append(ctx context.Context, r Record) (int, error) {
	rec, err := rs.prepare(r)
	if err != nil {
		return -1, err
	}
	rs.records = append(rs.records, rec)
	rs.absent = false
	rs.resized()
	return len(rs.records) - 1, rs.persist(ctx, "append")
}

// Replace validates r and overwrites the record at pos in place.
func (rs *RecordStore) Replace(ctx context.Context, pos int, r Record) error {
	if pos < 0 || pos >= len(rs.records) {
		return fmt.Errorf("%w: %d (have %d)", ErrPositionOutOfRange, pos, len(rs.records))
	}
	rec, err := rs.prepare(r)
	if err != nil {
		return err
	}
	rs.records[pos] = rec
	return rs.persist(ctx, "replace")
}

// RemoveAt drops every record whose position is in positions, keeping the
// relative order of the rest. Positions outside the list match nothing; if
// nothing matches the call is a no-op.
func (rs *RecordStore) RemoveAt(ctx context.Context, positions []int) error {
	drop := make(map[int]bool, len(positions))
	for _, p := range positions {
		if p >= 0 && p < len(rs.records) {
			drop[p] = true
		}
	}
	if len(drop) == 0 {
		return nil
	}
	kept := make([]Record, 0, len(rs.records)-len(drop))
	for i, r := range rs.records {
		if !drop[i] {
			kept = append(kept, r)
		}
	}
	rs.records = kept
	rs.resized()
	return rs.persist(ctx, "remove")
}

// Clear empties the list and deletes the slot.
func (rs *RecordStore) Clear(ctx context.Context) error {
	prev := len(rs.records)
	rs.records = nil
	rs.absent = true
	if prev != 0 {
		rs.resized()
	}
	return rs.persist(ctx, "clear")
}

// Flush writes the in-memory list to the slot.
func (rs *RecordStore) Flush(ctx context.Context) error {
	return rs.persist(ctx, "flush")
}

// Dirty reports whether the last write failed.
func (rs *RecordStore) Dirty() bool { return rs.dirty }

func (rs *RecordStore) Len() int { return len(rs.records) }

// At returns a copy of the record at pos.
func (rs *RecordStore) At(pos int) (Record, error) {
	if pos < 0 || pos >= len(rs.records) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrPositionOutOfRange, pos, len(rs.records))
	}
	return rs.records[pos].Clone(), nil
}

// All returns copies of every record in order.
func (rs *RecordStore) All() []Record {
	out := make([]Record, len(rs.records))
	for i, r := range rs.records {
		out[i] = r.Clone()
	}
	return out
}

func (rs *RecordStore) prepare(r Record) (Record, error) {
	errs := rs.schema.Validate(r)
	for k, v := range r {
		if _, ok := scalarValue(v); !ok {
			errs[k] = valueMessage(rs.schema, k)
		}
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	rec := Record(rs.schema.Normalize(r))
	for k, v := range rec {
		sv, _ := scalarValue(v)
		if sv == nil {
			delete(rec, k)
			continue
		}
		rec[k] = sv
	}
	return rec, nil
}

func valueMessage(s *schema.Schema, name string) string {
	label := name
	if f, ok := s.Field(name); ok && f.Label != "" {
		label = f.Label
	}
	return fmt.Sprintf("%s must be text, a number or true/false", label)
}

func (rs *RecordStore) persist(ctx context.Context, op string) error {
	var err error
	if rs.absent {
		err = rs.slot.Delete(ctx, rs.key)
	} else {
		var value string
		value, err = encodeRecords(rs.schema, rs.records)
		if err == nil {
			err = rs.slot.Set(ctx, rs.key, value)
		}
	}
	if err != nil {
		rs.dirty = true
		return &PersistenceError{Op: op, Key: rs.key, Err: err}
	}
	rs.dirty = false
	return nil
}

func (rs *RecordStore) resized() {
	if rs.onResize != nil {
		rs.onResize()
	}
}

// Package eventdb is a crash-safe append-mostly store of detected market
// events. The whole data set is held in memory; every mutation rewrites the
// primary file through a temp file, fsync, and an atomic rename, so a crash
// at any point leaves either the old or the new state on disk.
package eventdb

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"market-event-monitor/internal/types"
)

var (
	// ErrCorrupt means neither the primary file nor the backup passed
	// checksum verification. Requires operator action.
	ErrCorrupt = errors.New("event database corrupt")

	// ErrIO wraps filesystem failures. The in-memory and on-disk states
	// remain consistent with each other after an ErrIO.
	ErrIO = errors.New("event database io error")
)

type dedupKey struct {
	symbol string
	date   string
	typ    types.EventType
}

// DB is safe for one writer and many readers.
type DB struct {
	mu         sync.RWMutex
	path       string
	backupPath string
	events     []types.DetectedEvent
	index      map[dedupKey]int
	nextID     uint64
}

// Open reads the primary file, falling back to — and promoting — the backup
// when the primary fails checksum verification. A missing primary with no
// backup starts an empty database.
func Open(path, backupPath string) (*DB, error) {
	db := &DB{path: path, backupPath: backupPath}

	events, err := readEvents(path)
	if err != nil {
		if errors.Is(err, ErrIO) {
			return nil, err
		}
		primaryMissing := errors.Is(err, os.ErrNotExist)

		events, err = readEvents(backupPath)
		switch {
		case err == nil:
			// Promote the backup.
			if err := copyFile(backupPath, path); err != nil {
				return nil, err
			}
		case errors.Is(err, os.ErrNotExist) && primaryMissing:
			events = nil
		case errors.Is(err, ErrIO):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: primary and backup unreadable (%v)", ErrCorrupt, err)
		}
	}

	db.install(events)
	if len(events) == 0 {
		// Materialize the empty file so later appends only ever rename.
		if err := writeSnapshot(path, nil); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func (db *DB) install(events []types.DetectedEvent) {
	db.events = events
	db.index = make(map[dedupKey]int, len(events))
	for i := range events {
		events[i].ID = uint64(i + 1)
		db.index[keyOf(events[i])] = i
	}
	db.nextID = uint64(len(events) + 1)
}

func keyOf(ev types.DetectedEvent) dedupKey {
	return dedupKey{symbol: ev.Symbol, date: ev.Date, typ: ev.Type}
}

// checkEvent rejects events the on-disk record cannot hold verbatim. The
// symbol field is fixed-width, so an over-long symbol would be silently
// truncated on encode and break the reload round trip.
func checkEvent(ev types.DetectedEvent) error {
	if !types.ValidSymbol(ev.Symbol) {
		return fmt.Errorf("%w: bad symbol %q", types.ErrParse, ev.Symbol)
	}
	return nil
}

// Append stores one event, applying deduplication: an event with the same
// (symbol, date, type) as an existing record replaces it in place — keeping
// the original ID — only when its |magnitude| is strictly greater; otherwise
// the new event is dropped. Returns the retained record and whether the
// database changed.
func (db *DB) Append(ev types.DetectedEvent) (types.DetectedEvent, bool, error) {
	if err := checkEvent(ev); err != nil {
		return types.DetectedEvent{}, false, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	st := db.stage(1)
	changed := applyOne(&st.events, st.index, &st.nextID, ev)
	if !changed {
		return db.events[db.index[keyOf(ev)]], false, nil
	}
	if err := writeSnapshot(db.path, st.events); err != nil {
		return types.DetectedEvent{}, false, err
	}
	db.commit(st)
	return db.events[db.index[keyOf(ev)]], true, nil
}

// staged is a copy-on-write view so failed flushes never leave the
// in-memory state ahead of the disk state.
type staged struct {
	events []types.DetectedEvent
	index  map[dedupKey]int
	nextID uint64
}

func (db *DB) stage(extra int) staged {
	st := staged{
		events: append([]types.DetectedEvent(nil), db.events...),
		index:  make(map[dedupKey]int, len(db.index)+extra),
		nextID: db.nextID,
	}
	for k, v := range db.index {
		st.index[k] = v
	}
	return st
}

func (db *DB) commit(st staged) {
	db.events, db.index, db.nextID = st.events, st.index, st.nextID
}

// AppendBatch stores a batch atomically: the context and each event are
// checked before anything touches disk, so cancellation, a validation
// failure, or a write failure discards the whole batch. Returns how many
// events changed the database.
func (db *DB) AppendBatch(ctx context.Context, evs []types.DetectedEvent) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	st := db.stage(len(evs))
	changed := 0
	for _, ev := range evs {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := checkEvent(ev); err != nil {
			return 0, err
		}
		if applyOne(&st.events, st.index, &st.nextID, ev) {
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := writeSnapshot(db.path, st.events); err != nil {
		return 0, err
	}
	db.commit(st)
	return changed, nil
}

func applyOne(events *[]types.DetectedEvent, index map[dedupKey]int, nextID *uint64, ev types.DetectedEvent) bool {
	k := keyOf(ev)
	if i, ok := index[k]; ok {
		if math.Abs(ev.Magnitude) <= math.Abs((*events)[i].Magnitude) {
			return false
		}
		ev.ID = (*events)[i].ID
		(*events)[i] = ev
		return true
	}
	ev.ID = *nextID
	*nextID++
	index[k] = len(*events)
	*events = append(*events, ev)
	return true
}

// Backup snapshots the primary to the backup path. External readers copy
// the backup; the primary is exclusively owned by this process.
func (db *DB) Backup() error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return copyFile(db.path, db.backupPath)
}

// Load returns all events in insertion order.
func (db *DB) Load() []types.DetectedEvent {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]types.DetectedEvent(nil), db.events...)
}

// FindByDateRange returns events with from <= date < to, in insertion order.
func (db *DB) FindByDateRange(from, to string) []types.DetectedEvent {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var out []types.DetectedEvent
	for _, ev := range db.events {
		if ev.Date >= from && (to == "" || ev.Date < to) {
			out = append(out, ev)
		}
	}
	return out
}

// FindByType returns events of one type, in insertion order.
func (db *DB) FindByType(t types.EventType) []types.DetectedEvent {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var out []types.DetectedEvent
	for _, ev := range db.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Stats summarizes the stored events relative to now.
type Stats struct {
	Total          int
	PerType        map[types.EventType]int
	LastMonthCount int
	LastYearCount  int
	OldestDate     string
	NewestDate     string
}

func (db *DB) Stats(now time.Time) Stats {
	db.mu.RLock()
	defer db.mu.RUnlock()

	st := Stats{
		Total:   len(db.events),
		PerType: make(map[types.EventType]int),
	}
	monthAgo := now.AddDate(0, -1, 0).Format(types.DateLayout)
	yearAgo := now.AddDate(-1, 0, 0).Format(types.DateLayout)

	for _, ev := range db.events {
		st.PerType[ev.Type]++
		if ev.Date >= monthAgo {
			st.LastMonthCount++
		}
		if ev.Date >= yearAgo {
			st.LastYearCount++
		}
		if st.OldestDate == "" || ev.Date < st.OldestDate {
			st.OldestDate = ev.Date
		}
		if ev.Date > st.NewestDate {
			st.NewestDate = ev.Date
		}
	}
	return st
}

// Close releases nothing today (the file is only held open during writes)
// but keeps the lifecycle explicit for callers.
func (db *DB) Close() error { return nil }

// --- file I/O ---

func readEvents(path string) ([]types.DetectedEvent, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, os.ErrNotExist)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, path, err)
	}

	count, err := decodeHeader(buf)
	if err != nil {
		return nil, err
	}
	rest := buf[headerSize:]

	events := make([]types.DetectedEvent, 0, count)
	for i := uint64(0); i < count; i++ {
		if len(rest) < 4 {
			return nil, fmt.Errorf("%w: truncated record %d", ErrCorrupt, i)
		}
		n := binary.LittleEndian.Uint32(rest)
		if n > maxPayloadSize || len(rest) < int(4+n+4) {
			return nil, fmt.Errorf("%w: truncated record %d", ErrCorrupt, i)
		}
		body := rest[:4+n]
		sum := binary.LittleEndian.Uint32(rest[4+n : 4+n+4])
		if crc32.ChecksumIEEE(body) != sum {
			return nil, fmt.Errorf("%w: record %d checksum mismatch", ErrCorrupt, i)
		}
		ev, err := decodePayload(body[4:])
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
		rest = rest[4+n+4:]
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(rest))
	}
	return events, nil
}

// writeSnapshot serializes the full state to a temp file in the target's
// directory, fsyncs it, then renames it over the target.
func writeSnapshot(path string, events []types.DetectedEvent) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".events-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", ErrIO, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(encodeHeader(uint64(len(events)))); err != nil {
		cleanup()
		return fmt.Errorf("%w: write header: %v", ErrIO, err)
	}
	for _, ev := range events {
		if _, err := tmp.Write(encodeRecord(ev)); err != nil {
			cleanup()
			return fmt.Errorf("%w: write record: %v", ErrIO, err)
		}
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("%w: fsync temp: %v", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp: %v", ErrIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename: %v", ErrIO, err)
	}
	return syncDir(dir)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrIO, src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrIO, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("%w: copy to %s: %v", ErrIO, dst, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("%w: fsync %s: %v", ErrIO, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrIO, dst, err)
	}
	return syncDir(filepath.Dir(dst))
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("%w: open dir: %v", ErrIO, err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("%w: fsync dir: %v", ErrIO, err)
	}
	return nil
}

// Package logstore implements an append-only, per-stream segmented
// log with size rotation, age retention, and tail/follow/search
// iteration. Segment files are the only thing this package writes; no
// other component touches them.
//
// Grounded on pkg/log/log.go for the line-format split
// (pretty/json/compact) and on other_examples' gastrolog
// orchestrator.go for the ingest-loop shape: a per-stream mutex
// guarding the active segment, atomic diagnostic counters, and
// cooperative cancellation via context.
package logstore

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/docxology/nockchain/pkg/errs"
	"github.com/docxology/nockchain/pkg/types"
)

// Config controls rotation/retention/format for every stream in a Store.
type Config struct {
	Format         types.LogFormat
	RotationBytes  int64
	RetentionDays  int
}

// DiagnosticCounters tracks conditions that LogStore surfaces without
// ever raising a hard error to the caller.
type DiagnosticCounters struct {
	ParseFailures  atomic.Int64
	WriteFailures  atomic.Int64
}

// Store is a LogStore rooted at one directory, holding one active
// segment per stream.
type Store struct {
	dir    string
	cfg    Config
	mu     sync.Mutex // guards streams map
	streams map[string]*streamState

	Diagnostics DiagnosticCounters
}

type streamState struct {
	mu       sync.Mutex
	file     *os.File
	size     int64
	seq      atomic.Uint64
	rotSeq   atomic.Uint64 // rotation counter; makes sealed segment names unique within the same second
	degraded bool
}

// New opens (or creates) a Store rooted at dir.
func New(dir string, cfg Config) (*Store, error) {
	if cfg.RotationBytes <= 0 {
		cfg.RotationBytes = 64 * 1024 * 1024
	}
	if cfg.Format == "" {
		cfg.Format = types.FormatCompact
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(errs.IO, "create log directory", err)
	}
	return &Store{dir: dir, cfg: cfg, streams: make(map[string]*streamState)}, nil
}

func (s *Store) state(stream string) (*streamState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.streams[stream]; ok {
		return st, nil
	}

	path := activeSegmentPath(s.dir, stream)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errs.Wrap(errs.IO, fmt.Sprintf("open active segment for stream %s", stream), err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errs.Wrap(errs.IO, "stat active segment", err)
	}

	st := &streamState{file: f, size: info.Size()}
	s.streams[stream] = st
	return st, nil
}

// Append writes one record to stream's active segment, rotating on a
// write boundary (never mid-record) when the resulting size crosses
// the rotation threshold.
func (s *Store) Append(stream string, rec types.LogRecord) error {
	st, err := s.state(stream)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	rec.Seq = st.seq.Add(1)
	line := encodeLine(s.cfg.Format, rec) + "\n"

	n, werr := st.file.WriteString(line)
	if werr != nil {
		s.Diagnostics.WriteFailures.Add(1)
		st.degraded = true
		return errs.Wrap(errs.IO, fmt.Sprintf("write to stream %s", stream), werr)
	}
	st.degraded = false
	st.size += int64(n)

	if st.size >= s.cfg.RotationBytes {
		if err := s.rotateLocked(stream, st); err != nil {
			return err
		}
	}
	return nil
}

// rotateLocked seals the active segment under st.mu and opens a fresh
// one, then runs retention over the stream's rotated segments.
func (s *Store) rotateLocked(stream string, st *streamState) error {
	if err := st.file.Close(); err != nil {
		return errs.Wrap(errs.IO, "close segment before rotation", err)
	}

	activePath := activeSegmentPath(s.dir, stream)
	now := time.Now()
	var sealedPath string
	for {
		sealedPath = filepath.Join(s.dir, rotatedSegmentName(stream, now, st.rotSeq.Add(1)))
		if _, err := os.Stat(sealedPath); os.IsNotExist(err) {
			break
		}
		// Counter collided with an already-sealed name (should not
		// happen since rotSeq only ever increases); keep drawing a
		// fresh counter value rather than risk os.Rename silently
		// overwriting a previously-sealed segment.
	}
	if err := os.Rename(activePath, sealedPath); err != nil {
		return errs.Wrap(errs.IO, "seal rotated segment", err)
	}

	f, err := os.OpenFile(activePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errs.Wrap(errs.IO, "open fresh segment", err)
	}
	st.file = f
	st.size = 0

	return s.applyRetentionLocked(stream)
}

// applyRetentionLocked deletes rotated segments older than the
// configured retention horizon.
func (s *Store) applyRetentionLocked(stream string) error {
	if s.cfg.RetentionDays < 0 {
		return nil
	}
	horizon := time.Now().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour)

	paths, err := rotatedSegments(s.dir, stream)
	if err != nil {
		return errs.Wrap(errs.IO, "list rotated segments", err)
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.ModTime().Before(horizon) {
			_ = os.Remove(p)
		}
	}
	return nil
}

// Clean runs retention immediately for stream using days in place of
// the configured retention horizon, backing `logs clean --days N`.
func (s *Store) Clean(stream string, days int) error {
	cfg := s.cfg
	cfg.RetentionDays = days
	saved := s.cfg
	s.cfg = cfg
	defer func() { s.cfg = saved }()
	return s.applyRetentionLocked(stream)
}

// allSegments returns every segment path for stream in append order:
// oldest rotated segment first, the active segment last.
func (s *Store) allSegments(stream string) ([]string, error) {
	rotated, err := rotatedSegments(s.dir, stream)
	if err != nil {
		return nil, errs.Wrap(errs.IO, "list segments", err)
	}
	return append(rotated, activeSegmentPath(s.dir, stream)), nil
}

// readAll reads every record in stream across all its segments, in
// append order, incrementing the parse-failure diagnostic for any
// unparseable line instead of failing.
func (s *Store) readAll(stream string) ([]types.LogRecord, error) {
	paths, err := s.allSegments(stream)
	if err != nil {
		return nil, err
	}

	var all []types.LogRecord
	for _, p := range paths {
		recs, skipped, err := readSegmentRecords(p)
		if err != nil {
			return nil, errs.Wrap(errs.IO, fmt.Sprintf("read segment %s", p), err)
		}
		s.Diagnostics.ParseFailures.Add(int64(skipped))
		all = append(all, recs...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Timestamp.Equal(all[j].Timestamp) {
			return all[i].Timestamp.Before(all[j].Timestamp)
		}
		return all[i].Seq < all[j].Seq
	})
	return all, nil
}

// Tail returns the last n records of stream in timestamp order (spec
// §4.3). n<=0 returns the empty sequence.
func (s *Store) Tail(stream string, n int) ([]types.LogRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	all, err := s.readAll(stream)
	if err != nil {
		return nil, err
	}
	if len(all) <= n {
		return all, nil
	}
	return all[len(all)-n:], nil
}

// SearchOptions restricts a Search call.
type SearchOptions struct {
	From   time.Time // zero means unbounded
	To     time.Time // zero means unbounded
	Levels map[types.LogLevel]bool // nil/empty means all levels
}

func (o SearchOptions) allows(rec types.LogRecord) bool {
	if !o.From.IsZero() && rec.Timestamp.Before(o.From) {
		return false
	}
	if !o.To.IsZero() && rec.Timestamp.After(o.To) {
		return false
	}
	if len(o.Levels) > 0 && !o.Levels[rec.Level] {
		return false
	}
	return true
}

// Search returns a lazy sequence of records in stream whose message
// matches pattern, restricted to opts' time range and level set (spec
// §4.3). The channel is closed when scanning completes or ctx is
// cancelled.
func (s *Store) Search(ctx context.Context, stream, pattern string, opts SearchOptions) (<-chan types.LogRecord, <-chan error) {
	out := make(chan types.LogRecord)
	errc := make(chan error, 1)

	re, err := regexp.Compile(pattern)
	if err != nil {
		close(out)
		errc <- errs.Wrap(errs.User, "invalid search pattern", err)
		close(errc)
		return out, errc
	}

	go func() {
		defer close(out)
		defer close(errc)

		all, err := s.readAll(stream)
		if err != nil {
			errc <- err
			return
		}
		for _, rec := range all {
			if !opts.allows(rec) || !re.MatchString(rec.Message) {
				continue
			}
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errc
}

// Follow delivers records appended to stream after the call began, in
// append order, until ctx is cancelled.  It polls the active
// segment; this is a restartable, lazy sequence, not a push subscription.
func (s *Store) Follow(ctx context.Context, stream string) (<-chan types.LogRecord, <-chan error) {
	out := make(chan types.LogRecord)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		path := activeSegmentPath(s.dir, stream)
		f, err := os.Open(path)
		if err != nil && !os.IsNotExist(err) {
			errc <- errs.Wrap(errs.IO, "open stream for follow", err)
			return
		}
		var reader *bufio.Reader
		if f != nil {
			defer f.Close()
			// Start at end-of-file: only new appends are delivered.
			if _, err := f.Seek(0, 2); err == nil {
				reader = bufio.NewReader(f)
			}
		}

		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if reader == nil {
					continue
				}
				for {
					line, rerr := reader.ReadString('\n')
					if line != "" {
						if rec, ok := decodeLine(line); ok {
							select {
							case out <- rec:
							case <-ctx.Done():
								return
							}
						} else {
							s.Diagnostics.ParseFailures.Add(1)
						}
					}
					if rerr != nil {
						break
					}
				}
			}
		}
	}()
	return out, errc
}

// Degraded reports whether stream's active segment has failed to write
// its most recent record; the monitor treats a degraded stream as
// Critical.
func (s *Store) Degraded(stream string) bool {
	s.mu.Lock()
	st, ok := s.streams[stream]
	s.mu.Unlock()
	if !ok {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.degraded
}

// Close closes every open active segment.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for _, st := range s.streams {
		st.mu.Lock()
		if err := st.file.Close(); err != nil && first == nil {
			first = err
		}
		st.mu.Unlock()
	}
	return first
}

// ActiveSegmentSize returns the current size of stream's active
// segment, for tests and S3's "active segment size ≤ threshold" assertion.
func (s *Store) ActiveSegmentSize(stream string) (int64, error) {
	st, err := s.state(stream)
	if err != nil {
		return 0, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.size, nil
}

// RotatedSegmentCount returns the number of sealed segments for stream.
func (s *Store) RotatedSegmentCount(stream string) (int, error) {
	paths, err := rotatedSegments(s.dir, stream)
	if err != nil {
		return 0, errs.Wrap(errs.IO, "list rotated segments", err)
	}
	return len(paths), nil
}

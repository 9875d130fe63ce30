package logstore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/docxology/nockchain/pkg/types"
)

// segmentNameRe matches rotated segment filenames:
// <stream>-YYYYmmddTHHMMSS-NNNNNNNNNN.log. The trailing counter is a
// per-stream monotonic rotation sequence, not a wall-clock value: a
// tight append loop can rotate many times within the same second, and
// the timestamp alone is not enough to keep sealed names unique.
var segmentNameRe = regexp.MustCompile(`^(.+)-(\d{8}T\d{6})-(\d+)\.log$`)

func activeSegmentPath(dir, stream string) string {
	return filepath.Join(dir, stream+".log")
}

// rotatedSegmentName renders a sealed segment's name from the sealing
// time and a per-stream rotation counter. The counter, not the
// timestamp, is what guarantees two rotations of the same stream never
// collide on the same path.
func rotatedSegmentName(stream string, at time.Time, seq uint64) string {
	return fmt.Sprintf("%s-%s-%010d.log", stream, at.UTC().Format("20060102T150405"), seq)
}

// rotatedSegments lists a stream's sealed segment paths in ascending
// (oldest-first) order, inferred from the embedded timestamp.
func rotatedSegments(dir, stream string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	type tagged struct {
		path string
		ts   string // timestamp concatenated with the zero-padded rotation counter, sortable as a plain string
	}
	var found []tagged
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := segmentNameRe.FindStringSubmatch(e.Name())
		if m == nil || m[1] != stream {
			continue
		}
		found = append(found, tagged{path: filepath.Join(dir, e.Name()), ts: m[2] + m[3]})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ts < found[j].ts })

	paths := make([]string, len(found))
	for i, f := range found {
		paths[i] = f.path
	}
	return paths, nil
}

// readSegmentRecords reads and decodes every parseable line of path in
// order, returning the count of lines that failed to parse as skipped.
func readSegmentRecords(path string) (records []types.LogRecord, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, ok := decodeLine(line)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, skipped, err
	}
	return records, skipped, nil
}

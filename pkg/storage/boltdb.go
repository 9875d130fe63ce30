package storage

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/docxology/nockchain/pkg/errs"
	"github.com/docxology/nockchain/pkg/types"
)

var (
	bucketMiningStats = []byte("mining_stats")
	bucketBenchRuns   = []byte("bench_runs")
	latestKey         = []byte("latest")
)

// BoltStore implements Store using a single bbolt file per node.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) nockit.db under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "nockit.db")

	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, errs.Wrap(errs.IO, "open bolt database", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketMiningStats, bucketBenchRuns} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errs.Wrap(errs.IO, "create bolt buckets", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying bbolt file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// RecordMiningStats appends stats under a sortable timestamp key and
// updates the "latest" pointer in the same transaction.
func (s *BoltStore) RecordMiningStats(stats types.MiningStats) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMiningStats)

		data, err := json.Marshal(stats)
		if err != nil {
			return err
		}

		key := []byte(timeKey(time.Now()))
		if err := b.Put(key, data); err != nil {
			return err
		}
		return b.Put(latestKey, data)
	})
}

// LatestMiningStats returns the snapshot last written by RecordMiningStats.
func (s *BoltStore) LatestMiningStats() (types.MiningStats, bool, error) {
	var stats types.MiningStats
	var found bool

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMiningStats)
		data := b.Get(latestKey)
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &stats)
	})
	if err != nil {
		return types.MiningStats{}, false, errs.Wrap(errs.IO, "read latest mining stats", err)
	}
	return stats, found, nil
}

// MiningStatsSince scans the sortable-key range from since to now.
func (s *BoltStore) MiningStatsSince(since time.Time) ([]types.MiningStats, error) {
	var out []types.MiningStats

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMiningStats)
		c := b.Cursor()
		min := []byte(timeKey(since))

		for k, v := c.Seek(min); k != nil; k, v = c.Next() {
			if string(k) == string(latestKey) {
				continue
			}
			var stats types.MiningStats
			if err := json.Unmarshal(v, &stats); err != nil {
				continue
			}
			out = append(out, stats)
		}
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.IO, "read mining stats history", err)
	}
	return out, nil
}

// benchRunRecord is the JSON value stored per bench_runs key.
type benchRunRecord struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	ReportPath string    `json:"report_path"`
}

// RecordBenchmarkRun indexes suite by its RunID.
func (s *BoltStore) RecordBenchmarkRun(suite types.BenchmarkSuite, reportPath string) error {
	rec := benchRunRecord{
		RunID:      suite.RunID,
		StartedAt:  suite.StartedAt,
		FinishedAt: suite.FinishedAt,
		ReportPath: reportPath,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return errs.Wrap(errs.IO, "marshal benchmark run index entry", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketBenchRuns)
		return b.Put([]byte(suite.RunID), data)
	})
}

// ListBenchmarkRuns returns every indexed run, most recent first.
func (s *BoltStore) ListBenchmarkRuns() ([]BenchmarkRunIndexEntry, error) {
	var out []BenchmarkRunIndexEntry

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketBenchRuns)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec benchRunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			out = append(out, BenchmarkRunIndexEntry{
				RunID:      rec.RunID,
				StartedAt:  rec.StartedAt,
				FinishedAt: rec.FinishedAt,
				ReportPath: rec.ReportPath,
			})
		}
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.IO, "list benchmark runs", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

// timeKey renders t as a lexicographically sortable bucket key.
func timeKey(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

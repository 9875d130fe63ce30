// Package loganalyzer implements LogAnalyzer: pure,
// deterministic summarization of a LogRecord sequence into level and
// component histograms, an error-pattern digest, and bucketed metric
// time series.
//
// Grounded on other_examples' ClusterCockpit cc-backend lineprotocol.go
// for the "classify a tagged sample, bucket it into a fixed-step
// series" shape, generalized here from InfluxDB line-protocol tags to
// free-text log message classification, and on the periodic-aggregation
// framing pkg/metrics/collector.go also uses, which MetricSeries
// buckets into.
package loganalyzer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docxology/nockchain/pkg/types"
)

// LevelHistogram counts records by level.
type LevelHistogram map[types.LogLevel]int

// ComponentHistogram counts records by inferred component tag.
type ComponentHistogram map[string]int

// ErrorPatternDigest maps a normalized error substring to its occurrence count.
type ErrorPatternDigest map[string]int

// MetricPoint is one bucketed scalar observation.
type MetricPoint struct {
	Bucket time.Time
	Value  float64
}

// MetricSeries is an ordered, bucketed time series for one recognized metric pattern.
type MetricSeries struct {
	Name   string
	Points []MetricPoint
}

// Summary is the full output of Analyze over one record sequence.
type Summary struct {
	Levels     LevelHistogram
	Components ComponentHistogram
	Errors     ErrorPatternDigest
	Series     map[string]*MetricSeries
}

// componentHints maps a message-prefix substring to the component it
// implies when the record's own Component field is empty or generic.
var componentHints = []struct {
	substr    string
	component string
}{
	{"mining-on", "mining"},
	{"mining", "mining"},
	{"block mined", "mining"},
	{"hash rate", "mining"},
	{"peer", "network"},
	{"connect", "network"},
	{"dial", "network"},
	{"bootstrap", "network"},
	{"balance", "wallet"},
	{"keypair", "wallet"},
	{"backup", "wallet"},
	{"signature", "wallet"},
	{"cpu", "system"},
	{"memory", "system"},
	{"disk", "system"},
}

// classifyComponent returns the inferred component for rec, preferring
// its own Component field when non-empty.
func classifyComponent(rec types.LogRecord) string {
	if rec.Component != "" {
		return rec.Component
	}
	lower := strings.ToLower(rec.Message)
	for _, hint := range componentHints {
		if strings.Contains(lower, hint.substr) {
			return hint.component
		}
	}
	return "other"
}

var (
	numericLiteralRe = regexp.MustCompile(`\d+(\.\d+)?`)
	timestampRe      = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?`)
)

// normalizeError strips numeric literals and timestamps from an error
// message so that recurring errors differing only in those details
// collapse to one digest key.
func normalizeError(msg string) string {
	out := timestampRe.ReplaceAllString(msg, "<ts>")
	out = numericLiteralRe.ReplaceAllString(out, "<n>")
	return strings.TrimSpace(out)
}

var metricPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"hash_rate_hps", regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*H/s`)},
	{"memory_mb", regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*MB`)},
	{"cpu_pct", regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*%`)},
}

// extractMetric returns the first recognized metric name/value pair in
// msg, if any ("hash rate X H/s", "memory XMB", "cpu X%").
func extractMetric(msg string) (name string, value float64, ok bool) {
	for _, p := range metricPatterns {
		m := p.re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return p.name, v, true
	}
	return "", 0, false
}

// bucketStart floors t to the start of its step-sized bucket.
func bucketStart(t time.Time, step time.Duration) time.Time {
	return t.Truncate(step)
}

// Analyze runs every histogram/digest/series extraction over records
// in one deterministic pass: running the same inputs always produces
// the same output. step controls MetricSeries bucket width.
func Analyze(records []types.LogRecord, step time.Duration) Summary {
	if step <= 0 {
		step = time.Minute
	}

	sum := Summary{
		Levels:     LevelHistogram{},
		Components: ComponentHistogram{},
		Errors:     ErrorPatternDigest{},
		Series:     map[string]*MetricSeries{},
	}

	for _, rec := range records {
		sum.Levels[rec.Level]++
		sum.Components[classifyComponent(rec)]++

		if rec.Level == types.LevelError {
			sum.Errors[normalizeError(rec.Message)]++
		}

		if name, value, ok := extractMetric(rec.Message); ok {
			series, exists := sum.Series[name]
			if !exists {
				series = &MetricSeries{Name: name}
				sum.Series[name] = series
			}
			bucket := bucketStart(rec.Timestamp, step)
			series.Points = appendOrMergeBucket(series.Points, bucket, value)
		}
	}

	return sum
}

// appendOrMergeBucket appends a new bucketed point, or overwrites the
// existing one sharing the same bucket with the latest value observed
// in that bucket (last-write-wins within a bucket).
func appendOrMergeBucket(points []MetricPoint, bucket time.Time, value float64) []MetricPoint {
	for i := range points {
		if points[i].Bucket.Equal(bucket) {
			points[i].Value = value
			return points
		}
	}
	points = append(points, MetricPoint{Bucket: bucket, Value: value})
	sort.Slice(points, func(i, j int) bool { return points[i].Bucket.Before(points[j].Bucket) })
	return points
}

// TopErrors returns the n most frequent normalized error patterns in
// descending count order, ties broken alphabetically for determinism.
func (d ErrorPatternDigest) TopErrors(n int) []string {
	type kv struct {
		key   string
		count int
	}
	pairs := make([]kv, 0, len(d))
	for k, v := range d {
		pairs = append(pairs, kv{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].key < pairs[j].key
	})
	if n > len(pairs) {
		n = len(pairs)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = pairs[i].key
	}
	return out
}

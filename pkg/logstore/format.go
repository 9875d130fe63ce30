package logstore

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docxology/nockchain/pkg/types"
)

// jsonLine mirrors Nockit's on-disk JSON log line shape.
type jsonLine struct {
	TS        string            `json:"ts"`
	Seq       uint64            `json:"seq"`
	Level     string            `json:"level"`
	Component string            `json:"component"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// encodeLine renders rec per format : JSON gets its own
// object-per-line encoding; pretty and compact share the
// `TIMESTAMP LEVEL [COMPONENT] MESSAGE (k=v ...)` textual grammar, with
// pretty adding column padding for readability. Both remain parseable
// by decodeLine, since whichever format is configured is what ends up
// on disk and tail/search must read it back.
func encodeLine(format types.LogFormat, rec types.LogRecord) string {
	switch format {
	case types.FormatJSON:
		jl := jsonLine{
			TS:        rec.Timestamp.Format(time.RFC3339Nano),
			Seq:       rec.Seq,
			Level:     string(rec.Level),
			Component: rec.Component,
			Message:   rec.Message,
			Fields:    rec.Fields,
		}
		data, _ := json.Marshal(jl)
		return string(data)
	case types.FormatPretty:
		return textLine(rec, true)
	default:
		return textLine(rec, false)
	}
}

func textLine(rec types.LogRecord, padded bool) string {
	level := strings.ToUpper(string(rec.Level))
	if padded {
		level = fmt.Sprintf("%-5s", level)
	}
	var b strings.Builder
	b.WriteString(rec.Timestamp.Format(time.RFC3339Nano))
	b.WriteByte(' ')
	b.WriteString(level)
	b.WriteString(" [")
	b.WriteString(rec.Component)
	b.WriteString("] ")
	b.WriteString(quoteIfNeeded(rec.Message))
	b.WriteString(fmt.Sprintf(" seq=%d", rec.Seq))

	if len(rec.Fields) > 0 {
		keys := make([]string, 0, len(rec.Fields))
		for k := range rec.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(quoteIfNeeded(rec.Fields[k]))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// quoteIfNeeded wraps a value in double quotes if it contains
// whitespace, so compact-format values round-trip unambiguously.
func quoteIfNeeded(v string) string {
	if strings.ContainsAny(v, " \t\r\n") {
		return strconv.Quote(v)
	}
	return v
}

var textLineRe = regexp.MustCompile(
	`^(?P<ts>\S+) (?P<level>\S+) \[(?P<component>[^\]]*)\] (?P<rest>.*)$`)

var trailingFieldsRe = regexp.MustCompile(`^(?P<msg>.*?)(?: seq=(?P<seq>\d+))?(?: \((?P<fields>.*)\))?$`)

// decodeLine parses one on-disk line back into a LogRecord. Lines that
// cannot be parsed return ok=false; the caller is responsible for
// counting them as skipped, never surfacing a hard error.
func decodeLine(line string) (types.LogRecord, bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return types.LogRecord{}, false
	}

	if strings.HasPrefix(line, "{") {
		var jl jsonLine
		if err := json.Unmarshal([]byte(line), &jl); err != nil {
			return types.LogRecord{}, false
		}
		ts, err := time.Parse(time.RFC3339Nano, jl.TS)
		if err != nil {
			return types.LogRecord{}, false
		}
		return types.LogRecord{
			Timestamp: ts,
			Seq:       jl.Seq,
			Level:     types.LogLevel(strings.ToLower(jl.Level)),
			Component: jl.Component,
			Message:   jl.Message,
			Fields:    jl.Fields,
		}, true
	}

	m := textLineRe.FindStringSubmatch(line)
	if m == nil {
		return types.LogRecord{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, m[1])
	if err != nil {
		return types.LogRecord{}, false
	}

	fm := trailingFieldsRe.FindStringSubmatch(m[4])
	if fm == nil {
		return types.LogRecord{}, false
	}
	msg := unquoteIfNeeded(strings.TrimSpace(fm[1]))
	var seq uint64
	if fm[2] != "" {
		seq, _ = strconv.ParseUint(fm[2], 10, 64)
	}
	fields := parseFields(fm[3])

	return types.LogRecord{
		Timestamp: ts,
		Seq:       seq,
		Level:     types.LogLevel(strings.ToLower(strings.TrimSpace(m[2]))),
		Component: m[3],
		Message:   msg,
		Fields:    fields,
	}, true
}

func unquoteIfNeeded(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		if unquoted, err := strconv.Unquote(v); err == nil {
			return unquoted
		}
	}
	return v
}

func parseFields(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	fields := map[string]string{}
	for _, tok := range splitFieldTokens(raw) {
		eq := strings.IndexByte(tok, '=')
		if eq < 0 {
			continue
		}
		key := tok[:eq]
		val := unquoteIfNeeded(tok[eq+1:])
		fields[key] = val
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// splitFieldTokens splits "k=v k2=\"v 2\"" into ["k=v", `k2="v 2"`]
// respecting double-quoted values that may contain spaces.
func splitFieldTokens(raw string) []string {
	var tokens []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch c {
		case '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case ' ':
			if inQuotes {
				cur.WriteByte(c)
			} else if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

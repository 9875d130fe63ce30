// Package monitor implements MonitorLoop: a cooperative
// ticking driver that samples SystemProbe + ProcessSupervisor +
// HealthAggregator once per interval, appends the resulting
// HealthReport to the "monitor" LogStore stream, and hands it to a
// Renderer. Renderers range from a one-shot JSON dump to an
// interactive bubbletea dashboard.
//
// Grounded on pkg/metrics/collector.go's ticker+stopCh
// loop, generalized from periodic cluster-metric collection to a
// single-host health tick.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/docxology/nockchain/pkg/health"
	"github.com/docxology/nockchain/pkg/logstore"
	"github.com/docxology/nockchain/pkg/netprobe"
	"github.com/docxology/nockchain/pkg/supervisor"
	"github.com/docxology/nockchain/pkg/sysprobe"
	"github.com/docxology/nockchain/pkg/types"
)

// Stream is the LogStore stream MonitorLoop appends every HealthReport to.
const Stream = "monitor"

// ringSize bounds the in-memory sample history the tui renderer keeps
// for its CPU/memory sparklines.
const ringSize = 300

// Sampler gathers the inputs one tick needs. Loop owns the concrete
// probes; Sampler lets tests substitute canned values.
type Sampler interface {
	Sample(ctx context.Context) types.SystemSample
	State(stream string) supervisor.Snapshot
	PeerCount() uint64
	ErrorsLastHour() uint64
}

// liveSampler wires the real probes together for production use.
type liveSampler struct {
	sys        *sysprobe.Probe
	sup        *supervisor.Supervisor
	net        *netprobe.Probe
	logs       *logstore.Store
	nodeStream string
}

// NewLiveSampler builds a Sampler backed by the real SystemProbe,
// ProcessSupervisor, NetworkProbe and LogStore. nodeStream is the
// supervisor stream name the monitored node runs under (e.g. "node").
func NewLiveSampler(sys *sysprobe.Probe, sup *supervisor.Supervisor, net *netprobe.Probe, logs *logstore.Store, nodeStream string) Sampler {
	return &liveSampler{sys: sys, sup: sup, net: net, logs: logs, nodeStream: nodeStream}
}

func (l *liveSampler) Sample(ctx context.Context) types.SystemSample { return l.sys.Sample(ctx) }
func (l *liveSampler) State(stream string) supervisor.Snapshot       { return l.sup.State(stream) }

func (l *liveSampler) PeerCount() uint64 {
	live := 0
	for _, p := range l.net.Peers() {
		if p.Valid {
			live++
		}
	}
	return uint64(live)
}

func (l *liveSampler) ErrorsLastHour() uint64 {
	recs, err := l.logs.Tail(l.nodeStream, 10000)
	if err != nil {
		return 0
	}
	cutoff := time.Now().Add(-time.Hour)
	var n uint64
	for _, r := range recs {
		if r.Level == types.LevelError && r.Timestamp.After(cutoff) {
			n++
		}
	}
	return n
}

// Renderer consumes one HealthReport per tick. table/json/compact are
// stateless; the tui renderer keeps its own ring buffers and can ask
// the loop to stop via Done().
type Renderer interface {
	Render(report types.HealthReport) error
	Done() <-chan struct{}
	Close() error
}

// Loop drives Sampler + health.Aggregator once per Interval, appending
// every HealthReport to the LogStore "monitor" stream and forwarding
// it to Renderer, until ctx is cancelled or Renderer requests shutdown.
type Loop struct {
	Sampler       Sampler
	Aggregator    *health.Aggregator
	Logs          *logstore.Store
	NodeStream    string
	Interval      time.Duration
	ExpectRunning bool
}

// Run ticks every Interval (default 2s), producing one HealthReport per
// tick, until ctx is done or renderer signals it is finished (spec
// §4.8: "q" in the tui renderer requests shutdown within one tick).
func (l *Loop) Run(ctx context.Context, renderer Renderer) error {
	interval := l.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := l.tick(ctx, renderer); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-renderer.Done():
			return nil
		case <-ticker.C:
			if err := l.tick(ctx, renderer); err != nil {
				return err
			}
		}
	}
}

// Collect runs a single tick and renders it once, for the non-live
// "monitor --once" mode.
func (l *Loop) Collect(ctx context.Context, renderer Renderer) error {
	return l.tick(ctx, renderer)
}

func (l *Loop) tick(ctx context.Context, renderer Renderer) error {
	sample := l.Sampler.Sample(ctx)
	snap := l.Sampler.State(l.NodeStream)
	report := l.Aggregator.Classify(sample, snap, l.Sampler.PeerCount(), l.Sampler.ErrorsLastHour())

	if l.Logs != nil {
		_ = l.Logs.Append(Stream, types.LogRecord{
			Timestamp: report.Timestamp,
			Level:     overallToLevel(report.Overall),
			Component: "monitor",
			Message:   fmt.Sprintf("health=%s running=%v peers=%d", report.Overall, report.Nockchain.Running, report.Nockchain.PeerCount),
		})
	}

	return renderer.Render(report)
}

func overallToLevel(status types.NodeStatus) types.LogLevel {
	switch status {
	case types.NodeCritical:
		return types.LevelError
	case types.NodeWarning:
		return types.LevelWarn
	case types.NodeUnknown:
		return types.LevelWarn
	default:
		return types.LevelInfo
	}
}

// noopDone is shared by renderers that never request shutdown on their
// own (table/json/compact); only the tui renderer's "q" key closes it.
var closedNever = make(chan struct{})

// JSONRenderer writes one JSON object per tick to w.
type JSONRenderer struct {
	W io.Writer
}

func (r *JSONRenderer) Render(report types.HealthReport) error {
	enc := json.NewEncoder(r.W)
	return enc.Encode(report)
}
func (r *JSONRenderer) Done() <-chan struct{} { return closedNever }
func (r *JSONRenderer) Close() error          { return nil }

// CompactRenderer writes one short human-readable line per tick.
type CompactRenderer struct {
	W io.Writer
}

func (r *CompactRenderer) Render(report types.HealthReport) error {
	_, err := fmt.Fprintf(r.W, "[%s] overall=%s running=%v peers=%d cpu=%.1f%% mem=%.1f%% disk=%.1f%%\n",
		report.Timestamp.Format(time.RFC3339), report.Overall, report.Nockchain.Running,
		report.Nockchain.PeerCount, report.System.CPUPercent, report.System.MemoryPercent, report.System.DiskPercent)
	return err
}
func (r *CompactRenderer) Done() <-chan struct{} { return closedNever }
func (r *CompactRenderer) Close() error           { return nil }

// TableRenderer redraws a two-column key/value table per tick using
// tablewriter, the way a one-shot "nockit monitor --once --format table"
// invocation presents a report.
type TableRenderer struct {
	W io.Writer
}

func (r *TableRenderer) Render(report types.HealthReport) error {
	table := tablewriter.NewWriter(r.W)
	table.SetHeader([]string{"Field", "Value"})
	rows := [][]string{
		{"Timestamp", report.Timestamp.Format(time.RFC3339)},
		{"Overall", string(report.Overall)},
		{"Running", fmt.Sprintf("%v", report.Nockchain.Running)},
		{"Peers", fmt.Sprintf("%d", report.Nockchain.PeerCount)},
		{"Errors (1h)", fmt.Sprintf("%d", report.Nockchain.ErrorsLastHour)},
		{"CPU %", fmt.Sprintf("%.1f", report.System.CPUPercent)},
		{"Memory %", fmt.Sprintf("%.1f", report.System.MemoryPercent)},
		{"Disk %", fmt.Sprintf("%.1f", report.System.DiskPercent)},
	}
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	return nil
}
func (r *TableRenderer) Done() <-chan struct{} { return closedNever }
func (r *TableRenderer) Close() error           { return nil }

// ring is a fixed-capacity FIFO of float64 samples used by the tui
// renderer for its sparklines, bounded to 300 samples.
type ring struct {
	buf []float64
}

func (r *ring) push(v float64) {
	r.buf = append(r.buf, v)
	if len(r.buf) > ringSize {
		r.buf = r.buf[len(r.buf)-ringSize:]
	}
}

func (r *ring) sparkline() string {
	if len(r.buf) == 0 {
		return ""
	}
	ramp := []rune("▁▂▃▄▅▆▇█")
	var b strings.Builder
	for _, v := range r.buf {
		idx := int(v / 100 * float64(len(ramp)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(ramp) {
			idx = len(ramp) - 1
		}
		b.WriteRune(ramp[idx])
	}
	return b.String()
}

// tuiStyle uses lipgloss rather than raw ANSI escapes wherever
// terminal styling is needed.
var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	critStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// tuiModel is the bubbletea model backing the interactive dashboard.
// It owns its own ring buffers rather than replaying LogStore, so it
// stays responsive even if the log stream is degraded.
type tuiModel struct {
	cpu    ring
	mem    ring
	latest types.HealthReport
	logTail []string
	quit   bool
}

func newTUIModel() *tuiModel { return &tuiModel{} }

func (m *tuiModel) Init() tea.Cmd { return nil }

// reportMsg carries one tick's HealthReport into the bubbletea Update loop.
type reportMsg types.HealthReport

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quit = true
			return m, tea.Quit
		}
	case reportMsg:
		report := types.HealthReport(msg)
		m.latest = report
		m.cpu.push(report.System.CPUPercent)
		m.mem.push(report.System.MemoryPercent)
		line := fmt.Sprintf("%s overall=%s", report.Timestamp.Format("15:04:05"), report.Overall)
		m.logTail = append(m.logTail, line)
		if len(m.logTail) > 20 {
			m.logTail = m.logTail[len(m.logTail)-20:]
		}
	}
	return m, nil
}

func (m *tuiModel) View() string {
	if m.quit {
		return ""
	}
	statusStyle := okStyle
	switch m.latest.Overall {
	case types.NodeWarning:
		statusStyle = warnStyle
	case types.NodeCritical, types.NodeUnknown:
		statusStyle = critStyle
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("nockit monitor") + "\n\n")
	b.WriteString(fmt.Sprintf("status: %s    peers: %d    errors/h: %d\n",
		statusStyle.Render(string(m.latest.Overall)), m.latest.Nockchain.PeerCount, m.latest.Nockchain.ErrorsLastHour))
	b.WriteString(fmt.Sprintf("cpu %5.1f%% %s\n", m.latest.System.CPUPercent, m.cpu.sparkline()))
	b.WriteString(fmt.Sprintf("mem %5.1f%% %s\n", m.latest.System.MemoryPercent, m.mem.sparkline()))
	b.WriteString("\nrecent:\n")
	for _, line := range m.logTail {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\npress q to quit\n")
	return b.String()
}

// TUIRenderer drives an interactive bubbletea program. Render feeds
// each tick's report into the running program; Done closes once the
// user presses q (or ctrl+c), letting Loop.Run stop within one tick.
type TUIRenderer struct {
	program *tea.Program
	done    chan struct{}
}

// NewTUIRenderer starts the bubbletea program against stdin/stdout.
func NewTUIRenderer() *TUIRenderer {
	model := newTUIModel()
	program := tea.NewProgram(model)
	r := &TUIRenderer{program: program, done: make(chan struct{})}

	go func() {
		_, _ = program.Run()
		close(r.done)
	}()
	return r
}

func (r *TUIRenderer) Render(report types.HealthReport) error {
	r.program.Send(reportMsg(report))
	return nil
}
func (r *TUIRenderer) Done() <-chan struct{} { return r.done }
func (r *TUIRenderer) Close() error {
	r.program.Quit()
	return nil
}

// Package render prints conference progress to a terminal.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/bazelment/yoloswe/namecouncil/conference"
	"github.com/bazelment/yoloswe/namecouncil/phase"
	"github.com/bazelment/yoloswe/namecouncil/report"
	"github.com/bazelment/yoloswe/namecouncil/stream"
)

const defaultWidth = 80

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#6C7A89")
)

type styles struct {
	label   lipgloss.Style
	muted   lipgloss.Style
	banner  lipgloss.Style
	notice  lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	banner := r.NewStyle().
		Border(lipgloss.DoubleBorder(), true, false).
		BorderForeground(colorAccent).
		Bold(true)
	return styles{
		label:   r.NewStyle().Bold(true).Foreground(colorAccent),
		muted:   r.NewStyle().Foreground(colorMuted),
		banner:  banner,
		notice:  r.NewStyle().Foreground(colorAccent),
		warning: r.NewStyle().Foreground(colorWarning),
		failure: r.NewStyle().Bold(true).Foreground(colorError),
	}
}

// Renderer shows conference output. It implements conference.Presenter.
type Renderer struct {
	out       io.Writer
	markdown  *MarkdownRenderer
	styles    styles
	totalCost float64
	width     int
	mu        sync.Mutex
	noColor   bool
}

var _ conference.Presenter = (*Renderer)(nil)

// NewRenderer creates a renderer writing to out. Colors and markdown
// styling are disabled when noColor is set or out is not a terminal.
func NewRenderer(out io.Writer, noColor bool, glamourStyle string) *Renderer {
	width := defaultWidth
	if fd, ok := terminalFd(out); ok {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	} else {
		noColor = true
	}

	lr := lipgloss.NewRenderer(out)
	r := &Renderer{out: out, width: width, noColor: noColor}
	if noColor {
		r.styles = plainStyles()
	} else {
		r.styles = newStyles(lr)
		if md, err := NewMarkdownRenderer(width, glamourStyle); err == nil {
			r.markdown = md
		}
	}
	return r
}

func plainStyles() styles {
	plain := lipgloss.NewStyle()
	return styles{label: plain, muted: plain, banner: plain, notice: plain, warning: plain, failure: plain}
}

// terminalFd returns the descriptor of out if it is a terminal.
func terminalFd(out io.Writer) (int, bool) {
	f, ok := out.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// Welcome prints the opening lines.
func (r *Renderer) Welcome() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, r.styles.label.Render("--- 欢迎来到全能专家取名研讨会 ---"))
	fmt.Fprintln(r.out, "我们需要一些基本信息来启动会议。")
}

// ConferenceStarted announces the first round.
func (r *Renderer) ConferenceStarted() {
	r.status("--- 会议开始，专家们正在激烈讨论中 (这可能需要几分钟) ---")
}

// FollowUpStarted announces a follow-up round.
func (r *Renderer) FollowUpStarted() {
	r.status("--- 专家们正在根据您的反馈调整 ---")
}

// Error prints a fatal error.
func (r *Renderer) Error(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, r.styles.failure.Render("发生错误: "+err.Error()))
}

// Text prints one chunk of agent text.
func (r *Renderer) Text(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "\n%s %s\n", r.styles.label.Render("[回复]:"), text)
}

// PhaseComplete prints the banner for a completed stage.
func (r *Renderer) PhaseComplete(p phase.Phase) {
	var msg string
	switch p {
	case phase.Nomination:
		msg = "📋 提名阶段完成，进入质询阶段..."
	case phase.Critique:
		msg = "🗳️ 质询阶段完成，进入决选阶段..."
	case phase.FinalSelection:
		msg = "🏆 决选完成，生成最终报告..."
	default:
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.noColor {
		rule := strings.Repeat("=", 50)
		fmt.Fprintf(r.out, "\n%s\n%s\n%s\n", rule, msg, rule)
		return
	}
	fmt.Fprintln(r.out, "\n"+r.styles.banner.Width(min(r.width, 50)).Render(msg))
}

// Metrics prints turn duration and cost.
func (r *Renderer) Metrics(m stream.Metrics) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "\n"+r.styles.muted.Render(fmt.Sprintf("[System] 本轮耗时: %dms", m.DurationMs)))
	if m.CostUSD != nil && *m.CostUSD > 0 {
		r.totalCost += *m.CostUSD
		fmt.Fprintln(r.out, r.styles.muted.Render(
			fmt.Sprintf("[System] 本轮成本: $%.4f (累计: $%.4f)", *m.CostUSD, r.totalCost)))
	}
}

// TotalCost returns the cost accumulated over all turns shown so far.
func (r *Renderer) TotalCost() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalCost
}

// Report prints the final report.
func (r *Renderer) Report(rep *report.FinalReport) {
	md := ReportMarkdown(rep)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markdown != nil {
		if out, err := r.markdown.Render(md); err == nil {
			fmt.Fprint(r.out, out)
			return
		}
	}
	fmt.Fprintln(r.out, "\n"+md)
}

// Retry announces an automatic retry.
func (r *Renderer) Retry(stalled phase.Phase, attempt, maxRetries int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "\n"+r.styles.warning.Render(
		fmt.Sprintf("⚠️ 流程未完成（停在%s阶段），自动重试 (%d/%d)...", stalled.Label(), attempt, maxRetries)))
	fmt.Fprintln(r.out, strings.Repeat("-", 40))
}

// NominationAccepted echoes the user's names.
func (r *Renderer) NominationAccepted(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "\n"+r.styles.notice.Render("✅ 已收到您的提名："+strings.Join(names, ", ")))
	fmt.Fprintln(r.out, "--- 专家们将把这些名字纳入质询评分 ---")
}

// NominationSkipped notes that the user added no names.
func (r *Renderer) NominationSkipped() {
	r.status("--- 跳过用户提名，继续进行质询阶段 ---")
}

// Warning prints the end-of-round warning for an incomplete conference.
func (r *Renderer) Warning(w *conference.IncompletePhaseWarning) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "\n"+r.styles.failure.Render(fmt.Sprintf(
		"❌ 警告：流程经过 %d 次重试后仍未完成（停在%s阶段），请检查主持人 prompt 或手动继续。",
		w.Retries, w.Stalled.Label())))
}

// Detail prints supporting output for the previous error, such as the
// tail of the CLI's stderr.
func (r *Renderer) Detail(title, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, r.styles.muted.Render(title))
	fmt.Fprintln(r.out, strings.TrimRight(text, "\n"))
}

// Goodbye prints the closing line with the session's total cost.
func (r *Renderer) Goodbye() {
	r.status(fmt.Sprintf("--- 会议结束，祝宝宝健康成长！(总成本: $%.4f) ---", r.TotalCost()))
}

func (r *Renderer) status(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "\n%s\n\n", r.styles.muted.Render(msg))
}

package conference

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bazelment/yoloswe/namecouncil/phase"
	"github.com/bazelment/yoloswe/namecouncil/report"
	"github.com/bazelment/yoloswe/namecouncil/stream"
)

// scriptedSource replays a fixed list of events, then err (io.EOF if nil).
type scriptedSource struct {
	err    error
	events []stream.Event
	read   int
}

func (s *scriptedSource) Next(ctx context.Context) (stream.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.read < len(s.events) {
		e := s.events[s.read]
		s.read++
		return e, nil
	}
	if s.err != nil {
		return nil, s.err
	}
	return nil, io.EOF
}

// blockingSource never produces an event.
type blockingSource struct{}

func (blockingSource) Next(ctx context.Context) (stream.Event, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// scriptedConn answers the n-th query with turns[n]; extra queries get an
// empty turn.
type scriptedConn struct {
	queryErr error
	turns    [][]stream.Event
	prompts  []string
	sources  []*scriptedSource
}

func (c *scriptedConn) Query(ctx context.Context, prompt string) (stream.Source, error) {
	c.prompts = append(c.prompts, prompt)
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	var events []stream.Event
	if i := len(c.prompts) - 1; i < len(c.turns) {
		events = c.turns[i]
	}
	src := &scriptedSource{events: events}
	c.sources = append(c.sources, src)
	return src, nil
}

// recordingPresenter logs every call as a short string.
type recordingPresenter struct {
	calls    []string
	reports  []*report.FinalReport
	warnings []*IncompletePhaseWarning
}

func (p *recordingPresenter) Text(text string) { p.calls = append(p.calls, "text:"+text) }
func (p *recordingPresenter) PhaseComplete(ph phase.Phase) {
	p.calls = append(p.calls, "phase:"+ph.String())
}
func (p *recordingPresenter) Metrics(m stream.Metrics) {
	p.calls = append(p.calls, fmt.Sprintf("metrics:%d", m.DurationMs))
}
func (p *recordingPresenter) Report(r *report.FinalReport) {
	p.calls = append(p.calls, "report")
	p.reports = append(p.reports, r)
}
func (p *recordingPresenter) Retry(stalled phase.Phase, attempt, maxRetries int) {
	p.calls = append(p.calls, fmt.Sprintf("retry:%s:%d/%d", stalled, attempt, maxRetries))
}
func (p *recordingPresenter) NominationAccepted(names []string) {
	p.calls = append(p.calls, "nominated:"+strings.Join(names, "|"))
}
func (p *recordingPresenter) NominationSkipped() { p.calls = append(p.calls, "nomination-skipped") }
func (p *recordingPresenter) Warning(w *IncompletePhaseWarning) {
	p.calls = append(p.calls, "warning")
	p.warnings = append(p.warnings, w)
}

func (p *recordingPresenter) phases() []string {
	var out []string
	for _, c := range p.calls {
		if strings.HasPrefix(c, "phase:") {
			out = append(out, strings.TrimPrefix(c, "phase:"))
		}
	}
	return out
}

type nominatorFunc func(ctx context.Context) (string, error)

func (f nominatorFunc) Nominations(ctx context.Context) (string, error) { return f(ctx) }

func staticNominator(answer string, calls *int) Nominator {
	return nominatorFunc(func(context.Context) (string, error) {
		*calls++
		return answer, nil
	})
}

func text(s string) stream.Event { return stream.Text{Text: s} }

func marker(p phase.Phase) stream.Event { return text("本阶段完成。" + p.Marker()) }

func validPayload(t *testing.T) stream.Event {
	t.Helper()
	r := report.FinalReport{
		RankedNames: []report.ScoredName{{
			NameInfo: report.NameProposal{
				Name:     "李沐阳",
				Pinyin:   "Lǐ Mù Yáng",
				Meaning:  "沐浴阳光",
				Proposer: "诗词专家",
			},
			Critiques: []report.Critique{
				{CriticRole: "语言学家", Comment: "音韵响亮", Score: 9},
				{CriticRole: "命理师", Comment: "五行相宜", Score: 8},
			},
			TotalScore:   17,
			AverageScore: 8.5,
		}},
		Summary: "会议总结",
	}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	return stream.Structured{Payload: b}
}

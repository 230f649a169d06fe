package conference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazelment/yoloswe/namecouncil/phase"
	"github.com/bazelment/yoloswe/namecouncil/report"
	"github.com/bazelment/yoloswe/namecouncil/stream"
)

func newTestProcessor(p Presenter, timeout time.Duration) (*Processor, *Metrics) {
	m := NewMetrics(prometheus.NewRegistry())
	return NewProcessor(p, nil, m, timeout), m
}

func TestProcess_EarlyStop(t *testing.T) {
	pres := &recordingPresenter{}
	proc, _ := newTestProcessor(pres, 0)
	src := &scriptedSource{events: []stream.Event{marker(phase.Nomination), marker(phase.Critique)}}
	state := NewSessionState(2)

	got, err := proc.Process(context.Background(), src, state, phase.Nomination)
	require.NoError(t, err)
	assert.Equal(t, phase.Nomination, got)
	assert.Equal(t, phase.Nomination, state.Phase)
	assert.Equal(t, 1, src.read, "second event must stay unread")
	assert.Equal(t, []string{"nomination"}, pres.phases())
}

func TestProcess_RunsToEndOfTurn(t *testing.T) {
	pres := &recordingPresenter{}
	proc, m := newTestProcessor(pres, 0)
	src := &scriptedSource{events: []stream.Event{
		text("开始"),
		marker(phase.Nomination),
		marker(phase.Critique),
		stream.Metrics{DurationMs: 1500},
	}}
	state := NewSessionState(2)

	got, err := proc.Process(context.Background(), src, state, phase.None)
	require.NoError(t, err)
	assert.Equal(t, phase.Critique, got)
	assert.Equal(t, phase.Critique, state.Phase)
	assert.Equal(t, []string{"nomination", "critique"}, pres.phases())
	assert.Contains(t, pres.calls, "metrics:1500")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.phases.WithLabelValues("critique")))
}

func TestProcess_NoMarkers(t *testing.T) {
	proc, _ := newTestProcessor(nil, 0)
	got, err := proc.Process(context.Background(), &scriptedSource{events: []stream.Event{text("讨论中")}}, NewSessionState(2), phase.None)
	require.NoError(t, err)
	assert.Equal(t, phase.None, got)
}

func TestProcess_PhaseNeverDecreases(t *testing.T) {
	pres := &recordingPresenter{}
	proc, _ := newTestProcessor(pres, 0)
	src := &scriptedSource{events: []stream.Event{marker(phase.Critique), marker(phase.Nomination)}}
	state := NewSessionState(2)

	got, err := proc.Process(context.Background(), src, state, phase.None)
	require.NoError(t, err)
	assert.Equal(t, phase.Critique, got)
	assert.Equal(t, phase.Critique, state.Phase)
	assert.Equal(t, []string{"critique"}, pres.phases())
}

func TestProcess_RepeatedMarkerIsNoop(t *testing.T) {
	pres := &recordingPresenter{}
	proc, _ := newTestProcessor(pres, 0)
	state := NewSessionState(2)
	state.Phase = phase.Nomination

	got, err := proc.Process(context.Background(), &scriptedSource{events: []stream.Event{marker(phase.Nomination)}}, state, phase.Nomination)
	require.NoError(t, err)
	assert.Equal(t, phase.Nomination, got)
	assert.Empty(t, pres.phases(), "no banner for an already reached phase")
}

func TestProcess_HighestMarkerInChunk(t *testing.T) {
	proc, _ := newTestProcessor(nil, 0)
	state := NewSessionState(2)
	src := &scriptedSource{events: []stream.Event{
		text(phase.MarkerNomination + " ... " + phase.MarkerCritique),
		marker(phase.FinalSelection),
	}}

	// The jump past Nomination does not trigger the Nomination stop.
	got, err := proc.Process(context.Background(), src, state, phase.Nomination)
	require.NoError(t, err)
	assert.Equal(t, phase.FinalSelection, got)
	assert.Equal(t, 2, src.read)
}

func TestProcess_ValidReport(t *testing.T) {
	pres := &recordingPresenter{}
	proc, m := newTestProcessor(pres, 0)
	state := NewSessionState(2)
	src := &scriptedSource{events: []stream.Event{marker(phase.FinalSelection), validPayload(t)}}

	_, err := proc.Process(context.Background(), src, state, phase.None)
	require.NoError(t, err)
	require.NotNil(t, state.Report)
	require.Len(t, pres.reports, 1)
	assert.Same(t, state.Report, pres.reports[0])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reports.WithLabelValues("valid")))
}

func TestProcess_MalformedReportPropagates(t *testing.T) {
	pres := &recordingPresenter{}
	proc, m := newTestProcessor(pres, 0)
	payload := `{"ranked_names":[{"name_info":{"name":"a","pinyin":"a","meaning":"a","proposer":"a"},` +
		`"critiques":[{"critic_role":"x","comment":"y","score":11}],"total_score":11,"average_score":11}],"summary":"s"}`
	src := &scriptedSource{events: []stream.Event{
		stream.Structured{Payload: []byte(payload)},
		text("after"),
	}}
	state := NewSessionState(2)

	_, err := proc.Process(context.Background(), src, state, phase.None)
	var sve *report.SchemaValidationError
	require.ErrorAs(t, err, &sve)
	assert.Nil(t, state.Report)
	assert.Empty(t, pres.reports)
	assert.Equal(t, 1, src.read, "processing stops at the invalid payload")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reports.WithLabelValues("invalid")))
}

func TestProcess_TransportError(t *testing.T) {
	cause := errors.New("pipe closed")
	proc, _ := newTestProcessor(nil, 0)
	src := &scriptedSource{events: []stream.Event{marker(phase.Nomination)}, err: cause}

	got, err := proc.Process(context.Background(), src, NewSessionState(2), phase.None)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "receive", te.Op)
	assert.Equal(t, phase.Nomination, got)
}

func TestProcess_IdleTimeout(t *testing.T) {
	proc, _ := newTestProcessor(nil, 20*time.Millisecond)

	_, err := proc.Process(context.Background(), blockingSource{}, NewSessionState(2), phase.None)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, ErrIdleTimeout)
}

func TestProcess_CancelledContext(t *testing.T) {
	proc, _ := newTestProcessor(nil, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := proc.Process(ctx, blockingSource{}, NewSessionState(2), phase.None)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrIdleTimeout)
}

func TestSessionState_Advance(t *testing.T) {
	s := NewSessionState(-1)
	assert.Equal(t, 0, s.MaxRetries)
	assert.True(t, s.Advance(phase.Critique))
	assert.False(t, s.Advance(phase.Critique))
	assert.False(t, s.Advance(phase.Nomination))
	assert.Equal(t, phase.Critique, s.Phase)
	assert.False(t, s.Complete())
	assert.True(t, s.Advance(phase.FinalSelection))
	assert.True(t, s.Complete())
}

package conference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazelment/yoloswe/namecouncil/phase"
	"github.com/bazelment/yoloswe/namecouncil/report"
	"github.com/bazelment/yoloswe/namecouncil/stream"
)

func newTestConference(t *testing.T, conn Connection, pres Presenter, nom Nominator, maxRetries int) (*Conference, *Metrics) {
	t.Helper()
	m := NewMetrics(prometheus.NewRegistry())
	c, err := New(Config{
		Conn:       conn,
		Presenter:  pres,
		Nominator:  nom,
		Metrics:    m,
		MaxRetries: maxRetries,
	})
	require.NoError(t, err)
	return c, m
}

func TestNew_RequiresConnection(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestStart_WithNomination(t *testing.T) {
	conn := &scriptedConn{turns: [][]stream.Event{
		{text("专家提名……"), marker(phase.Nomination), marker(phase.Critique)},
		{marker(phase.Critique), marker(phase.FinalSelection), stream.Metrics{DurationMs: 10}, validPayload(t)},
	}}
	pres := &recordingPresenter{}
	calls := 0
	c, m := newTestConference(t, conn, pres, staticNominator("张三, 李四，王五", &calls), 2)

	res, err := c.Start(context.Background(), Request{FamilyName: "李", Gender: "男孩"})
	require.NoError(t, err)

	assert.True(t, res.Complete)
	assert.Nil(t, res.Warning)
	assert.Equal(t, phase.FinalSelection, res.Phase)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 0, res.Retries)
	require.NotNil(t, res.Report)
	assert.Equal(t, "李沐阳", res.Report.RankedNames[0].NameInfo.Name)
	assert.NotEmpty(t, res.ID)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, conn.sources[0].read, "turn abandoned right after the nomination marker")
	require.Len(t, conn.prompts, 2)
	assert.Contains(t, conn.prompts[0], "姓氏：李")
	assert.Equal(t, NominationPrompt([]string{"张三", "李四", "王五"}, phase.Critique), conn.prompts[1])
	assert.Contains(t, pres.calls, "nominated:张三|李四|王五")
	assert.Equal(t, []string{"nomination", "critique", "final_selection"}, pres.phases())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("nomination")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rounds.WithLabelValues("complete")))
}

func TestStart_EmptyNominationSkips(t *testing.T) {
	for _, answer := range []string{"", "   ", " , ，"} {
		t.Run(fmt.Sprintf("%q", answer), func(t *testing.T) {
			conn := &scriptedConn{turns: [][]stream.Event{
				{marker(phase.Nomination)},
				{marker(phase.Critique), marker(phase.FinalSelection)},
			}}
			pres := &recordingPresenter{}
			calls := 0
			c, _ := newTestConference(t, conn, pres, staticNominator(answer, &calls), 2)

			res, err := c.Start(context.Background(), Request{})
			require.NoError(t, err)
			assert.True(t, res.Complete)
			require.Len(t, conn.prompts, 2)
			assert.Equal(t, SkipNominationPrompt(), conn.prompts[1])
			assert.Contains(t, pres.calls, "nomination-skipped")
		})
	}
}

func TestRunRound_AttemptsBounded(t *testing.T) {
	for maxRetries := 0; maxRetries <= 3; maxRetries++ {
		t.Run(fmt.Sprintf("max_retries=%d", maxRetries), func(t *testing.T) {
			conn := &scriptedConn{}
			pres := &recordingPresenter{}
			c, m := newTestConference(t, conn, pres, nil, maxRetries)

			res, err := c.RunRound(context.Background(), "开始", true)
			require.NoError(t, err)

			assert.False(t, res.Complete)
			assert.Equal(t, maxRetries+1, res.Attempts)
			assert.Len(t, conn.prompts, maxRetries+1)
			assert.Equal(t, maxRetries, res.Retries)
			for _, p := range conn.prompts[1:] {
				assert.Equal(t, ContinuePrompt(), p)
			}

			require.Len(t, pres.warnings, 1)
			assert.Equal(t, phase.None, pres.warnings[0].Stalled)
			assert.Same(t, pres.warnings[0], res.Warning)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.rounds.WithLabelValues("incomplete")))
		})
	}
}

func TestRunRound_RetryNoticeNamesStalledPhase(t *testing.T) {
	conn := &scriptedConn{turns: [][]stream.Event{
		{marker(phase.Nomination), marker(phase.Critique)},
		{text("继续……")},
		{marker(phase.FinalSelection)},
	}}
	pres := &recordingPresenter{}
	c, _ := newTestConference(t, conn, pres, nil, 2)

	res, err := c.RunRound(context.Background(), "开始", false)
	require.NoError(t, err)
	assert.True(t, res.Complete)
	assert.Equal(t, 2, res.Retries)
	assert.Equal(t, 3, res.Attempts)
	assert.Contains(t, pres.calls, "retry:critique:1/2")
	assert.Contains(t, pres.calls, "retry:critique:2/2")
	assert.Empty(t, pres.warnings)
}

func TestRunRound_NominationOnlyInFirstRound(t *testing.T) {
	conn := &scriptedConn{turns: [][]stream.Event{
		{marker(phase.Nomination), marker(phase.Critique), marker(phase.FinalSelection)},
		{marker(phase.Nomination), marker(phase.Critique), marker(phase.FinalSelection)},
	}}
	calls := 0
	c, _ := newTestConference(t, conn, nil, staticNominator("张三", &calls), 2)

	// First round is a follow-up style round: nomination not permitted.
	res, err := c.FollowUp(context.Background(), "换一批")
	require.NoError(t, err)
	assert.True(t, res.Complete)

	// A later round never opens the window even if permitted.
	res, err = c.RunRound(context.Background(), "再来", true)
	require.NoError(t, err)
	assert.True(t, res.Complete)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 3, conn.sources[1].read)
}

func TestRunRound_QueryErrorIsTransportError(t *testing.T) {
	cause := errors.New("broken pipe")
	conn := &scriptedConn{queryErr: cause}
	c, m := newTestConference(t, conn, nil, nil, 2)

	res, err := c.RunRound(context.Background(), "开始", false)
	assert.Nil(t, res)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "query", te.Op)
	assert.ErrorIs(t, err, cause)
	assert.Len(t, conn.prompts, 1, "no retry after a transport error")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rounds.WithLabelValues("error")))
}

func TestRunRound_SchemaErrorPropagates(t *testing.T) {
	conn := &scriptedConn{turns: [][]stream.Event{
		{marker(phase.FinalSelection), stream.Structured{Payload: []byte(`{"summary":"缺少排名"}`)}},
	}}
	c, _ := newTestConference(t, conn, nil, nil, 2)

	_, err := c.RunRound(context.Background(), "开始", false)
	var sve *report.SchemaValidationError
	require.ErrorAs(t, err, &sve)
	assert.True(t, strings.Contains(sve.Error(), "ranked_names"))
	assert.Len(t, conn.prompts, 1)
}

func TestRunRound_NominatorErrorPropagates(t *testing.T) {
	conn := &scriptedConn{turns: [][]stream.Event{{marker(phase.Nomination)}}}
	nom := nominatorFunc(func(context.Context) (string, error) { return "", context.Canceled })
	c, _ := newTestConference(t, conn, nil, nom, 2)

	_, err := c.Start(context.Background(), Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, conn.prompts, 1)
}

func TestIncompletePhaseWarning_Error(t *testing.T) {
	w := &IncompletePhaseWarning{Stalled: phase.Nomination, Retries: 2}
	assert.Contains(t, w.Error(), "2 retries")
	assert.Contains(t, w.Error(), "critique")
}

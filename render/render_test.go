package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazelment/yoloswe/namecouncil/conference"
	"github.com/bazelment/yoloswe/namecouncil/phase"
	"github.com/bazelment/yoloswe/namecouncil/report"
	"github.com/bazelment/yoloswe/namecouncil/stream"
)

func sampleReport() *report.FinalReport {
	return &report.FinalReport{
		RankedNames: []report.ScoredName{
			{
				NameInfo: report.NameProposal{Name: "李沐阳", Pinyin: "Lǐ Mù Yáng", Meaning: "沐浴阳光", Proposer: "诗词专家"},
				Critiques: []report.Critique{
					{CriticRole: "语言学家", Comment: "音韵响亮", Score: 9},
				},
				TotalScore:   9,
				AverageScore: 9,
			},
			{
				NameInfo: report.NameProposal{Name: "李知远", Pinyin: "Lǐ Zhī Yuǎn", Meaning: "知行致远", Proposer: "用户提名"},
			},
		},
		Summary: "专家一致推荐李沐阳。",
	}
}

func TestReportMarkdown(t *testing.T) {
	md := ReportMarkdown(sampleReport())

	assert.Contains(t, md, "专家一致推荐李沐阳。")
	assert.Contains(t, md, "### 第 1 名: 【李沐阳】 (总分: 9, 均分: 9.00)")
	assert.Contains(t, md, "- 拼音: Lǐ Mù Yáng")
	assert.Contains(t, md, "  - [语言学家] (9分): 音韵响亮")
	assert.Contains(t, md, "### 第 2 名: 【李知远】")
	assert.Contains(t, md, "- 提案人: 用户提名")
	assert.Less(t, strings.Index(md, "会议总结"), strings.Index(md, "推荐名单"))
	assert.Equal(t, 1, strings.Count(md, "专家评审"), "names without critiques omit the section")
}

func TestRenderer_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false, "auto")

	r.Text("诗词专家提名：李沐阳")
	r.PhaseComplete(phase.Nomination)
	r.PhaseComplete(phase.None)
	cost := 0.0125
	r.Metrics(stream.Metrics{DurationMs: 3200, CostUSD: &cost})
	r.Metrics(stream.Metrics{DurationMs: 100, CostUSD: &cost})
	r.Retry(phase.Critique, 1, 2)
	r.NominationAccepted([]string{"张三", "李四"})
	r.NominationSkipped()
	r.Warning(&conference.IncompletePhaseWarning{Stalled: phase.Nomination, Retries: 2})
	r.Report(sampleReport())
	r.Error(errors.New("boom"))
	r.Detail("CLI stderr:", "panic: oops\n")
	r.Goodbye()

	out := buf.String()
	assert.NotContains(t, out, "\x1b[", "buffers are not terminals")
	assert.Contains(t, out, "[回复]: 诗词专家提名：李沐阳")
	assert.Contains(t, out, strings.Repeat("=", 50)+"\n📋 提名阶段完成，进入质询阶段...")
	assert.Equal(t, 1, strings.Count(out, "阶段完成"))
	assert.Contains(t, out, "[System] 本轮耗时: 3200ms")
	assert.Contains(t, out, "[System] 本轮成本: $0.0125 (累计: $0.0250)")
	assert.Contains(t, out, "停在决选阶段），自动重试 (1/2)")
	assert.Contains(t, out, "✅ 已收到您的提名：张三, 李四")
	assert.Contains(t, out, "跳过用户提名")
	assert.Contains(t, out, "经过 2 次重试后仍未完成（停在质询阶段）")
	assert.Contains(t, out, "【李沐阳】")
	assert.Contains(t, out, "发生错误: boom")
	assert.Contains(t, out, "CLI stderr:\npanic: oops\n")
	assert.Contains(t, out, "会议结束，祝宝宝健康成长！(总成本: $0.0250)")
	assert.InDelta(t, 0.025, r.TotalCost(), 1e-9)
}

func TestRenderer_MetricsWithoutCost(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, "")
	r.Metrics(stream.Metrics{DurationMs: 5})
	assert.NotContains(t, buf.String(), "本轮成本")
	assert.Zero(t, r.TotalCost())
}

func TestMarkdownRenderer(t *testing.T) {
	md, err := NewMarkdownRenderer(60, "notty")
	require.NoError(t, err)
	out, err := md.Render(ReportMarkdown(sampleReport()))
	require.NoError(t, err)
	assert.Contains(t, out, "李沐阳")
}

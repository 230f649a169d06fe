package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/bazelment/yoloswe/namecouncil/report"
)

// MarkdownRenderer wraps glamour for terminal markdown rendering.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer creates a markdown renderer wrapping at width.
// Style is "dark", "light" or "auto" (the default).
func NewMarkdownRenderer(width int, style string) (*MarkdownRenderer, error) {
	r, err := glamour.NewTermRenderer(
		glamourOption(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &MarkdownRenderer{renderer: r}, nil
}

// Render renders markdown text for terminal display.
func (m *MarkdownRenderer) Render(text string) (string, error) {
	return m.renderer.Render(text)
}

// glamourOption returns the glamour TermRendererOption for a style name.
func glamourOption(style string) glamour.TermRendererOption {
	switch style {
	case "dark":
		return glamour.WithStandardStyle("dark")
	case "light":
		return glamour.WithStandardStyle("light")
	case "notty":
		return glamour.WithStandardStyle("notty")
	default:
		return glamour.WithAutoStyle()
	}
}

// ReportMarkdown lays out a final report: the summary, then every ranked
// name with its pronunciation, meaning, proposer and critiques.
func ReportMarkdown(r *report.FinalReport) string {
	var b strings.Builder
	b.WriteString("# 🎉 最终取名报告 🎉\n\n")
	b.WriteString("## 会议总结\n\n")
	b.WriteString(r.Summary)
	b.WriteString("\n\n## 🏆 推荐名单 (按得分排序)\n")

	for i, sn := range r.RankedNames {
		info := sn.NameInfo
		fmt.Fprintf(&b, "\n### 第 %d 名: 【%s】 (总分: %d, 均分: %.2f)\n\n", i+1, info.Name, sn.TotalScore, sn.AverageScore)
		fmt.Fprintf(&b, "- 拼音: %s\n", info.Pinyin)
		fmt.Fprintf(&b, "- 寓意: %s\n", info.Meaning)
		fmt.Fprintf(&b, "- 提案人: %s\n", info.Proposer)
		if len(sn.Critiques) == 0 {
			continue
		}
		b.WriteString("- 专家评审:\n")
		for _, c := range sn.Critiques {
			fmt.Fprintf(&b, "  - [%s] (%d分): %s\n", c.CriticRole, c.Score, c.Comment)
		}
	}
	return b.String()
}

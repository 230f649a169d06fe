// Package report defines the final naming report produced at the end of a
// conference and the validation boundary that turns an untyped agent payload
// into a trusted FinalReport.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/invopop/jsonschema"
)

// MaxRankedNames is the largest number of entries a report may rank.
// Larger lists are rejected rather than truncated.
const MaxRankedNames = 15

// NameProposal is a candidate name as proposed by one expert.
type NameProposal struct {
	Name     string `json:"name" jsonschema:"description=提议的名字（中文全名，包含姓氏）" validate:"required"`
	Pinyin   string `json:"pinyin" jsonschema:"description=名字的拼音（带声调，如 Lǐ Míng）" validate:"required"`
	Meaning  string `json:"meaning" jsonschema:"description=详细寓意说明：每个字的含义、典故出处、整体意象与对孩子的祝愿" validate:"required"`
	Proposer string `json:"proposer" jsonschema:"description=提案人的角色名称（如：语言学家、诗词专家；用户追加的名字为“用户提名”）" validate:"required"`
}

// Critique is one expert's comment and score for a name.
type Critique struct {
	CriticRole string `json:"critic_role" jsonschema:"description=点评专家的角色名称" validate:"required"`
	Comment    string `json:"comment" jsonschema:"description=详细专业点评：优缺点分析、改进建议与需求契合度" validate:"required"`
	Score      int    `json:"score" jsonschema:"description=评分（1-10分），10分为最佳,minimum=1,maximum=10" validate:"min=1,max=10"`
}

// ScoredName is a proposal together with its critiques and aggregate scores.
type ScoredName struct {
	NameInfo     NameProposal `json:"name_info"`
	Critiques    []Critique   `json:"critiques" jsonschema:"description=所有专家对该名字的点评列表" validate:"dive"`
	TotalScore   int          `json:"total_score" jsonschema:"description=所有专家评分的总和"`
	AverageScore float64      `json:"average_score" jsonschema:"description=所有专家评分的平均值，保留两位小数"`
}

// FinalReport is the ranked outcome of a conference.
type FinalReport struct {
	RankedNames []ScoredName `json:"ranked_names" jsonschema:"description=按总分从高到低排序的名字列表（最多15个）,maxItems=15" validate:"required,max=15,dive"`
	Summary     string       `json:"summary" jsonschema:"description=会议总结：讨论过程、专家观点与分歧、推荐理由、给家长的建议" validate:"required"`
}

// ExpectedAverage returns the average score implied by the critiques,
// rounded to two decimals. A name without critiques averages 0.
func (s ScoredName) ExpectedAverage() float64 {
	if len(s.Critiques) == 0 {
		return 0
	}
	return round2(float64(s.ExpectedTotal()) / float64(len(s.Critiques)))
}

// averageTolerance accepts any two-decimal rounding of the exact average,
// whatever rule was used to break ties at the half cent.
const averageTolerance = 0.005 + 1e-9

// AverageConsistent reports whether AverageScore is the critiques' average
// rounded to two decimals. A name without critiques must average 0.
func (s ScoredName) AverageConsistent() bool {
	if len(s.Critiques) == 0 {
		return s.AverageScore == 0
	}
	return math.Abs(s.AverageScore-s.ExactAverage()) <= averageTolerance
}

// ExactAverage returns the unrounded mean of the critique scores, 0 when
// there are none.
func (s ScoredName) ExactAverage() float64 {
	if len(s.Critiques) == 0 {
		return 0
	}
	return float64(s.ExpectedTotal()) / float64(len(s.Critiques))
}

// ExpectedTotal returns the sum of the critique scores.
func (s ScoredName) ExpectedTotal() int {
	total := 0
	for _, c := range s.Critiques {
		total += c.Score
	}
	return total
}

// Top returns the best ranked name, or false for an empty report.
func (r *FinalReport) Top() (ScoredName, bool) {
	if r == nil || len(r.RankedNames) == 0 {
		return ScoredName{}, false
	}
	return r.RankedNames[0], true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var (
	schemaOnce sync.Once
	schemaJSON json.RawMessage
)

// Schema returns the JSON schema of FinalReport, suitable for the agent's
// structured output option. Definitions are inlined.
func Schema() json.RawMessage {
	schemaOnce.Do(func() {
		reflector := &jsonschema.Reflector{
			DoNotReference: true,
			ExpandedStruct: true,
		}
		b, err := json.Marshal(reflector.Reflect(&FinalReport{}))
		if err != nil {
			panic(fmt.Sprintf("report: generate schema: %v", err))
		}
		schemaJSON = b
	})
	return schemaJSON
}

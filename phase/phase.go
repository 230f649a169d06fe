// Package phase defines the stages of a naming conference and detects stage
// completion from the sentinel markers the moderator embeds in its output.
package phase

import "strings"

// Phase is a completed stage of the conference protocol. Phases are ordered;
// a later stage compares greater than an earlier one.
type Phase int

const (
	// None means no stage has completed yet.
	None Phase = iota
	// Nomination means candidate names have been proposed.
	Nomination
	// Critique means every candidate has been critiqued and scored.
	Critique
	// FinalSelection means the final ranking is done.
	FinalSelection
)

// Sentinel markers printed by the moderator at the end of each stage.
const (
	MarkerNomination     = "【第一轮结束】"
	MarkerCritique       = "【第二轮结束】"
	MarkerFinalSelection = "【第三轮结束】"
)

// markers is ordered from the highest phase down so Detect can return on the
// first hit.
var markers = []struct {
	text  string
	phase Phase
}{
	{MarkerFinalSelection, FinalSelection},
	{MarkerCritique, Critique},
	{MarkerNomination, Nomination},
}

// Detect reports the highest phase whose marker appears in text.
// A chunk can report cumulative progress, so a chunk containing several
// markers yields the latest stage.
func Detect(text string) (Phase, bool) {
	for _, m := range markers {
		if strings.Contains(text, m.text) {
			return m.phase, true
		}
	}
	return None, false
}

// Markers returns the sentinel markers in stage order.
func Markers() []string {
	return []string{MarkerNomination, MarkerCritique, MarkerFinalSelection}
}

// Marker returns the sentinel printed when p completes, or "" for None.
func (p Phase) Marker() string {
	switch p {
	case Nomination:
		return MarkerNomination
	case Critique:
		return MarkerCritique
	case FinalSelection:
		return MarkerFinalSelection
	default:
		return ""
	}
}

// Next returns the stage that follows p. FinalSelection is its own successor.
func (p Phase) Next() Phase {
	if p >= FinalSelection {
		return FinalSelection
	}
	return p + 1
}

func (p Phase) String() string {
	switch p {
	case None:
		return "none"
	case Nomination:
		return "nomination"
	case Critique:
		return "critique"
	case FinalSelection:
		return "final_selection"
	default:
		return "unknown"
	}
}

// Title is the name of stage p itself: 提名, 质询 or 决选.
func (p Phase) Title() string {
	switch p {
	case Nomination:
		return "提名"
	case Critique:
		return "质询"
	case FinalSelection:
		return "决选"
	default:
		return ""
	}
}

// Label is the stage name shown to users. It names the stage that is in
// progress when p is the last completed one, matching how the moderator
// describes where the conference stalled.
func (p Phase) Label() string {
	switch p {
	case None:
		return "提名"
	case Nomination:
		return "质询"
	case Critique:
		return "决选"
	case FinalSelection:
		return "完成"
	default:
		return "未知"
	}
}

package conference

import (
	"fmt"
	"strings"

	"github.com/bazelment/yoloswe/namecouncil/phase"
	"github.com/bazelment/yoloswe/namecouncil/report"
)

// UserNominationProposer is the proposer recorded for names the user adds.
const UserNominationProposer = "用户提名"

// Request is what the user asks the conference for.
type Request struct {
	FamilyName string
	Gender     string
	BirthInfo  string
	Wishes     string
}

// Expert is one member of the conference the moderator can delegate to.
type Expert struct {
	// Name is the sub-agent identifier.
	Name string

	// Role is the expert's title, used as proposer and critic_role.
	Role string

	Prompt string
}

// DefaultExperts is the standing panel.
func DefaultExperts() []Expert {
	return []Expert{
		{
			Name:   "poet",
			Role:   "诗词专家",
			Prompt: "你是诗词专家。从《诗经》《楚辞》、唐诗宋词中为孩子取名，写明出处原句与意境。点评时关注名字的文学性与典故是否贴切。",
		},
		{
			Name:   "linguist",
			Role:   "语言学家",
			Prompt: "你是语言学家。关注声调搭配、音节响亮度、与姓氏连读是否拗口、是否有不雅谐音，以及用字是否生僻。",
		},
		{
			Name:   "fortune-teller",
			Role:   "命理师",
			Prompt: "你是命理师。根据出生信息分析生辰八字与五行喜忌，从五行补益的角度提名和点评。",
		},
		{
			Name:   "astrologer",
			Role:   "星座分析师",
			Prompt: "你是星座分析师。根据出生日期判断星座特质，评价名字气质与孩子性格的契合度。",
		},
		{
			Name:   "culture-scholar",
			Role:   "文化学者",
			Prompt: "你是文化学者。关注名字的时代感、重名率、社会印象以及在不同方言和场合中的接受度。",
		},
	}
}

// ModeratorPrompt is the system prompt of the moderating agent. It defines
// the three stages and the marker that closes each one.
func ModeratorPrompt(experts []Expert) string {
	var b strings.Builder
	b.WriteString("你是“全能专家取名研讨会”的主持人，负责组织专家为孩子取名。\n\n")
	b.WriteString("参会专家（通过 Task 工具委派）：\n")
	for _, e := range experts {
		fmt.Fprintf(&b, "- %s（%s）\n", e.Role, e.Name)
	}
	fmt.Fprintf(&b, `
会议分三个阶段，严格按顺序进行：

阶段1（%[1]s）：请每位专家各提出2到3个名字，说明拼音、寓意和提案人。全部提名汇总后，单独输出一行 %[4]s。
阶段2（%[2]s）：请每位专家对所有候选名字逐一点评并打分（1-10分），汇总每个名字的总分和平均分。完成后单独输出一行 %[5]s。
阶段3（%[3]s）：按总分从高到低排序，选出最多%[7]d个名字，撰写会议总结。完成后单独输出一行 %[6]s，并按要求的结构化格式给出最终报告。

如果用户追加了名字，提案人一律标记为“%[8]s”，与专家提名一同参加质询和决选。
每个阶段结束时必须输出对应的结束标记，不要提前输出后面阶段的标记。
`,
		phase.Nomination.Title(), phase.Critique.Title(), phase.FinalSelection.Title(),
		phase.MarkerNomination, phase.MarkerCritique, phase.MarkerFinalSelection,
		report.MaxRankedNames, UserNominationProposer)
	return b.String()
}

// InitialPrompt opens the conference for req.
func InitialPrompt(req Request) string {
	return fmt.Sprintf(`用户需求：
姓氏：%s
性别：%s
出生信息：%s
期望：%s

请按照主持人流程开始会议。`, req.FamilyName, req.Gender, req.BirthInfo, req.Wishes)
}

// NominationPrompt adds the user's names to the candidates and resumes the
// conference at stage resumeAt.
func NominationPrompt(names []string, resumeAt phase.Phase) string {
	return fmt.Sprintf(`用户追加了以下名字，请将这些名字加入候选列表（标记提案人为“%s”），然后继续进行%s阶段：

用户提名的名字：%s

请继续执行阶段%d（%s）和后续流程。`,
		UserNominationProposer, resumeAt.Title(), strings.Join(names, ", "), int(resumeAt), resumeAt.Title())
}

// SkipNominationPrompt resumes the conference at Critique without new names.
func SkipNominationPrompt() string {
	return fmt.Sprintf("请继续完成剩余流程，从%s阶段开始。", phase.Critique.Title())
}

// ContinuePrompt asks the agent to pick up where it stopped.
func ContinuePrompt() string {
	return "请继续完成剩余流程，从上次中断的地方继续。"
}

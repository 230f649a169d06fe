// Package intake asks the user for the conference request, extra name
// nominations and follow-up feedback.
package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/bazelment/yoloswe/namecouncil/conference"
)

// ErrAborted means the user interrupted a form (Ctrl+C).
var ErrAborted = errors.New("input aborted by user")

// Gender choices offered in the request form.
var genders = []string{"男孩", "女孩"}

// exitKeywords end the follow-up loop, compared case-insensitively.
var exitKeywords = []string{"exit", "quit", "q"}

// IsExit reports whether input is one of the exit keywords.
func IsExit(input string) bool {
	input = strings.TrimSpace(input)
	for _, k := range exitKeywords {
		if strings.EqualFold(input, k) {
			return true
		}
	}
	return false
}

// askFunc asks one free-text question and stores the answer in value.
type askFunc func(ctx context.Context, title, description string, value *string) error

// Intake collects user input with huh forms.
type Intake struct {
	input      io.Reader
	output     io.Writer
	ask        askFunc
	accessible bool
}

var _ conference.Nominator = (*Intake)(nil)

// New returns an Intake reading from in and drawing on out. Forms fall back
// to line-based accessible mode when in is not a terminal.
func New(in io.Reader, out io.Writer) *Intake {
	i := &Intake{input: in, output: out, accessible: !isTerminal(in)}
	i.ask = i.askForm
	return i
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (i *Intake) run(ctx context.Context, form *huh.Form) error {
	err := form.
		WithInput(i.input).
		WithOutput(i.output).
		WithAccessible(i.accessible).
		RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return err
}

func (i *Intake) askForm(ctx context.Context, title, description string, value *string) error {
	field := huh.NewInput().Title(title).Value(value)
	if description != "" {
		field = field.Description(description)
	}
	return i.run(ctx, huh.NewForm(huh.NewGroup(field)))
}

// Request asks for the family name, gender, birth information and wishes.
func (i *Intake) Request(ctx context.Context) (conference.Request, error) {
	req := conference.Request{Gender: genders[0]}
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("请输入姓氏").
			Placeholder("例如: 李").
			Validate(required("姓氏")).
			Value(&req.FamilyName),
		huh.NewSelect[string]().
			Title("请选择性别").
			Options(huh.NewOptions(genders...)...).
			Value(&req.Gender),
		huh.NewInput().
			Title("请输入出生信息").
			Description("用于算命和星座").
			Placeholder("例如: 2024年5月20日 早上8点").
			Value(&req.BirthInfo),
		huh.NewInput().
			Title("请输入您的期望").
			Placeholder("例如: 希望聪明、健康，避免生僻字").
			Value(&req.Wishes),
	))
	if err := i.run(ctx, form); err != nil {
		return conference.Request{}, err
	}
	return normalize(req), nil
}

// Nominations asks for the user's own name ideas. An empty answer skips.
func (i *Intake) Nominations(ctx context.Context) (string, error) {
	var names string
	err := i.ask(ctx,
		"💡 现在您可以追加自己想到的名字！",
		"格式：名字1, 名字2, 名字3 (用逗号分隔)，或直接按回车跳过",
		&names)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(names), nil
}

// FollowUp asks whether the user is satisfied. It returns exit=true for an
// exit keyword or an aborted form, and re-asks on empty input.
func (i *Intake) FollowUp(ctx context.Context) (string, bool, error) {
	for {
		var answer string
		err := i.ask(ctx, "对结果满意吗？", "输入 'exit' 退出，或输入新的要求", &answer)
		if errors.Is(err, ErrAborted) {
			return "", true, nil
		}
		if err != nil {
			return "", false, err
		}

		answer = strings.TrimSpace(answer)
		switch {
		case IsExit(answer):
			return "", true, nil
		case answer != "":
			return answer, false, nil
		}
	}
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s不能为空", what)
		}
		return nil
	}
}

func normalize(req conference.Request) conference.Request {
	req.FamilyName = strings.TrimSpace(req.FamilyName)
	req.Gender = strings.TrimSpace(req.Gender)
	req.BirthInfo = strings.TrimSpace(req.BirthInfo)
	req.Wishes = strings.TrimSpace(req.Wishes)
	return req
}

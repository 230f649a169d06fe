package conference

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bazelment/yoloswe/namecouncil/phase"
)

// ParseNominations splits free text into names. ASCII commas, fullwidth
// commas and enumeration commas all separate names; blanks are dropped.
func ParseNominations(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == '，' || r == '、'
	})
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if name := strings.TrimSpace(f); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// NominationWindow lets the user add names once nominations are done.
type NominationWindow struct {
	nominator Nominator
	presenter Presenter
	logger    *slog.Logger
}

// Offer reads the user's names and returns the prompt that resumes the
// conference. It marks the window as used on state.
func (w *NominationWindow) Offer(ctx context.Context, state *SessionState) (string, error) {
	state.NominationOffered = true

	input, err := w.nominator.Nominations(ctx)
	if err != nil {
		return "", fmt.Errorf("read nominations: %w", err)
	}

	names := ParseNominations(input)
	if len(names) == 0 {
		w.presenter.NominationSkipped()
		w.logger.Info("user skipped nomination")
		return SkipNominationPrompt(), nil
	}

	w.presenter.NominationAccepted(names)
	w.logger.Info("user nominated names", "count", len(names))
	return NominationPrompt(names, phase.Critique), nil
}

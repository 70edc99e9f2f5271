package remedy

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/llm"
)

const (
	evaluatorSystemPrompt = "You are an expert in Ansible playbooks. " +
		"Evaluate if the provided playbook content matches the given incident description."

	evaluatorUserPrompt = "Incident description: %s"
)

// affirmativeTokens is the accepted set of judgment tokens that count as a
// match. The classifier's output is an untrusted boundary: judgments are
// split into words and checked against this set, so "mismatches" never
// counts and prose around the verdict is ignored. The bare word "match" is
// deliberately absent; it shows up in negative verdicts ("does not match").
var affirmativeTokens = map[string]bool{
	"matches": true,
	"yes":     true,
}

// Evaluator decides whether a cataloged playbook already addresses an
// incident, using the generative provider as a binary classifier.
type Evaluator struct {
	completer llm.Completer
	logger    *zap.Logger
}

// NewEvaluator creates an evaluator.
func NewEvaluator(completer llm.Completer, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{completer: completer, logger: logger}
}

// FindMatch returns the first catalog entry, in catalog order, that the
// classifier judges to address the description, or nil when none does.
//
// There is no ranking across candidates: first match wins. A failed
// classification call propagates rather than being treated as a non-match,
// so the cycle is retried instead of falsely concluding no match exists.
func (e *Evaluator) FindMatch(ctx context.Context, description string, catalog []Document) (*Document, error) {
	e.logger.Info("searching catalog for a matching playbook",
		zap.Int("catalog_size", len(catalog)))

	for i := range catalog {
		candidate := &catalog[i]

		judgment, err := e.completer.Complete(ctx, evaluatorSystemPrompt,
			fmt.Sprintf(evaluatorUserPrompt, description), candidate.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to classify candidate %q: %w", candidate.Path, err)
		}

		if isAffirmative(judgment) {
			e.logger.Info("catalog playbook matches incident",
				zap.String("path", candidate.Path))
			return candidate, nil
		}
	}

	return nil, nil
}

// isAffirmative reports whether a free-text judgment contains an accepted
// affirmative token as a whole word.
func isAffirmative(judgment string) bool {
	words := strings.FieldsFunc(strings.ToLower(judgment), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if affirmativeTokens[w] {
			return true
		}
	}
	return false
}

package remedy

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/llm"
)

const (
	generatorSystemPrompt = "You are an expert in writing Ansible playbooks. " +
		"You do not need any help in explaining the playbook or how to run the playbook. " +
		"You return amazing playbooks that always work."

	generatorUserPrompt = "Create an Ansible playbook based on this incident description: %s"
)

// Generator drafts new remediation playbooks for incident descriptions.
type Generator struct {
	completer llm.Completer
	logger    *zap.Logger
}

// NewGenerator creates a generator.
func NewGenerator(completer llm.Completer, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{completer: completer, logger: logger}
}

// Generate asks the provider for a playbook addressing the description and
// normalizes the result into a canonical document.
//
// Provider failure or an empty completion surfaces as *llm.GenerationError,
// which aborts the current incident's processing for this cycle.
func (g *Generator) Generate(ctx context.Context, description string) (Document, error) {
	g.logger.Info("generating playbook", zap.String("description", description))

	raw, err := g.completer.Complete(ctx, generatorSystemPrompt,
		fmt.Sprintf(generatorUserPrompt, description))
	if err != nil {
		return Document{}, fmt.Errorf("failed to generate playbook: %w", err)
	}

	return Document{
		Content: Format(raw),
		Source:  SourceGenerated,
	}, nil
}

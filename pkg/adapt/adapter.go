// Package adapt rewrites document text to a learner's CEFR proficiency
// level using an LLM, chunking long documents to fit model context.
package adapt

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"

	"github.com/vakya-app/vakya/pkg/config"
	"github.com/vakya-app/vakya/pkg/models"
	"github.com/vakya-app/vakya/pkg/utils"
)

const promptTemplate = `You are rewriting a text for a language learner at CEFR level %s (%s).
Rewrite the following markdown so a learner at that level can read it.
Keep the meaning, the markdown structure, and the original language.
Return only the rewritten markdown, no commentary.

%s`

// Adapter rewrites markdown to a target proficiency level
type Adapter struct {
	model llms.Model
	cfg   config.AdaptConfig
	log   *logrus.Entry
}

// NewAdapter creates an Adapter backed by the given model. The model is
// injected so tests can substitute a deterministic fake.
func NewAdapter(model llms.Model, cfg config.AdaptConfig, logger *logrus.Logger) *Adapter {
	return &Adapter{
		model: model,
		cfg:   cfg,
		log:   logger.WithField("component", "adapt"),
	}
}

// AdaptMarkdown rewrites markdown to the given level and returns the
// adapted text. Documents above the configured token budget are refused.
func (a *Adapter) AdaptMarkdown(ctx context.Context, markdown string, level models.ProficiencyLevel) (string, error) {
	if !level.IsValid() {
		return "", utils.WrapErrorf(utils.ErrAdaptation, "invalid proficiency level '%s'", level)
	}
	if a.model == nil {
		return "", utils.WrapErrorf(utils.ErrAdaptation, "no adaptation model configured")
	}

	total := CountTokens(markdown)
	if total > a.cfg.MaxDocumentTokens {
		return "", utils.WrapErrorf(utils.ErrAdaptation,
			"document is %d tokens, above the %d-token budget", total, a.cfg.MaxDocumentTokens)
	}

	chunks, err := ChunkMarkdown(markdown, a.cfg.MaxChunkTokens, a.cfg.ChunkOverlap)
	if err != nil {
		return "", utils.WrapErrorf(utils.ErrAdaptation, "chunking failed: %v", err)
	}
	if len(chunks) == 0 {
		return "", utils.WrapErrorf(utils.ErrAdaptation, "document has no adaptable content")
	}

	adaptLog := a.log.WithFields(logrus.Fields{"level": level, "chunks": len(chunks), "tokens": total})
	adaptLog.Info("Adapting document")

	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		prompt := fmt.Sprintf(promptTemplate, level, level.Describe(), chunk)

		var opts []llms.CallOption
		if a.cfg.Model != "" {
			opts = append(opts, llms.WithModel(a.cfg.Model))
		}
		rewritten, err := llms.GenerateFromSinglePrompt(ctx, a.model, prompt, opts...)
		if err != nil {
			return "", utils.WrapErrorf(utils.ErrAdaptation, "model call for chunk %d/%d: %v", i+1, len(chunks), err)
		}
		parts = append(parts, strings.TrimSpace(rewritten))
	}

	adaptLog.Info("Document adapted")
	return strings.Join(parts, "\n\n"), nil
}

package insight

import (
	"context"

	"github.com/guwenlab/insight/pkg/ai"
	"github.com/guwenlab/insight/pkg/common"
	"github.com/guwenlab/insight/pkg/logger"
)

// Classify resolves a document's genre and writes it back to the store. The
// result never carries the unknown sentinel: an absent, blank or
// out-of-enumeration model answer falls through to the keyword heuristic, and
// a zero-score heuristic falls back to the document's current category or
// "other".
func (s *Service) Classify(
	ctx context.Context,
	documentID int64,
	model string,
) (common.Classification, error) {
	doc, err := s.storage.GetDocument(ctx, documentID)
	if err != nil {
		return common.Classification{}, err
	}

	cls := s.classifyWithFallback(ctx, doc.Content, model)
	cls.DocumentID = documentID
	cls.Category = normalizeGenre(cls.Category, doc.Category)

	if err := s.storage.UpdateDocumentCategory(ctx, documentID, cls.Category); err != nil {
		return common.Classification{}, err
	}

	return cls, nil
}

// classifyWithFallback tries the chat gateway first and runs the keyword
// heuristic whenever the answer is absent, blank, or "unknown".
func (s *Service) classifyWithFallback(
	ctx context.Context,
	content, model string,
) common.Classification {
	// classification is a labeling task, keep sampling near-deterministic
	payload, ok := s.chatJSON(ctx, classifySystemPrompt, classifyUserPrompt(content), model,
		ai.WithTemperature(0.1))
	if ok {
		category := common.ParseGenre(payload.Get("category").String())
		if category != common.GenreUnknown {
			confidence := payload.Get("confidence").Float()
			if confidence == 0 {
				confidence = 0.65
			}

			var reasons []string
			for _, reason := range payload.Get("reasons").Array() {
				reasons = append(reasons, reason.String())
			}

			return common.Classification{
				Category:   category,
				Confidence: confidence,
				Reasons:    reasons,
			}
		}
		logger.Debug("model classification unusable, falling back",
			"category", payload.Get("category").String())
	}

	return heuristicClassify(content)
}

// normalizeGenre maps the unknown sentinel to the document's current category
// when that is already concrete, and to "other" as the last resort.
func normalizeGenre(category, current common.Genre) common.Genre {
	if category != common.GenreUnknown {
		return category
	}
	if current != "" && current != common.GenreUnknown {
		return current
	}
	return common.GenreOther
}

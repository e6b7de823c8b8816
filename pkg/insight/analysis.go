package insight

import (
	"context"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/guwenlab/insight/pkg/common"
	"github.com/guwenlab/insight/pkg/logger"
)

const recoveryMessage = "LLM 失败，已返回启发式结果"

type classifyResult struct {
	cls common.Classification
	err error
}

type annotateResult struct {
	ann common.Annotation
	err error
}

// RunFullAnalysis chains classification, annotation and the insight build
// into one call. Classification and annotation run in parallel and share a
// join window; any failure in either flips the whole run onto the heuristic
// path so the caller always receives a complete, concrete result.
func (s *Service) RunFullAnalysis(
	ctx context.Context,
	documentID int64,
	model string,
) (common.Analysis, error) {
	doc, err := s.storage.GetDocument(ctx, documentID)
	if err != nil {
		return common.Analysis{}, err
	}

	classify := runTask(s, func() classifyResult {
		cls, err := s.Classify(ctx, documentID, model)
		return classifyResult{cls: cls, err: err}
	})
	annotate := runTask(s, func() annotateResult {
		ann, err := s.Annotate(ctx, documentID, model)
		return annotateResult{ann: ann, err: err}
	})

	deadline := newDeadline(s.callTimeout)
	clsRes, clsOK := classify.await(deadline)
	annRes, annOK := annotate.await(deadline)

	if !clsOK || !annOK || clsRes.err != nil || annRes.err != nil {
		logger.Warn("full analysis degraded to heuristics",
			"document", documentID,
			"classify_joined", clsOK,
			"annotate_joined", annOK,
		)
		return s.recoverAnalysis(ctx, doc, model)
	}

	insights, err := s.BuildInsights(ctx, documentID, common.InsightModeFull, model)
	if err != nil {
		return common.Analysis{}, err
	}
	sections, err := s.storage.GetSections(ctx, documentID)
	if err != nil {
		return common.Analysis{}, err
	}

	return common.Analysis{
		Classification: clsRes.cls,
		Annotation:     annRes.ann,
		Insights:       insights,
		Sections:       sections,
	}, nil
}

// recoverAnalysis rebuilds the whole result from the keyword heuristics
// alone. It persists what it generates so the insight build and later reads
// see the same data.
func (s *Service) recoverAnalysis(
	ctx context.Context,
	doc common.Document,
	model string,
) (common.Analysis, error) {
	cls := heuristicClassify(doc.Content)
	cls.DocumentID = doc.ID
	cls.Category = normalizeGenre(cls.Category, doc.Category)
	if err := s.storage.UpdateDocumentCategory(ctx, doc.ID, cls.Category); err != nil {
		return common.Analysis{}, err
	}

	entities := heuristicEntities(doc.Content)
	for i := range entities {
		id, err := gonanoid.New()
		if err != nil {
			return common.Analysis{}, err
		}
		entities[i].ID = id
		entities[i].DocumentID = doc.ID
	}
	relations := heuristicRelations(entities)
	for i := range relations {
		id, err := gonanoid.New()
		if err != nil {
			return common.Analysis{}, err
		}
		relations[i].ID = id
		relations[i].DocumentID = doc.ID
	}

	if err := s.storage.ReplaceEntities(ctx, doc.ID, entities); err != nil {
		return common.Analysis{}, err
	}
	if err := s.storage.ReplaceRelations(ctx, doc.ID, relations); err != nil {
		return common.Analysis{}, err
	}
	if err := s.AutoSegment(ctx, doc.ID); err != nil {
		return common.Analysis{}, err
	}

	insights, err := s.BuildInsights(ctx, doc.ID, common.InsightModeFull, model)
	if err != nil {
		return common.Analysis{}, err
	}
	sections, err := s.storage.GetSections(ctx, doc.ID)
	if err != nil {
		return common.Analysis{}, err
	}

	return common.Analysis{
		Classification: cls,
		Annotation: common.Annotation{
			DocumentID:       doc.ID,
			CreatedEntities:  len(entities),
			CreatedRelations: len(relations),
			Message:          recoveryMessage,
		},
		Insights: insights,
		Sections: sections,
	}, nil
}

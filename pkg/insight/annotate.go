package insight

import (
	"context"

	"github.com/guwenlab/insight/internal/util"
	"github.com/guwenlab/insight/pkg/common"
	"github.com/guwenlab/insight/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/tidwall/gjson"
)

// annotationPayload is one extraction run as parsed from the model before any
// heuristic substitution.
type annotationPayload struct {
	entities  []common.Entity
	relations []rawRelation
	sentences []common.Section
	wordCloud []common.WordCloudItem
}

// rawRelation references entities by label; endpoints are resolved against
// the surviving entity set just before persistence.
type rawRelation struct {
	sourceLabel string
	targetLabel string
	relType     common.RelationType
	confidence  float64
	evidence    string
}

// Annotate runs one extraction over a document and wholesale-replaces its
// entity, relation and section sets. Empty model output is back-filled by the
// heuristic generators independently per list, so downstream stages never see
// an empty foundation.
func (s *Service) Annotate(
	ctx context.Context,
	documentID int64,
	model string,
) (common.Annotation, error) {
	doc, err := s.storage.GetDocument(ctx, documentID)
	if err != nil {
		return common.Annotation{}, err
	}

	payload := s.annotateText(ctx, doc.Content, model)
	entities, relations, err := s.persistAnnotation(ctx, doc, payload)
	if err != nil {
		return common.Annotation{}, err
	}

	if len(payload.sentences) > 0 {
		if err := s.storage.ReplaceSections(ctx, documentID, payload.sentences); err != nil {
			return common.Annotation{}, err
		}
	} else if err := s.AutoSegment(ctx, documentID); err != nil {
		return common.Annotation{}, err
	}

	return common.Annotation{
		DocumentID:       documentID,
		CreatedEntities:  len(entities),
		CreatedRelations: len(relations),
		Message:          "模型已生成实体、关系与句读，可在前端继续校对。",
	}, nil
}

// annotateText calls the extraction prompt once and parses whatever JSON can
// be salvaged. Gateway absence returns an empty payload; the heuristic
// substitution happens later so full-analysis can share it.
func (s *Service) annotateText(ctx context.Context, content, model string) annotationPayload {
	result, ok := s.chatJSON(ctx, annotateSystemPrompt, annotateUserPrompt(content), model)
	if !ok {
		logger.Warn("annotation gateway absent, heuristics will back-fill")
		return annotationPayload{}
	}
	return parseAnnotationPayload(result)
}

func parseAnnotationPayload(result gjson.Result) annotationPayload {
	var payload annotationPayload

	for _, item := range result.Get("entities").Array() {
		label := item.Get("label").String()
		if label == "" {
			continue
		}
		confidence := item.Get("confidence").Float()
		if confidence == 0 {
			confidence = 0.7
		}
		payload.entities = append(payload.entities, common.Entity{
			Label:      label,
			Category:   common.ParseEntityCategory(item.Get("category").String()),
			Start:      int(item.Get("startOffset").Int()),
			End:        int(item.Get("endOffset").Int()),
			Confidence: confidence,
		})
	}

	for _, item := range result.Get("relations").Array() {
		relType := item.Get("relationType").String()
		if relType == "" {
			// some models answer with a bare "type" field
			relType = item.Get("type").String()
		}
		confidence := item.Get("confidence").Float()
		if confidence == 0 {
			confidence = 0.6
		}
		payload.relations = append(payload.relations, rawRelation{
			sourceLabel: item.Get("sourceLabel").String(),
			targetLabel: item.Get("targetLabel").String(),
			relType:     common.ParseRelationType(relType),
			confidence:  confidence,
			evidence:    item.Get("description").String(),
		})
	}

	seq := 1
	for _, item := range result.Get("sentences").Array() {
		punctuated := item.Get("punctuated").String()
		original := item.Get("original").String()
		if original == "" {
			original = punctuated
		}
		if original == "" {
			continue
		}
		payload.sentences = append(payload.sentences, common.Section{
			Seq:        seq,
			Original:   original,
			Punctuated: punctuated,
			Summary:    item.Get("summary").String(),
		})
		seq++
	}

	for _, item := range result.Get("wordCloud").Array() {
		label := item.Get("label").String()
		if label == "" {
			continue
		}
		weight := item.Get("weight").Float()
		if weight == 0 {
			weight = 0.4
		}
		payload.wordCloud = append(payload.wordCloud, common.WordCloudItem{
			Label:  label,
			Weight: weight,
		})
	}

	return payload
}

// persistAnnotation applies the heuristic substitutions and swaps the stored
// entity/relation sets. Span fixup: a span with end < start is collapsed to
// zero, matching the "meaningless offsets are both zero" convention.
func (s *Service) persistAnnotation(
	ctx context.Context,
	doc common.Document,
	payload annotationPayload,
) ([]common.Entity, []common.Relation, error) {
	documentID := doc.ID

	entities := payload.entities
	if len(entities) == 0 {
		entities = heuristicEntities(doc.Content)
	}

	for i := range entities {
		id, err := gonanoid.New()
		if err != nil {
			return nil, nil, err
		}
		entities[i].ID = id
		entities[i].DocumentID = documentID
		if entities[i].End < entities[i].Start {
			entities[i].Start = 0
			entities[i].End = 0
		}
	}

	relations := resolveRelations(documentID, payload.relations, entities)
	if len(relations) == 0 {
		relations = heuristicRelations(entities)
	}
	for i := range relations {
		id, err := gonanoid.New()
		if err != nil {
			return nil, nil, err
		}
		relations[i].ID = id
		relations[i].DocumentID = documentID
	}

	if err := s.storage.ReplaceEntities(ctx, documentID, entities); err != nil {
		return nil, nil, err
	}
	if err := s.storage.ReplaceRelations(ctx, documentID, relations); err != nil {
		return nil, nil, err
	}

	return entities, relations, nil
}

// resolveRelations maps label references onto the surviving entity set.
// Relations referencing an unknown label are silently dropped, never
// persisted dangling.
func resolveRelations(
	documentID int64,
	raw []rawRelation,
	entities []common.Entity,
) []common.Relation {
	byLabel := make(map[string]*common.Entity, len(entities))
	for i := range entities {
		if _, ok := byLabel[entities[i].Label]; !ok {
			byLabel[entities[i].Label] = &entities[i]
		}
	}

	var relations []common.Relation
	for _, r := range raw {
		source, okS := byLabel[r.sourceLabel]
		target, okT := byLabel[r.targetLabel]
		if !okS || !okT {
			continue
		}
		relations = append(relations, common.Relation{
			DocumentID: documentID,
			Source:     source,
			Target:     target,
			Type:       r.relType,
			Confidence: r.confidence,
			Evidence:   r.evidence,
		})
	}
	return relations
}

// AutoSegment rebuilds a document's sections from the local sentence
// splitter, leaving punctuation and summaries for later passes.
func (s *Service) AutoSegment(ctx context.Context, documentID int64) error {
	doc, err := s.storage.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	pieces := util.SplitClassicalSentences(doc.Content)
	sections := make([]common.Section, 0, len(pieces))
	for i, piece := range pieces {
		sections = append(sections, common.Section{
			DocumentID: documentID,
			Seq:        i + 1,
			Original:   piece,
		})
	}

	return s.storage.ReplaceSections(ctx, documentID, sections)
}

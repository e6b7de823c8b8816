package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/guwenlab/insight/pkg/common"
	"github.com/guwenlab/insight/pkg/logger"
)

const defaultPunctuationProgress = 0.05

// BuildInsights assembles every view of a document concurrently and joins
// them against one shared deadline. Builders that miss the window contribute
// an empty view; counters and the summary are always present. The returned
// value is assembled once and handed back whole, so callers never observe a
// half-filled snapshot.
func (s *Service) BuildInsights(
	ctx context.Context,
	documentID int64,
	mode string,
	model string,
) (common.Insights, error) {
	doc, err := s.storage.GetDocument(ctx, documentID)
	if err != nil {
		return common.Insights{}, err
	}
	entities, err := s.storage.GetEntities(ctx, documentID)
	if err != nil {
		return common.Insights{}, err
	}
	relations, err := s.storage.GetRelations(ctx, documentID)
	if err != nil {
		return common.Insights{}, err
	}
	sections, err := s.storage.GetSections(ctx, documentID)
	if err != nil {
		return common.Insights{}, err
	}

	category := doc.Category
	if category == common.GenreUnknown || category == "" {
		category = heuristicClassify(doc.Content).Category
		if category == common.GenreUnknown {
			category = common.GenreOther
		}
	}

	if mode != common.InsightModeLight {
		mode = common.InsightModeFull
	}

	out := common.Insights{
		DocumentID: documentID,
		Category:   category,
		Stats: common.Stats{
			EntityCount:         len(entities),
			RelationCount:       len(relations),
			PunctuationProgress: punctuationProgress(sections),
		},
		RecommendedViews: recommendedViews(category),
		Mode:             mode,
	}

	wordCloud := runTask(s, func() []common.WordCloudItem {
		return s.buildWordCloud(ctx, doc.Content, entities)
	})
	timeline := runTask(s, func() []common.TimelineEvent {
		return s.buildTimeline(ctx, doc.Content, category, entities, relations)
	})
	battles := runTask(s, func() []common.BattlePhase {
		return s.buildBattlePhases(ctx, doc.Content, category)
	})
	family := runTask(s, func() []common.FamilyNode {
		return buildFamilyTree(category, entities, relations)
	})
	officials := runTask(s, func() []common.OfficialNode {
		return s.buildOfficialTree(ctx, doc.Content, category, entities, relations)
	})
	process := runTask(s, func() []common.ProcessStep {
		return s.buildProcessCycle(ctx, doc.Content, category, entities, relations)
	})

	var mapPoints *task[[]common.MapPoint]
	if mode == common.InsightModeFull {
		mapPoints = runTask(s, func() []common.MapPoint {
			return s.buildMapPoints(ctx, entities, model)
		})
	}

	deadline := newDeadline(s.joinTimeout)
	missed := 0

	if v, ok := wordCloud.await(deadline); ok {
		out.WordCloud = v
	} else {
		missed++
	}
	if v, ok := timeline.await(deadline); ok {
		out.Timeline = v
	} else {
		missed++
	}
	if v, ok := battles.await(deadline); ok {
		out.BattlePhases = v
	} else {
		missed++
	}
	if v, ok := family.await(deadline); ok {
		out.FamilyTree = v
	} else {
		missed++
	}
	if v, ok := officials.await(deadline); ok {
		out.OfficialTree = v
	} else {
		missed++
	}
	if v, ok := process.await(deadline); ok {
		out.ProcessCycle = v
	} else {
		missed++
	}
	if mapPoints != nil {
		if v, ok := mapPoints.await(deadline); ok {
			out.MapPoints = v
		} else {
			missed++
		}
	}

	if missed > 0 {
		logger.Warn("insight build degraded", "document", documentID, "missed_views", missed)
	}

	out.Summary = analysisSummary(category, out.Stats, out.RecommendedViews)
	return out, nil
}

func (s *Service) buildMapPoints(ctx context.Context, entities []common.Entity, model string) []common.MapPoint {
	var locations []common.Entity
	for _, ent := range entities {
		if ent.Category == common.EntityLocation {
			locations = append(locations, ent)
		}
	}
	points := s.ResolveGeoPoints(ctx, locations, model)
	out := make([]common.MapPoint, len(points))
	for i, p := range points {
		out[i] = common.MapPoint{
			Label:     p.Label,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Sequence:  i + 1,
		}
	}
	return out
}

func punctuationProgress(sections []common.Section) float64 {
	if len(sections) == 0 {
		return defaultPunctuationProgress
	}
	completed := 0
	for _, sec := range sections {
		if sec.Punctuated != "" {
			completed++
		}
	}
	return float64(completed) / float64(len(sections))
}

func recommendedViews(category common.Genre) []string {
	switch category {
	case common.GenreTravelogue:
		return []string{"地图", "时间轴", "词云"}
	case common.GenreBiography:
		return []string{"时间轴", "亲情树", "知识图谱"}
	case common.GenreOfficial:
		return []string{"官职树", "知识图谱", "时间轴"}
	case common.GenreAgriculture, common.GenreCrafts:
		return []string{"流程周期", "知识图谱", "词云"}
	default:
		return []string{"知识图谱", "对抗视图", "统计图表"}
	}
}

func analysisSummary(category common.Genre, stats common.Stats, views []string) string {
	return fmt.Sprintf(
		"模型建议该文本归类为「%s」，已完成 %d 个实体、%d 条关系。建议优先查看 %s 视图以洞察关键信息。",
		category.Label(), stats.EntityCount, stats.RelationCount, strings.Join(views, " / "),
	)
}

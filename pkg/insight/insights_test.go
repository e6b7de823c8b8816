package insight

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/guwenlab/insight/pkg/common"
)

func seedDocument(t *testing.T, storage *memStorage, category common.Genre, content string) common.Document {
	t.Helper()
	doc, err := storage.CreateDocument(context.Background(), "测试文本", content)
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.UpdateDocumentCategory(context.Background(), doc.ID, category); err != nil {
		t.Fatal(err)
	}
	doc.Category = category
	return doc
}

func TestBuildInsightsAlwaysCarriesCounters(t *testing.T) {
	storage := newMemStorage()
	doc := seedDocument(t, storage, common.GenreTravelogue, "环滁皆山也。其西南诸峰，林壑尤美。")

	entities := []common.Entity{
		{ID: "p1", Label: "欧阳修", Category: common.EntityPerson, Confidence: 0.9},
		{ID: "l1", Label: "滁州", Category: common.EntityLocation, Confidence: 0.8},
	}
	_ = storage.ReplaceEntities(context.Background(), doc.ID, entities)
	_ = storage.ReplaceRelations(context.Background(), doc.ID, []common.Relation{{
		ID: "r1", Source: &entities[0], Target: &entities[1], Type: common.RelationTravel,
	}})
	_ = storage.ReplaceSections(context.Background(), doc.ID, []common.Section{
		{Seq: 1, Original: "环滁皆山也", Punctuated: "环滁皆山也。"},
		{Seq: 2, Original: "其西南诸峰"},
	})

	svc := newTestService(&scriptedChat{}, &scriptedGeo{}, storage)
	insights, err := svc.BuildInsights(context.Background(), doc.ID, common.InsightModeFull, "")
	if err != nil {
		t.Fatal(err)
	}

	if insights.Stats.EntityCount != 2 || insights.Stats.RelationCount != 1 {
		t.Errorf("unexpected stats %+v", insights.Stats)
	}
	if insights.Stats.PunctuationProgress != 0.5 {
		t.Errorf("expected punctuation progress 0.5, got %v", insights.Stats.PunctuationProgress)
	}
	if insights.Category != common.GenreTravelogue {
		t.Errorf("unexpected category %q", insights.Category)
	}

	expectedViews := []string{"地图", "时间轴", "词云"}
	for i, view := range expectedViews {
		if insights.RecommendedViews[i] != view {
			t.Fatalf("unexpected views %v", insights.RecommendedViews)
		}
	}

	if !strings.Contains(insights.Summary, "游记地理") {
		t.Errorf("summary missing genre label: %q", insights.Summary)
	}
	if !strings.Contains(insights.Summary, "2 个实体、1 条关系") {
		t.Errorf("summary missing counters: %q", insights.Summary)
	}
	if !strings.Contains(insights.Summary, "地图 / 时间轴 / 词云") {
		t.Errorf("summary missing views: %q", insights.Summary)
	}

	// gateway absent, word cloud degrades to entity frequency
	if len(insights.WordCloud) == 0 {
		t.Error("expected degraded word cloud")
	}

	// full mode resolves one map point per location entity
	if len(insights.MapPoints) != 1 {
		t.Fatalf("expected 1 map point, got %d", len(insights.MapPoints))
	}
	if insights.MapPoints[0].Sequence != 1 {
		t.Errorf("expected sequence 1, got %d", insights.MapPoints[0].Sequence)
	}
}

func TestBuildInsightsLightModeSkipsMapPoints(t *testing.T) {
	storage := newMemStorage()
	doc := seedDocument(t, storage, common.GenreTravelogue, "山水之间。")
	_ = storage.ReplaceEntities(context.Background(), doc.ID, []common.Entity{
		{ID: "l1", Label: "滁州", Category: common.EntityLocation},
	})

	geocoder := &scriptedGeo{coords: map[string][2]float64{"滁州": {32.3, 118.3}}}
	svc := newTestService(&scriptedChat{}, geocoder, storage)

	insights, err := svc.BuildInsights(context.Background(), doc.ID, common.InsightModeLight, "")
	if err != nil {
		t.Fatal(err)
	}
	if insights.Mode != common.InsightModeLight {
		t.Errorf("unexpected mode %q", insights.Mode)
	}
	if insights.MapPoints != nil {
		t.Errorf("light mode resolved map points: %v", insights.MapPoints)
	}

	geocoder.mu.Lock()
	calls := len(geocoder.calls)
	geocoder.mu.Unlock()
	if calls != 0 {
		t.Errorf("light mode still hit the geocoder %d times", calls)
	}
}

func TestBuildInsightsDefaultPunctuationProgress(t *testing.T) {
	storage := newMemStorage()
	doc := seedDocument(t, storage, common.GenreOther, "短文。")
	svc := newTestService(&scriptedChat{}, &scriptedGeo{}, storage)

	insights, err := svc.BuildInsights(context.Background(), doc.ID, common.InsightModeLight, "")
	if err != nil {
		t.Fatal(err)
	}
	if insights.Stats.PunctuationProgress != defaultPunctuationProgress {
		t.Errorf("expected default progress, got %v", insights.Stats.PunctuationProgress)
	}
}

func TestBuildInsightsUnknownCategoryResolvedLocally(t *testing.T) {
	storage := newMemStorage()
	doc, _ := storage.CreateDocument(context.Background(), "t", "将军率兵攻敌阵，战于城下。")
	svc := newTestService(&scriptedChat{}, &scriptedGeo{}, storage)

	insights, err := svc.BuildInsights(context.Background(), doc.ID, common.InsightModeLight, "")
	if err != nil {
		t.Fatal(err)
	}
	if insights.Category != common.GenreWarfare {
		t.Errorf("expected warfare from keywords, got %q", insights.Category)
	}
}

func TestBuildInsightsDegradesOnSlowBuilders(t *testing.T) {
	storage := newMemStorage()
	doc := seedDocument(t, storage, common.GenreWarfare, "战于城下。")
	_ = storage.ReplaceEntities(context.Background(), doc.ID, []common.Entity{
		{ID: "e1", Label: "攻城", Category: common.EntityEvent, Confidence: 0.7},
	})

	// chat stalls far beyond the join window
	chat := &scriptedChat{delay: 3 * time.Second}
	svc := NewService(NewServiceParams{
		Storage:     storage,
		Chat:        chat,
		Geocoder:    &scriptedGeo{},
		CallTimeout: 5 * time.Second,
		JoinTimeout: 150 * time.Millisecond,
	})

	started := time.Now()
	insights, err := svc.BuildInsights(context.Background(), doc.ID, common.InsightModeLight, "")
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(started); elapsed > 2*time.Second {
		t.Fatalf("join did not honor the window, took %v", elapsed)
	}

	// counters and summary survive even when model-backed views miss
	if insights.Stats.EntityCount != 1 {
		t.Errorf("unexpected stats %+v", insights.Stats)
	}
	if insights.Summary == "" {
		t.Error("summary missing")
	}
	if len(insights.RecommendedViews) == 0 {
		t.Error("recommended views missing")
	}
}

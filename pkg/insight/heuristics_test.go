package insight

import (
	"strings"
	"testing"

	"github.com/guwenlab/insight/pkg/common"
)

func TestHeuristicClassify(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected common.Genre
	}{
		{
			name:     "warfare keywords",
			content:  "将军率军攻城，敌阵大乱，兵戈相接，战于城下。",
			expected: common.GenreWarfare,
		},
		{
			name:     "travelogue keywords",
			content:  "舟行江上，山水相映，游者至湖畔，路转山岭。",
			expected: common.GenreTravelogue,
		},
		{
			name:     "biography keywords",
			content:  "君生于某年，父为郡守，兄弟三人，卒年六十。",
			expected: common.GenreBiography,
		},
		{
			name:     "agriculture keywords",
			content:  "春耕播种，夏耘灌田，秋收稻谷，农桑并举。",
			expected: common.GenreAgriculture,
		},
		{
			name:     "no keywords at all",
			content:  "abcdef",
			expected: common.GenreUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := heuristicClassify(tt.content)
			if cls.Category != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, cls.Category)
			}
		})
	}
}

func TestHeuristicClassifyConfidenceCap(t *testing.T) {
	cls := heuristicClassify(strings.Repeat("战兵攻军将敌阵戎", 50))
	if cls.Confidence > 0.9 {
		t.Errorf("confidence %v exceeds cap", cls.Confidence)
	}
	if len(cls.Reasons) == 0 || !strings.HasPrefix(cls.Reasons[0], "本地关键词推断：") {
		t.Errorf("unexpected reasons %v", cls.Reasons)
	}
}

func TestHeuristicEntities(t *testing.T) {
	entities := heuristicEntities("欧阳修与苏轼游于滁州，滁州之西南诸峰，林壑尤美。")

	if len(entities) == 0 {
		t.Fatal("expected entities")
	}
	if len(entities) > heuristicEntityCap {
		t.Fatalf("expected at most %d entities, got %d", heuristicEntityCap, len(entities))
	}

	seen := make(map[string]bool)
	for _, ent := range entities {
		if seen[ent.Label] {
			t.Errorf("duplicate label %q", ent.Label)
		}
		seen[ent.Label] = true
		if ent.Category != common.EntityPerson {
			t.Errorf("entity %q: expected PERSON, got %q", ent.Label, ent.Category)
		}
		if ent.Confidence != 0.5 {
			t.Errorf("entity %q: expected confidence 0.5, got %v", ent.Label, ent.Confidence)
		}
		if ent.Start != 0 || ent.End != 0 {
			t.Errorf("entity %q: expected zero span, got [%d,%d)", ent.Label, ent.Start, ent.End)
		}
	}
}

func TestHeuristicEntitiesEmptyContent(t *testing.T) {
	if got := heuristicEntities("   "); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestHeuristicRelations(t *testing.T) {
	entities := heuristicEntities(strings.Repeat("甲乙丙丁戊己庚辛，", 4))
	relations := heuristicRelations(entities)

	if len(relations) > heuristicRelationCap {
		t.Fatalf("expected at most %d relations, got %d", heuristicRelationCap, len(relations))
	}
	for i, rel := range relations {
		if rel.Source == nil || rel.Target == nil {
			t.Fatalf("relation %d dangles", i)
		}
		if rel.Type != common.RelationCustom {
			t.Errorf("relation %d: expected CUSTOM, got %q", i, rel.Type)
		}
		if rel.Evidence != "相邻共现" {
			t.Errorf("relation %d: unexpected evidence %q", i, rel.Evidence)
		}
	}
}

func TestHeuristicRelationsSingleEntity(t *testing.T) {
	entities := []common.Entity{{Label: "独行"}}
	if got := heuristicRelations(entities); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestTokenFrequencyCloud(t *testing.T) {
	items := tokenFrequencyCloud("滁州，滁州。琅琊；滁州、琅琊：醉翁亭！")

	if len(items) == 0 {
		t.Fatal("expected items")
	}
	if items[0].Label != "滁州" {
		t.Errorf("expected most frequent token first, got %q", items[0].Label)
	}
	if items[0].Weight != 1.0 {
		t.Errorf("expected top weight 1.0, got %v", items[0].Weight)
	}
	for _, item := range items {
		if item.Weight < 0.6 || item.Weight > 1.0 {
			t.Errorf("item %q: weight %v out of range", item.Label, item.Weight)
		}
	}
}

func TestEntityFrequencyCloudCap(t *testing.T) {
	var entities []common.Entity
	for _, token := range hanRunPattern.FindAllString(strings.Repeat("甲乙丙丁戊己庚辛壬癸子丑寅卯辰巳午未申酉戌亥奇偶阴阳乾坤震巽坎离艮兑", 1), -1) {
		entities = append(entities, common.Entity{Label: token})
	}
	items := entityFrequencyCloud(entities)
	if len(items) > wordCloudCap {
		t.Errorf("expected at most %d items, got %d", wordCloudCap, len(items))
	}
}

package insight

import (
	"context"
	"testing"

	"github.com/guwenlab/insight/pkg/common"
)

func TestClassifyUsesModelAnswer(t *testing.T) {
	storage := newMemStorage()
	doc, _ := storage.CreateDocument(context.Background(), "醉翁亭记", "环滁皆山也。")
	chat := &scriptedChat{script: map[string]string{
		"Please return ONLY JSON": `{"category":"travelogue","confidence":0.92,"reasons":["山水描写"]}`,
	}}
	svc := newTestService(chat, &scriptedGeo{}, storage)

	cls, err := svc.Classify(context.Background(), doc.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if cls.Category != common.GenreTravelogue {
		t.Errorf("expected travelogue, got %q", cls.Category)
	}
	if cls.Confidence != 0.92 {
		t.Errorf("expected confidence 0.92, got %v", cls.Confidence)
	}

	stored, _ := storage.GetDocument(context.Background(), doc.ID)
	if stored.Category != common.GenreTravelogue {
		t.Errorf("category not persisted, got %q", stored.Category)
	}
	if got := chat.lastOptions().Temperature; got != 0.1 {
		t.Errorf("classification temperature = %v, want 0.1", got)
	}
}

func TestClassifyNeverUnknown(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reply   string
	}{
		{"gateway absent", "将军率兵攻敌阵。", ""},
		{"out of enumeration", "舟行山水间。", `{"category":"poetry","confidence":0.8}`},
		{"blank category", "君生于某年。", `{"category":""}`},
		{"no keywords either", "abcdef", ""},
		{"garbage reply", "田种耕播。", "not json at all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := newMemStorage()
			doc, _ := storage.CreateDocument(context.Background(), "t", tt.content)
			script := map[string]string{}
			if tt.reply != "" {
				script["Please return ONLY JSON"] = tt.reply
			}
			svc := newTestService(&scriptedChat{script: script}, &scriptedGeo{}, storage)

			cls, err := svc.Classify(context.Background(), doc.ID, "")
			if err != nil {
				t.Fatal(err)
			}
			if cls.Category == common.GenreUnknown || cls.Category == "" {
				t.Errorf("classification leaked unknown for %q", tt.content)
			}
		})
	}
}

func TestClassifyKeepsConcreteCategoryOnZeroScore(t *testing.T) {
	storage := newMemStorage()
	doc, _ := storage.CreateDocument(context.Background(), "t", "abcdef")
	_ = storage.UpdateDocumentCategory(context.Background(), doc.ID, common.GenreCrafts)
	svc := newTestService(&scriptedChat{}, &scriptedGeo{}, storage)

	cls, err := svc.Classify(context.Background(), doc.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if cls.Category != common.GenreCrafts {
		t.Errorf("expected stored crafts category kept, got %q", cls.Category)
	}
}

func TestNormalizeGenre(t *testing.T) {
	tests := []struct {
		name     string
		category common.Genre
		current  common.Genre
		expected common.Genre
	}{
		{"concrete wins", common.GenreWarfare, common.GenreOther, common.GenreWarfare},
		{"unknown keeps current", common.GenreUnknown, common.GenreBiography, common.GenreBiography},
		{"unknown over unknown", common.GenreUnknown, common.GenreUnknown, common.GenreOther},
		{"unknown over blank", common.GenreUnknown, "", common.GenreOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeGenre(tt.category, tt.current); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

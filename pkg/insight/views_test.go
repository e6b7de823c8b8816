package insight

import (
	"context"
	"testing"

	"github.com/guwenlab/insight/pkg/common"
)

func TestBuildWordCloudFromModel(t *testing.T) {
	chat := &scriptedChat{script: map[string]string{
		"最多12个关键词": `{"wordCloud":[{"label":"琅琊","weight":0.9},{"label":"醉翁亭","weight":0.8},{"label":""}]}`,
	}}
	svc := newTestService(chat, &scriptedGeo{}, newMemStorage())

	items := svc.buildWordCloud(context.Background(), "环滁皆山也", nil)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Label != "琅琊" || items[0].Weight != 0.9 {
		t.Errorf("unexpected first item %+v", items[0])
	}
}

func TestBuildWordCloudDegradesToTokens(t *testing.T) {
	svc := newTestService(&scriptedChat{}, &scriptedGeo{}, newMemStorage())

	items := svc.buildWordCloud(context.Background(), "滁州，滁州，琅琊。", nil)
	if len(items) == 0 {
		t.Fatal("expected token-frequency fallback")
	}
	if items[0].Label != "滁州" {
		t.Errorf("expected most frequent token, got %q", items[0].Label)
	}
}

func TestBuildBattlePhases(t *testing.T) {
	chat := &scriptedChat{script: map[string]string{
		`"battles"`: `{"battles":[
			{"phase":"围城","description":"大军围城三月","intensity":7,"opponent":"守军"},
			{"phase":"破城","intensity":0},
			{"phase":""}
		]}`,
	}}
	svc := newTestService(chat, &scriptedGeo{}, newMemStorage())

	phases := svc.buildBattlePhases(context.Background(), "战于城下", common.GenreWarfare)
	if len(phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(phases))
	}
	if phases[0].Intensity != 7 || phases[0].Opponent != "守军" {
		t.Errorf("unexpected phase %+v", phases[0])
	}
	if phases[1].Intensity != 5 {
		t.Errorf("expected default intensity 5, got %d", phases[1].Intensity)
	}

	if got := svc.buildBattlePhases(context.Background(), "山水游记", common.GenreTravelogue); got != nil {
		t.Errorf("non-warfare text produced phases: %v", got)
	}
}

func TestBuildFamilyTree(t *testing.T) {
	father := common.Entity{ID: "p1", Label: "苏洵", Category: common.EntityPerson}
	elder := common.Entity{ID: "p2", Label: "苏轼", Category: common.EntityPerson}
	younger := common.Entity{ID: "p3", Label: "苏辙", Category: common.EntityPerson}
	entities := []common.Entity{father, elder, younger}
	relations := []common.Relation{
		{Source: &father, Target: &elder, Type: common.RelationFamily, Evidence: "父子"},
		{Source: &father, Target: &younger, Type: common.RelationFamily, Evidence: "其子苏辙"},
		{Source: &elder, Target: &younger, Type: common.RelationFamily, Evidence: "情谊深厚"},
	}

	tree := buildFamilyTree(common.GenreBiography, entities, relations)
	if len(tree) != 1 {
		t.Fatalf("expected single root, got %d", len(tree))
	}
	root := tree[0]
	if root.Name != "苏洵" || root.Relation != "本人" {
		t.Errorf("unexpected root %+v", root)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(root.Children))
	}
	// relation without kinship evidence is skipped entirely
	for _, child := range root.Children {
		if child.Name == "苏辙" && len(child.Children) != 0 {
			t.Errorf("non-kinship relation produced a branch: %+v", child)
		}
	}

	if got := buildFamilyTree(common.GenreWarfare, entities, relations); got != nil {
		t.Errorf("non-biography text produced a tree: %v", got)
	}
}

func TestBuildOfficialTreeHeuristic(t *testing.T) {
	content := "欧阳修任滁州太守，其友为翰林学士。"
	entities := []common.Entity{
		{ID: "p1", Label: "欧阳修", Category: common.EntityPerson, Start: 0, End: 3},
	}
	svc := newTestService(&scriptedChat{}, &scriptedGeo{}, newMemStorage())

	nodes := svc.buildOfficialTree(context.Background(), content, common.GenreOfficial, entities, nil)
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	node := nodes[0]
	if node.Position != "太守" {
		t.Errorf("expected 太守, got %q", node.Position)
	}
	if node.Level != "四品" {
		t.Errorf("expected 四品, got %q", node.Level)
	}
	if node.Department != "中央机构" {
		t.Errorf("expected 中央机构, got %q", node.Department)
	}
	if node.Description != "欧阳修任太守，隶属中央机构" {
		t.Errorf("unexpected description %q", node.Description)
	}

	if got := svc.buildOfficialTree(context.Background(), content, common.GenreBiography, entities, nil); got != nil {
		t.Errorf("non-official text produced nodes: %v", got)
	}
}

func TestBuildOfficialTreeFromModel(t *testing.T) {
	chat := &scriptedChat{script: map[string]string{
		`"officials"`: `{"officials":[
			{"name":"范仲淹","position":"参知政事","level":"二品","department":"中央机构"},
			{"name":"无名氏","position":"未知官职"},
			{"name":"滕子京","position":"知府"}
		]}`,
	}}
	svc := newTestService(chat, &scriptedGeo{}, newMemStorage())

	nodes := svc.buildOfficialTree(context.Background(), "庆历新政",
		common.GenreOfficial, nil, nil)
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes after filtering, got %d", len(nodes))
	}
	for _, node := range nodes {
		if node.Position == "未知官职" {
			t.Error("placeholder position survived filtering")
		}
		if node.Description == "" {
			t.Errorf("node %q missing description", node.Name)
		}
	}
	// flat list is sorted by rank
	if nodes[0].Name != "范仲淹" {
		t.Errorf("expected highest rank first, got %q", nodes[0].Name)
	}
}

func TestPositionLevelAndDepartment(t *testing.T) {
	tests := []struct {
		position   string
		level      string
		department string
	}{
		{"丞相", "一品", "中央机构"},
		{"尚书", "二品", "六部"},
		{"御史", "未定品", "都察院"},
		{"太守", "四品", "中央机构"},
		{"知县", "七品", "地方政府"},
		{"翰林", "九品", "翰林院"},
		{"总兵", "三品", "军事系统"},
	}
	for _, tt := range tests {
		if got := positionLevel(tt.position); got != tt.level {
			t.Errorf("positionLevel(%q) = %q, expected %q", tt.position, got, tt.level)
		}
		if got := positionDepartment(tt.position); got != tt.department {
			t.Errorf("positionDepartment(%q) = %q, expected %q", tt.position, got, tt.department)
		}
	}
}

func TestBuildProcessCycleHeuristic(t *testing.T) {
	content := "春日耕田，以犁翻土。既而播种，植以秧苗。秋乃收获，镰割稻谷。"
	entities := []common.Entity{
		{ID: "e3", Label: "收获", Category: common.EntityEvent, Start: 20, End: 22},
		{ID: "e1", Label: "耕田", Category: common.EntityEvent, Start: 2, End: 4},
		{ID: "e2", Label: "播种", Category: common.EntityEvent, Start: 11, End: 13},
	}
	svc := newTestService(&scriptedChat{}, &scriptedGeo{}, newMemStorage())

	steps := svc.buildProcessCycle(context.Background(), content, common.GenreAgriculture, entities, nil)
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}
	if steps[0].Name != "耕田" || steps[1].Name != "播种" || steps[2].Name != "收获" {
		t.Errorf("steps not in textual order: %v", steps)
	}
	for i, step := range steps {
		if step.Sequence != i+1 {
			t.Errorf("step %q: expected sequence %d, got %d", step.Name, i+1, step.Sequence)
		}
		if len(step.Tools) == 0 || len(step.Materials) == 0 {
			t.Errorf("step %q missing tools or materials", step.Name)
		}
		if step.Duration < 1 {
			t.Errorf("step %q: duration %d", step.Name, step.Duration)
		}
	}
	if steps[0].Category != "整地" {
		t.Errorf("expected 整地, got %q", steps[0].Category)
	}
	if steps[1].Category != "播种" {
		t.Errorf("expected 播种, got %q", steps[1].Category)
	}

	if got := svc.buildProcessCycle(context.Background(), content, common.GenreBiography, entities, nil); got != nil {
		t.Errorf("non-process text produced steps: %v", got)
	}
}

func TestRecommendedViews(t *testing.T) {
	tests := []struct {
		category common.Genre
		first    string
	}{
		{common.GenreTravelogue, "地图"},
		{common.GenreBiography, "时间轴"},
		{common.GenreOfficial, "官职树"},
		{common.GenreAgriculture, "流程周期"},
		{common.GenreCrafts, "流程周期"},
		{common.GenreOther, "知识图谱"},
		{common.GenreWarfare, "知识图谱"},
	}
	for _, tt := range tests {
		views := recommendedViews(tt.category)
		if len(views) != 3 {
			t.Fatalf("%s: expected 3 views, got %v", tt.category, views)
		}
		if views[0] != tt.first {
			t.Errorf("%s: expected %q first, got %q", tt.category, tt.first, views[0])
		}
	}
}

package insight

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/guwenlab/insight/pkg/common"
)

var (
	toolPattern          = regexp.MustCompile(`(锄|犁|镰|耙|锹|铲|斧|锯|锤|凿|刨|钻|针|剪|刀|笔|砚)`)
	agriMaterialPattern  = regexp.MustCompile(`(种子|秧苗|粪肥|水|土|稻|麦|粟|豆|菜)`)
	craftMaterialPattern = regexp.MustCompile(`(木|竹|石|铁|铜|布|丝|纸|泥|陶|瓷)`)
)

// buildProcessCycle extracts the step sequence of an agricultural or craft
// text, degrading from model output to EVENT entities in textual order.
func (s *Service) buildProcessCycle(
	ctx context.Context,
	content string,
	category common.Genre,
	entities []common.Entity,
	relations []common.Relation,
) []common.ProcessStep {
	if category != common.GenreAgriculture && category != common.GenreCrafts {
		return nil
	}

	var labels []string
	for _, ent := range entities {
		if ent.Category == common.EntityEvent || ent.Category == common.EntityObject {
			labels = appendDistinct(labels, ent.Label)
		}
	}

	if payload, ok := s.chatJSON(ctx, processSystemPrompt, processUserPrompt(content, category, labels), ""); ok {
		var steps []common.ProcessStep
		for i, item := range payload.Get("steps").Array() {
			name := item.Get("name").String()
			if name == "" {
				continue
			}
			step := common.ProcessStep{
				Name:        name,
				Description: item.Get("description").String(),
				Sequence:    i + 1,
				Category:    item.Get("category").String(),
				Output:      item.Get("output").String(),
				Duration:    int(item.Get("duration").Int()),
			}
			for _, t := range item.Get("tools").Array() {
				if t.String() != "" {
					step.Tools = append(step.Tools, t.String())
				}
			}
			for _, m := range item.Get("materials").Array() {
				if m.String() != "" {
					step.Materials = append(step.Materials, m.String())
				}
			}
			fillStepDefaults(&step, content, category)
			steps = append(steps, step)
		}
		if len(steps) > 0 {
			return steps
		}
	}

	return heuristicProcessCycle(content, category, entities, relations)
}

// heuristicProcessCycle turns EVENT entities into steps in textual order.
func heuristicProcessCycle(
	content string,
	category common.Genre,
	entities []common.Entity,
	relations []common.Relation,
) []common.ProcessStep {
	var events []common.Entity
	for _, ent := range entities {
		if ent.Category == common.EntityEvent {
			events = append(events, ent)
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Start < events[j].Start })

	var steps []common.ProcessStep
	for i, ev := range events {
		step := common.ProcessStep{
			Name:        ev.Label,
			Description: describeEvent(content, ev),
			Sequence:    i + 1,
			Category:    stepCategory(ev.Label, category),
			Duration:    stepDuration(ev.Label),
			Output:      stepOutput(ev, relations),
		}
		fillStepDefaults(&step, content, category)
		steps = append(steps, step)
	}
	return steps
}

func fillStepDefaults(step *common.ProcessStep, content string, category common.Genre) {
	if step.Category == "" {
		step.Category = stepCategory(step.Name, category)
	}
	if step.Duration < 1 {
		step.Duration = stepDuration(step.Name)
	}
	if len(step.Tools) == 0 {
		step.Tools = matchesOrNone(toolPattern, step.Name+step.Description)
	}
	if len(step.Materials) == 0 {
		pattern := craftMaterialPattern
		if category == common.GenreAgriculture {
			pattern = agriMaterialPattern
		}
		step.Materials = matchesOrNone(pattern, step.Name+step.Description)
	}
}

func matchesOrNone(pattern *regexp.Regexp, text string) []string {
	var found []string
	for _, m := range pattern.FindAllString(text, -1) {
		found = appendDistinct(found, m)
	}
	if len(found) == 0 {
		return []string{"无"}
	}
	return found
}

func stepCategory(label string, category common.Genre) string {
	if category == common.GenreAgriculture {
		switch {
		case containsAny(label, "耕", "犁", "垦"):
			return "整地"
		case containsAny(label, "种", "播", "插"):
			return "播种"
		case containsAny(label, "灌", "溉", "浇"):
			return "灌溉"
		case containsAny(label, "收", "获", "割"):
			return "收获"
		}
		return "田间管理"
	}
	switch {
	case containsAny(label, "选", "备", "取"):
		return "备料"
	case containsAny(label, "制", "做", "造"):
		return "制作"
	case containsAny(label, "烧", "炼", "锻"):
		return "加工"
	case containsAny(label, "成", "完", "验"):
		return "成品"
	}
	return "工序"
}

func stepDuration(label string) int {
	switch {
	case containsAny(label, "烧", "炼"):
		return 3
	case containsAny(label, "种", "播", "耕"):
		return 2
	case strings.Contains(label, "收"):
		return 2
	default:
		return 1
	}
}

// stepOutput follows a CAUSE relation from the step's event to its product.
func stepOutput(ev common.Entity, relations []common.Relation) string {
	for _, rel := range relations {
		if rel.Type != common.RelationCause || rel.Source == nil || rel.Target == nil {
			continue
		}
		if rel.Source.ID == ev.ID {
			return rel.Target.Label
		}
	}
	return ""
}

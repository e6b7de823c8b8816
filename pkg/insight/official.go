package insight

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/guwenlab/insight/pkg/common"
)

var positionPattern = regexp.MustCompile(`(太守|刺史|尚书|御史|知府|知县|县令|县丞|主簿|郎中|员外郎|侍郎|给事中|翰林|学士|大学士|阁老|宰相|丞相|太师|太傅|太保|司马|司徒|司空|都督|总兵|参将|游击|守备)`)

const officialTreeCap = 10

// buildOfficialTree builds the bureaucratic hierarchy of an official-career
// text, preferring model output and degrading to regex extraction.
func (s *Service) buildOfficialTree(
	ctx context.Context,
	content string,
	category common.Genre,
	entities []common.Entity,
	relations []common.Relation,
) []common.OfficialNode {
	if category != common.GenreOfficial {
		return nil
	}

	var persons []string
	for _, ent := range entities {
		if ent.Category == common.EntityPerson {
			persons = appendDistinct(persons, ent.Label)
		}
	}

	if payload, ok := s.chatJSON(ctx, officialSystemPrompt, officialUserPrompt(content, persons), ""); ok {
		var nodes []common.OfficialNode
		for _, item := range payload.Get("officials").Array() {
			name := item.Get("name").String()
			position := item.Get("position").String()
			if name == "" || position == "" || position == "未知官职" {
				continue
			}
			node := common.OfficialNode{
				Name:        name,
				Position:    position,
				Level:       item.Get("level").String(),
				Department:  item.Get("department").String(),
				Description: item.Get("description").String(),
			}
			if node.Level == "" {
				node.Level = positionLevel(position)
			}
			if node.Department == "" {
				node.Department = positionDepartment(position)
			}
			if node.Description == "" {
				node.Description = officialDescription(node)
			}
			nodes = append(nodes, node)
		}
		if len(nodes) > 0 {
			return arrangeOfficials(nodes, relations)
		}
	}

	return heuristicOfficialTree(content, entities, relations)
}

// heuristicOfficialTree pairs each person with the nearest position title in
// the surrounding text.
func heuristicOfficialTree(content string, entities []common.Entity, relations []common.Relation) []common.OfficialNode {
	var nodes []common.OfficialNode
	seen := make(map[string]bool)
	for _, ent := range entities {
		if ent.Category != common.EntityPerson || seen[ent.Label] {
			continue
		}
		position := positionNear(content, ent)
		if position == "" {
			continue
		}
		seen[ent.Label] = true
		node := common.OfficialNode{
			Name:       ent.Label,
			Position:   position,
			Level:      positionLevel(position),
			Department: positionDepartment(position),
		}
		node.Description = officialDescription(node)
		nodes = append(nodes, node)
	}
	return arrangeOfficials(nodes, relations)
}

func positionNear(content string, ent common.Entity) string {
	runes := []rune(content)
	if ent.Start >= 0 && ent.Start < len(runes) {
		from := ent.Start - 10
		if from < 0 {
			from = 0
		}
		to := ent.End + 30
		if to > len(runes) {
			to = len(runes)
		}
		if match := positionPattern.FindString(string(runes[from:to])); match != "" {
			return match
		}
	}
	// Entities from heuristic extraction carry no span.
	idx := strings.Index(content, ent.Label)
	if idx < 0 {
		return ""
	}
	tail := content[idx:]
	if len(tail) > 120 {
		tail = tail[:120]
	}
	return positionPattern.FindString(tail)
}

func positionLevel(position string) string {
	switch {
	case containsAny(position, "太师", "太傅", "太保", "宰相", "丞相"):
		return "一品"
	case containsAny(position, "尚书", "大学士", "都督"):
		return "二品"
	case containsAny(position, "侍郎", "学士", "总兵"):
		return "三品"
	case containsAny(position, "太守", "知府", "参将"):
		return "四品"
	case containsAny(position, "刺史", "郎中", "游击"):
		return "五品"
	case containsAny(position, "员外郎", "守备"):
		return "六品"
	case containsAny(position, "知县", "给事中"):
		return "七品"
	case containsAny(position, "县丞", "主簿"):
		return "八品"
	case containsAny(position, "县令", "翰林"):
		return "九品"
	default:
		return "未定品"
	}
}

func positionDepartment(position string) string {
	switch {
	case strings.Contains(position, "尚书"):
		return "六部"
	case strings.Contains(position, "御史"):
		return "都察院"
	case containsAny(position, "翰林", "学士"):
		return "翰林院"
	case containsAny(position, "府", "州", "县"):
		return "地方政府"
	case containsAny(position, "军", "兵", "都督", "总兵"):
		return "军事系统"
	default:
		return "中央机构"
	}
}

func officialDescription(node common.OfficialNode) string {
	return fmt.Sprintf("%s任%s，隶属%s", node.Name, node.Position, node.Department)
}

// arrangeOfficials nests subordinates under superiors linked by PART_OF
// relations; without any hierarchy it returns a flat list sorted by rank.
func arrangeOfficials(nodes []common.OfficialNode, relations []common.Relation) []common.OfficialNode {
	if len(nodes) == 0 {
		return nil
	}

	byName := make(map[string]int, len(nodes))
	for i, node := range nodes {
		byName[node.Name] = i
	}

	superior := make(map[string]string)
	for _, rel := range relations {
		if rel.Type != common.RelationPartOf || rel.Source == nil || rel.Target == nil {
			continue
		}
		if _, ok := byName[rel.Source.Label]; !ok {
			continue
		}
		if _, ok := byName[rel.Target.Label]; !ok {
			continue
		}
		superior[rel.Source.Label] = rel.Target.Label
	}

	if len(superior) == 0 {
		sort.SliceStable(nodes, func(i, j int) bool {
			return levelRank(nodes[i].Level) < levelRank(nodes[j].Level)
		})
		if len(nodes) > officialTreeCap {
			nodes = nodes[:officialTreeCap]
		}
		return nodes
	}

	children := make(map[string][]string)
	for sub, sup := range superior {
		children[sup] = append(children[sup], sub)
	}

	var roots []common.OfficialNode
	for _, node := range nodes {
		if _, hasSuperior := superior[node.Name]; hasSuperior {
			continue
		}
		roots = append(roots, nestOfficial(node, nodes, byName, children, map[string]bool{node.Name: true}))
	}
	return roots
}

func nestOfficial(
	node common.OfficialNode,
	nodes []common.OfficialNode,
	byName map[string]int,
	children map[string][]string,
	seen map[string]bool,
) common.OfficialNode {
	for _, sub := range children[node.Name] {
		if seen[sub] {
			continue
		}
		seen[sub] = true
		node.Subordinates = append(node.Subordinates, nestOfficial(nodes[byName[sub]], nodes, byName, children, seen))
	}
	return node
}

func levelRank(level string) int {
	ranks := []string{"一品", "二品", "三品", "四品", "五品", "六品", "七品", "八品", "九品"}
	for i, r := range ranks {
		if level == r {
			return i
		}
	}
	return len(ranks)
}

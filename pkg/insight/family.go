package insight

import (
	"strings"

	"github.com/guwenlab/insight/pkg/common"
)

// Longer terms first so 祖父 is not shadowed by 父.
var kinshipTerms = []string{"祖父", "祖母", "父", "母", "子", "女", "兄", "弟", "姐", "妹", "妻", "夫", "孙"}

// buildFamilyTree assembles a kinship tree from FAMILY relations between
// persons. Relations whose evidence names no kinship term are skipped.
func buildFamilyTree(category common.Genre, entities []common.Entity, relations []common.Relation) []common.FamilyNode {
	if category != common.GenreBiography {
		return nil
	}

	children := make(map[string][]common.FamilyNode)
	isChild := make(map[string]bool)
	hasChildren := make(map[string]bool)

	for _, rel := range relations {
		if rel.Type != common.RelationFamily || rel.Source == nil || rel.Target == nil {
			continue
		}
		if rel.Source.Category != common.EntityPerson || rel.Target.Category != common.EntityPerson {
			continue
		}
		kinship := inferKinship(rel.Evidence)
		if kinship == "" {
			continue
		}
		parent := rel.Source.Label
		children[parent] = append(children[parent], common.FamilyNode{
			Name:     rel.Target.Label,
			Relation: kinship,
		})
		isChild[rel.Target.Label] = true
		hasChildren[parent] = true
	}

	var roots []common.FamilyNode
	for _, ent := range entities {
		if ent.Category != common.EntityPerson {
			continue
		}
		if isChild[ent.Label] || !hasChildren[ent.Label] {
			continue
		}
		roots = append(roots, common.FamilyNode{
			Name:     ent.Label,
			Relation: "本人",
			Children: attachChildren(ent.Label, children, map[string]bool{ent.Label: true}),
		})
	}
	return roots
}

func attachChildren(name string, children map[string][]common.FamilyNode, seen map[string]bool) []common.FamilyNode {
	var nodes []common.FamilyNode
	for _, child := range children[name] {
		if seen[child.Name] {
			continue
		}
		seen[child.Name] = true
		child.Children = attachChildren(child.Name, children, seen)
		nodes = append(nodes, child)
	}
	return nodes
}

func inferKinship(evidence string) string {
	for _, term := range kinshipTerms {
		if strings.Contains(evidence, term) {
			return term
		}
	}
	return ""
}

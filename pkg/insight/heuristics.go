package insight

import (
	"regexp"
	"sort"
	"strings"

	"github.com/guwenlab/insight/pkg/common"
)

// genreKeywords scores a text against each genre by counting every occurrence
// of a fixed keyword set. The lists are tuned for classical usage, not modern
// vocabulary.
var genreKeywords = map[common.Genre][]string{
	common.GenreWarfare:     {"战", "兵", "攻", "军", "将", "敌", "阵", "戎"},
	common.GenreTravelogue:  {"山", "水", "江", "河", "湖", "舟", "行", "游", "路", "岭", "津"},
	common.GenreBiography:   {"生", "卒", "字", "号", "君", "父", "母", "兄", "子", "仕", "官", "谥", "年"},
	common.GenreOfficial:    {"官", "职", "尚书", "御史", "太守", "知府", "刺史", "令", "丞", "郎", "侍", "阁", "部", "司"},
	common.GenreAgriculture: {"田", "种", "耕", "播", "收", "稼", "穑", "农", "桑", "蚕", "丝", "麦", "稻", "谷", "粮", "肥"},
	common.GenreCrafts:      {"工", "匠", "制", "造", "铸", "锻", "织", "染", "烧", "炼", "器", "具", "技", "法", "术"},
}

func countKeywords(content string, keywords []string) int {
	score := 0
	for _, keyword := range keywords {
		score += strings.Count(content, keyword)
	}
	return score
}

// heuristicClassify is the local classification fallback used whenever the
// chat gateway is absent or answers outside the closed genre set. A best
// score of zero yields GenreUnknown so the caller can apply its own default.
func heuristicClassify(content string) common.Classification {
	bestGenre := common.GenreUnknown
	bestScore := 0

	// stable arg-max: iterate in a fixed order so equal scores do not
	// flip between runs
	for _, genre := range []common.Genre{
		common.GenreWarfare, common.GenreTravelogue, common.GenreBiography,
		common.GenreOfficial, common.GenreAgriculture, common.GenreCrafts,
	} {
		score := countKeywords(content, genreKeywords[genre])
		if score > bestScore {
			bestScore = score
			bestGenre = genre
		}
	}

	confidence := 0.55 + 0.05*float64(bestScore)
	if confidence > 0.9 {
		confidence = 0.9
	}

	return common.Classification{
		Category:   bestGenre,
		Confidence: confidence,
		Reasons:    []string{"本地关键词推断：" + bestGenre.Label()},
	}
}

var hanRunPattern = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]{2,3}`)

const (
	heuristicEntityCap   = 12
	heuristicRelationCap = 8
)

// heuristicEntities collects up to 12 distinct runs of 2-3 Han characters as
// placeholder entities. They carry a zero span because they are synthesized,
// not located, and default to PERSON as the fallback category.
func heuristicEntities(content string) []common.Entity {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var entities []common.Entity
	for _, token := range hanRunPattern.FindAllString(content, -1) {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		entities = append(entities, common.Entity{
			Label:      token,
			Category:   common.EntityPerson,
			Confidence: 0.5,
		})
		if len(entities) >= heuristicEntityCap {
			break
		}
	}
	return entities
}

// heuristicRelations chains entities pairwise in encounter order into at most
// 8 CUSTOM relations. It only ever references entities from its input, so the
// output can never dangle.
func heuristicRelations(entities []common.Entity) []common.Relation {
	if len(entities) < 2 {
		return nil
	}

	var relations []common.Relation
	for i := 0; i < len(entities)-1 && len(relations) < heuristicRelationCap; i++ {
		relations = append(relations, common.Relation{
			Source:     &entities[i],
			Target:     &entities[i+1],
			Type:       common.RelationCustom,
			Confidence: 0.5,
			Evidence:   "相邻共现",
		})
	}
	return relations
}

// entityFrequencyCloud ranks entity labels by occurrence count, the first
// word-cloud fallback when the model path yields nothing.
func entityFrequencyCloud(entities []common.Entity) []common.WordCloudItem {
	if len(entities) == 0 {
		return nil
	}

	freq := make(map[string]int)
	var order []string
	for _, ent := range entities {
		label := strings.TrimSpace(ent.Label)
		if label == "" {
			continue
		}
		if _, ok := freq[label]; !ok {
			order = append(order, label)
		}
		freq[label]++
	}

	return rankCloud(freq, order)
}

var cloudTokenSplitter = regexp.MustCompile(`[，。、；：？！\s]+`)

// tokenFrequencyCloud is the last word-cloud fallback: a raw token frequency
// over the punctuation-split text.
func tokenFrequencyCloud(content string) []common.WordCloudItem {
	freq := make(map[string]int)
	var order []string
	for _, token := range cloudTokenSplitter.Split(content, -1) {
		if len([]rune(token)) < 2 {
			continue
		}
		if _, ok := freq[token]; !ok {
			order = append(order, token)
		}
		freq[token]++
	}

	return rankCloud(freq, order)
}

const wordCloudCap = 12

// rankCloud sorts by descending count (first-seen order breaking ties) and
// scales weights into [0.6, 1.0].
func rankCloud(freq map[string]int, order []string) []common.WordCloudItem {
	if len(freq) == 0 {
		return nil
	}

	firstSeen := make(map[string]int, len(order))
	for i, label := range order {
		firstSeen[label] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if freq[order[i]] != freq[order[j]] {
			return freq[order[i]] > freq[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	max := 1
	for _, count := range freq {
		if count > max {
			max = count
		}
	}

	limit := min(len(order), wordCloudCap)
	items := make([]common.WordCloudItem, 0, limit)
	for _, label := range order[:limit] {
		items = append(items, common.WordCloudItem{
			Label:  label,
			Weight: 0.6 + 0.4*float64(freq[label])/float64(max),
		})
	}
	return items
}

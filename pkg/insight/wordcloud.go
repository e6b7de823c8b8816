package insight

import (
	"context"

	"github.com/guwenlab/insight/pkg/common"
	"github.com/guwenlab/insight/pkg/logger"
)

// buildWordCloud degrades in three steps: model keyword extraction, entity
// frequency ranking, raw token frequency.
func (s *Service) buildWordCloud(
	ctx context.Context,
	content string,
	entities []common.Entity,
) []common.WordCloudItem {
	labels := make([]string, 0, min(len(entities), 20))
	for _, ent := range entities {
		labels = append(labels, ent.Label)
		if len(labels) >= 20 {
			break
		}
	}

	payload, ok := s.chatJSON(ctx, wordCloudSystemPrompt, wordCloudUserPrompt(content, labels), "")
	if ok {
		var items []common.WordCloudItem
		for _, item := range payload.Get("wordCloud").Array() {
			label := item.Get("label").String()
			if label == "" {
				continue
			}
			weight := item.Get("weight").Float()
			if weight == 0 {
				weight = 0.5
			}
			items = append(items, common.WordCloudItem{Label: label, Weight: weight})
		}
		if len(items) > 0 {
			logger.Debug("word cloud built from model", "keywords", len(items))
			return items
		}
	}

	if items := entityFrequencyCloud(entities); len(items) > 0 {
		return items
	}
	return tokenFrequencyCloud(content)
}

package insight

import (
	"context"

	"github.com/guwenlab/insight/pkg/common"
)

// buildBattlePhases splits a warfare narrative into phases. Only warfare
// texts get this view; there is no heuristic fallback.
func (s *Service) buildBattlePhases(ctx context.Context, content string, category common.Genre) []common.BattlePhase {
	if category != common.GenreWarfare {
		return nil
	}

	payload, ok := s.chatJSON(ctx, battleSystemPrompt, battleUserPrompt(content), "")
	if !ok {
		return nil
	}

	var phases []common.BattlePhase
	for _, item := range payload.Get("battles").Array() {
		phase := item.Get("phase").String()
		if phase == "" {
			continue
		}
		intensity := int(item.Get("intensity").Int())
		if intensity < 1 || intensity > 10 {
			intensity = 5
		}
		phases = append(phases, common.BattlePhase{
			Phase:       phase,
			Description: item.Get("description").String(),
			Intensity:   intensity,
			Opponent:    item.Get("opponent").String(),
		})
	}
	return phases
}

package insight

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/guwenlab/insight/pkg/ai"
	"github.com/guwenlab/insight/pkg/common"
	"github.com/guwenlab/insight/pkg/logger"
)

var dateLabelPattern = regexp.MustCompile(`(春|夏|秋|冬|元|初|仲|暮|上|中|下|朔|望|晦|甲子|乙丑|丙寅|丁卯|戊辰|己巳|庚午|辛未|壬申|癸酉|甲戌|乙亥|\d+年|\d+月|\d+日)`)

const (
	participantWindow = 150
	dateLabelWindow   = 20
	descriptionLimit  = 100
)

// buildTimeline enriches every EVENT entity into a timeline item, one task
// per event on the shared pool so a slow impact call costs one slot instead
// of serializing the whole view. Events that miss the join are dropped;
// documents without tagged events, or where every enrichment missed, fall
// back to a single model call.
func (s *Service) buildTimeline(
	ctx context.Context,
	content string,
	category common.Genre,
	entities []common.Entity,
	relations []common.Relation,
) []common.TimelineEvent {
	var eventEntities []common.Entity
	for _, ent := range entities {
		if ent.Category == common.EntityEvent {
			eventEntities = append(eventEntities, ent)
		}
	}

	if len(eventEntities) == 0 {
		events := s.timelineFromModel(ctx, content, category)
		sort.SliceStable(events, func(i, j int) bool { return events[i].Start < events[j].Start })
		return events
	}

	tasks := make([]*task[common.TimelineEvent], len(eventEntities))
	for i, ent := range eventEntities {
		tasks[i] = runTask(s, func() common.TimelineEvent {
			return s.enrichEvent(ctx, content, category, ent, entities, relations)
		})
	}

	deadline := newDeadline(s.joinTimeout)
	events := make([]common.TimelineEvent, 0, len(eventEntities))
	missed := 0
	for _, tk := range tasks {
		ev, ok := tk.await(deadline)
		if !ok {
			missed++
			continue
		}
		events = append(events, ev)
	}
	if missed > 0 {
		logger.Warn("timeline enrichment degraded",
			"missed", missed,
			"total", len(eventEntities),
		)
	}
	if len(events) == 0 {
		events = s.timelineFromModel(ctx, content, category)
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Start < events[j].Start })
	return events
}

func (s *Service) enrichEvent(
	ctx context.Context,
	content string,
	category common.Genre,
	event common.Entity,
	entities []common.Entity,
	relations []common.Relation,
) common.TimelineEvent {
	degree := relationDegree(event, relations)

	return common.TimelineEvent{
		Title:        event.Label,
		Description:  describeEvent(content, event),
		DateLabel:    findDateLabel(content, event),
		Significance: eventSignificance(event.Confidence, degree),
		EventType:    determineEventType(event.Label, category),
		Location:     findEventLocation(event, entities, relations),
		Participants: findEventParticipants(category, event, entities, relations),
		Impact:       s.describeImpact(ctx, category, event),
		EntityID:     event.ID,
		Start:        event.Start,
		End:          event.End,
	}
}

func determineEventType(label string, category common.Genre) string {
	switch {
	case containsAny(label, "出生", "诞"):
		return "birth"
	case containsAny(label, "逝世", "卒", "殁"):
		return "death"
	case containsAny(label, "任", "官", "授"):
		return "official"
	case containsAny(label, "战", "役", "攻"):
		return "battle"
	case containsAny(label, "行", "游", "至"):
		return "travel"
	case containsAny(label, "成就", "功"):
		return "achievement"
	}

	switch category {
	case common.GenreBiography:
		return "life"
	case common.GenreTravelogue:
		return "travel"
	case common.GenreWarfare:
		return "military"
	default:
		return "default"
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func relationDegree(event common.Entity, relations []common.Relation) int {
	degree := 0
	for _, rel := range relations {
		if touchesEntity(rel, event.ID) {
			degree++
		}
	}
	return degree
}

func touchesEntity(rel common.Relation, entityID string) bool {
	if rel.Source != nil && rel.Source.ID == entityID {
		return true
	}
	return rel.Target != nil && rel.Target.ID == entityID
}

func eventSignificance(confidence float64, degree int) int {
	sig := int(confidence*5) + degree
	if sig < 1 {
		sig = 1
	}
	if sig > 10 {
		sig = 10
	}
	return sig
}

// findDateLabel scans a window around the event span for classical date
// markers such as sexagenary cycle pairs or season characters.
func findDateLabel(content string, event common.Entity) string {
	runes := []rune(content)
	if len(runes) == 0 || event.Start >= len(runes) {
		return ""
	}
	from := event.Start - dateLabelWindow
	if from < 0 {
		from = 0
	}
	to := event.End + dateLabelWindow
	if to > len(runes) {
		to = len(runes)
	}
	if from >= to {
		return ""
	}
	return dateLabelPattern.FindString(string(runes[from:to]))
}

func describeEvent(content string, event common.Entity) string {
	runes := []rune(content)
	if len(runes) == 0 || event.Start >= len(runes) || event.Start < 0 {
		return event.Label
	}
	to := event.Start + descriptionLimit
	if to >= len(runes) {
		return string(runes[event.Start:])
	}
	return string(runes[event.Start:to]) + "..."
}

func findEventLocation(event common.Entity, entities []common.Entity, relations []common.Relation) string {
	for _, rel := range relations {
		if !touchesEntity(rel, event.ID) {
			continue
		}
		if other := otherEnd(rel, event.ID); other != nil && other.Category == common.EntityLocation {
			return other.Label
		}
	}
	for _, ent := range entities {
		if ent.Category == common.EntityLocation {
			return ent.Label
		}
	}
	return ""
}

func otherEnd(rel common.Relation, entityID string) *common.Entity {
	if rel.Source != nil && rel.Source.ID == entityID {
		return rel.Target
	}
	if rel.Target != nil && rel.Target.ID == entityID {
		return rel.Source
	}
	return nil
}

// findEventParticipants resolves participants along a degrading chain:
// relation-linked persons, persons near the event span, the most confident
// biography subjects, any two persons, and finally a literal 无.
func findEventParticipants(
	category common.Genre,
	event common.Entity,
	entities []common.Entity,
	relations []common.Relation,
) []string {
	var linked []string
	for _, rel := range relations {
		if !touchesEntity(rel, event.ID) {
			continue
		}
		if other := otherEnd(rel, event.ID); other != nil && other.Category == common.EntityPerson {
			linked = appendDistinct(linked, other.Label)
		}
	}
	if len(linked) > 0 {
		return linked
	}

	var nearby []string
	for _, ent := range entities {
		if ent.Category != common.EntityPerson {
			continue
		}
		dist := ent.Start - event.Start
		if dist < 0 {
			dist = -dist
		}
		if dist <= participantWindow {
			nearby = appendDistinct(nearby, ent.Label)
		}
	}
	if len(nearby) > 0 {
		return nearby
	}

	persons := make([]common.Entity, 0, 4)
	for _, ent := range entities {
		if ent.Category == common.EntityPerson {
			persons = append(persons, ent)
		}
	}
	if len(persons) == 0 {
		return []string{"无"}
	}

	if category == common.GenreBiography {
		sort.SliceStable(persons, func(i, j int) bool { return persons[i].Confidence > persons[j].Confidence })
	}
	var picked []string
	for _, p := range persons {
		picked = appendDistinct(picked, p.Label)
		if len(picked) >= 2 {
			break
		}
	}
	return picked
}

func appendDistinct(list []string, label string) []string {
	for _, existing := range list {
		if existing == label {
			return list
		}
	}
	return append(list, label)
}

// describeImpact asks the model first, then falls back to keyword and genre
// based stock phrasing.
func (s *Service) describeImpact(ctx context.Context, category common.Genre, event common.Entity) string {
	// the prompt asks for 50-80 characters, cap runaway completions
	if payload, ok := s.chatJSON(ctx, impactSystemPrompt, impactUserPrompt(event.Label, category), "",
		ai.WithMaxTokens(200)); ok {
		if impact := strings.TrimSpace(payload.Get("impact").String()); impact != "" {
			return impact
		}
	}

	label := event.Label
	switch {
	case strings.Contains(label, "卒"):
		return "标志着一个时代的结束"
	case containsAny(label, "任", "官", "授"):
		return "影响其仕途发展"
	case strings.Contains(label, "战"):
		return "对当时军事格局产生影响"
	case containsAny(label, "著", "书", "作"):
		return "对后世文化产生影响"
	}

	switch category {
	case common.GenreBiography:
		return "记录人物生平的重要时刻"
	case common.GenreWarfare:
		return "对战局产生一定影响"
	case common.GenreTravelogue:
		return "记录旅程中的见闻"
	}
	return "无"
}

func (s *Service) timelineFromModel(ctx context.Context, content string, category common.Genre) []common.TimelineEvent {
	payload, ok := s.chatJSON(ctx, timelineSystemPrompt, timelineUserPrompt(content, category), "")
	if !ok {
		logger.Warn("timeline generation degraded, no usable model reply")
		return nil
	}

	var events []common.TimelineEvent
	for i, item := range payload.Get("timeline").Array() {
		title := item.Get("title").String()
		if title == "" {
			continue
		}
		sig := int(item.Get("significance").Int())
		if sig < 1 {
			sig = 5
		}
		eventType := item.Get("eventType").String()
		if eventType == "" {
			eventType = determineEventType(title, category)
		}
		participants := make([]string, 0, 2)
		for _, p := range item.Get("participants").Array() {
			if p.String() != "" {
				participants = appendDistinct(participants, p.String())
			}
		}
		if len(participants) == 0 {
			participants = []string{"无"}
		}
		events = append(events, common.TimelineEvent{
			Title:        title,
			Description:  item.Get("description").String(),
			DateLabel:    item.Get("dateLabel").String(),
			Significance: sig,
			EventType:    eventType,
			Location:     item.Get("location").String(),
			Participants: participants,
			Impact:       item.Get("impact").String(),
			Start:        i,
		})
	}
	return events
}

package common

import "strings"

// Genre is the closed classification of a document. Unknown is transient:
// it only exists before classification has run, never after.
type Genre string

const (
	GenreWarfare     Genre = "warfare"
	GenreTravelogue  Genre = "travelogue"
	GenreBiography   Genre = "biography"
	GenreOfficial    Genre = "official"
	GenreAgriculture Genre = "agriculture"
	GenreCrafts      Genre = "crafts"
	GenreOther       Genre = "other"
	GenreUnknown     Genre = "unknown"
)

var genreLabels = map[Genre]string{
	GenreWarfare:     "战争纪实",
	GenreTravelogue:  "游记地理",
	GenreBiography:   "人物传记",
	GenreOfficial:    "官职体系",
	GenreAgriculture: "农书类",
	GenreCrafts:      "工艺技术",
	GenreOther:       "其他",
	GenreUnknown:     "综合待识别",
}

// ParseGenre lowercases and validates a genre name. Anything outside the
// closed set, including "unknown", maps to GenreUnknown so callers can apply
// their own fallback.
func ParseGenre(s string) Genre {
	switch g := Genre(strings.ToLower(strings.TrimSpace(s))); g {
	case GenreWarfare, GenreTravelogue, GenreBiography, GenreOfficial,
		GenreAgriculture, GenreCrafts, GenreOther:
		return g
	default:
		return GenreUnknown
	}
}

// Label returns the human-readable Chinese label for the genre.
func (g Genre) Label() string {
	if label, ok := genreLabels[g]; ok {
		return label
	}
	return genreLabels[GenreUnknown]
}

// Document is a classical-Chinese source text. Content is immutable once
// stored; Category is written back exactly once per classification run.
type Document struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category Genre  `json:"category"`
}

// EntityCategory classifies an extracted entity.
type EntityCategory string

const (
	EntityPerson       EntityCategory = "PERSON"
	EntityLocation     EntityCategory = "LOCATION"
	EntityEvent        EntityCategory = "EVENT"
	EntityOrganization EntityCategory = "ORGANIZATION"
	EntityObject       EntityCategory = "OBJECT"
	EntityCustom       EntityCategory = "CUSTOM"
)

// ParseEntityCategory normalizes a model-provided category; anything outside
// the closed set becomes CUSTOM.
func ParseEntityCategory(s string) EntityCategory {
	switch c := EntityCategory(strings.ToUpper(strings.TrimSpace(s))); c {
	case EntityPerson, EntityLocation, EntityEvent, EntityOrganization, EntityObject:
		return c
	default:
		return EntityCustom
	}
}

// Entity is a labeled mention located in the document text by the rune span
// [Start, End). Heuristically synthesized entities carry a zero span because
// they have no located mention.
type Entity struct {
	ID         string         `json:"id"`
	DocumentID int64          `json:"document_id"`
	Label      string         `json:"label"`
	Category   EntityCategory `json:"category"`
	Start      int            `json:"start"`
	End        int            `json:"end"`
	Confidence float64        `json:"confidence"`
}

// RelationType classifies an edge between two entities.
type RelationType string

const (
	RelationAlly       RelationType = "ALLY"
	RelationSupport    RelationType = "SUPPORT"
	RelationRival      RelationType = "RIVAL"
	RelationConflict   RelationType = "CONFLICT"
	RelationFamily     RelationType = "FAMILY"
	RelationMentor     RelationType = "MENTOR"
	RelationInfluence  RelationType = "INFLUENCE"
	RelationLocationOf RelationType = "LOCATION_OF"
	RelationPartOf     RelationType = "PART_OF"
	RelationCause      RelationType = "CAUSE"
	RelationTemporal   RelationType = "TEMPORAL"
	RelationTravel     RelationType = "TRAVEL"
	RelationCustom     RelationType = "CUSTOM"
)

// ParseRelationType normalizes a model-provided relation type; anything
// outside the closed set becomes CUSTOM.
func ParseRelationType(s string) RelationType {
	switch r := RelationType(strings.ToUpper(strings.TrimSpace(s))); r {
	case RelationAlly, RelationSupport, RelationRival, RelationConflict,
		RelationFamily, RelationMentor, RelationInfluence, RelationLocationOf,
		RelationPartOf, RelationCause, RelationTemporal, RelationTravel:
		return r
	default:
		return RelationCustom
	}
}

// Relation is a directional edge between two entities of the same extraction
// run. A relation whose endpoints cannot be resolved against the run's entity
// set is dropped, never persisted dangling.
type Relation struct {
	ID         string       `json:"id"`
	DocumentID int64        `json:"document_id"`
	Source     *Entity      `json:"source"`
	Target     *Entity      `json:"target"`
	Type       RelationType `json:"type"`
	Confidence float64      `json:"confidence"`
	Evidence   string       `json:"evidence"`
}

// Section is one punctuated sentence segment of a document.
type Section struct {
	ID         int64  `json:"id"`
	DocumentID int64  `json:"document_id"`
	Seq        int    `json:"seq"`
	Original   string `json:"original"`
	Punctuated string `json:"punctuated"`
	Summary    string `json:"summary"`
}

// Geo point provenance tags.
const (
	GeoSourceTencentMap = "tencent_map"
	GeoSourceFallback   = "fallback"
)

// GeoPoint is one resolved coordinate per requested entity. Latitude and
// longitude are always populated; Source records whether the coordinate came
// from a real geocode lookup or the synthetic fallback.
type GeoPoint struct {
	EntityID  string         `json:"entity_id,omitempty"`
	Label     string         `json:"label"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Source    string         `json:"source"`
	Note      string         `json:"note,omitempty"`
	Category  EntityCategory `json:"category,omitempty"`
}

// MapPoint is a GeoPoint projected into the insight response, numbered in
// input order.
type MapPoint struct {
	Label     string  `json:"label"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Sequence  int     `json:"sequence"`
}

// TimelineEvent is one enriched event on the document timeline. Participants
// is never empty ("无" stands in when nobody could be found); an empty Impact
// means "not applicable", not "unknown".
type TimelineEvent struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	DateLabel    string   `json:"date_label,omitempty"`
	Significance int      `json:"significance"`
	EventType    string   `json:"event_type"`
	Location     string   `json:"location,omitempty"`
	Participants []string `json:"participants"`
	Impact       string   `json:"impact,omitempty"`
	EntityID     string   `json:"entity_id,omitempty"`
	Start        int      `json:"start"`
	End          int      `json:"end"`
}

// WordCloudItem is one weighted keyword.
type WordCloudItem struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// BattlePhase is one phase of a warfare narrative.
type BattlePhase struct {
	Phase       string `json:"phase"`
	Description string `json:"description"`
	Intensity   int    `json:"intensity"`
	Opponent    string `json:"opponent,omitempty"`
}

// FamilyNode is a node in the kinship tree of a biography.
type FamilyNode struct {
	Name     string       `json:"name"`
	Relation string       `json:"relation"`
	Children []FamilyNode `json:"children,omitempty"`
}

// OfficialNode is a node in the official-rank hierarchy.
type OfficialNode struct {
	Name         string         `json:"name"`
	Position     string         `json:"position"`
	Level        string         `json:"level"`
	Department   string         `json:"department"`
	Description  string         `json:"description"`
	Subordinates []OfficialNode `json:"subordinates,omitempty"`
}

// ProcessStep is one step of an agricultural or craft process cycle.
type ProcessStep struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Sequence    int      `json:"sequence"`
	Category    string   `json:"category"`
	Tools       []string `json:"tools"`
	Materials   []string `json:"materials"`
	Output      string   `json:"output,omitempty"`
	Duration    int      `json:"duration"`
}

// Stats are the synchronous counters of an insight build.
type Stats struct {
	EntityCount         int     `json:"entity_count"`
	RelationCount       int     `json:"relation_count"`
	PunctuationProgress float64 `json:"punctuation_progress"`
}

// Insight build modes.
const (
	InsightModeLight = "light"
	InsightModeFull  = "full"
)

// Insights is the aggregate multi-view result of one build call. It is
// assembled once and never mutated after return; timed-out views appear as
// empty slices.
type Insights struct {
	DocumentID       int64           `json:"document_id"`
	Category         Genre           `json:"category"`
	Stats            Stats           `json:"stats"`
	WordCloud        []WordCloudItem `json:"word_cloud"`
	Timeline         []TimelineEvent `json:"timeline"`
	MapPoints        []MapPoint      `json:"map_points"`
	BattlePhases     []BattlePhase   `json:"battle_phases"`
	FamilyTree       []FamilyNode    `json:"family_tree"`
	OfficialTree     []OfficialNode  `json:"official_tree"`
	ProcessCycle     []ProcessStep   `json:"process_cycle"`
	RecommendedViews []string        `json:"recommended_views"`
	Summary          string          `json:"summary"`
	Mode             string          `json:"mode"`
}

// Classification is the outcome of the classification resolver. Category is
// always a concrete genre, never unknown.
type Classification struct {
	DocumentID int64    `json:"document_id"`
	Category   Genre    `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// Annotation summarizes one extraction run.
type Annotation struct {
	DocumentID       int64  `json:"document_id"`
	CreatedEntities  int    `json:"created_entities"`
	CreatedRelations int    `json:"created_relations"`
	Message          string `json:"message"`
}

// Analysis is the composed result of a full-analysis run.
type Analysis struct {
	Classification Classification `json:"classification"`
	Annotation     Annotation     `json:"annotation"`
	Insights       Insights       `json:"insights"`
	Sections       []Section      `json:"sections"`
}

package insight

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/guwenlab/insight/pkg/common"
	"github.com/guwenlab/insight/pkg/logger"
)

// China centroid, the anchor of last resort when even the country name
// cannot be geocoded.
const (
	fallbackAnchorLabel = "中国"
	fallbackAnchorLat   = 35.675
	fallbackAnchorLng   = 104.195
	jitterBox           = 0.03
)

var modernNameSuffixes = []string{"风景区", "景区", "旅游区"}

// ResolveGeoPoints produces exactly one GeoPoint per input entity. Entities
// resolve independently over the shared worker pool but are reassembled in
// input order, and a whole-batch outage degrades to one shared anchor plus
// per-entity deterministic jitter rather than a single stacked marker.
func (s *Service) ResolveGeoPoints(
	ctx context.Context,
	entities []common.Entity,
	model string,
) []common.GeoPoint {
	if len(entities) == 0 {
		return nil
	}

	modernNames := s.modernNameMapping(ctx, entities, model)

	// anchor shared lazily with the first entity in the batch that resolves
	anchor := &sharedAnchor{}

	tasks := make([]*task[common.GeoPoint], len(entities))
	for i := range entities {
		ent := entities[i]
		tasks[i] = runTask(s, func() common.GeoPoint {
			return s.resolveOne(ctx, ent, modernNames[ent.ID], anchor)
		})
	}

	deadline := newDeadline(s.joinTimeout)
	points := make([]common.GeoPoint, len(entities))
	for i, t := range tasks {
		point, ok := t.await(deadline)
		if !ok {
			// a point is still owed even when the task ran out of budget
			point = s.fallbackPoint(ctx, entities[i], anchor)
		}
		points[i] = point
	}
	return points
}

// modernNameMapping asks the chat gateway to map classical place names to
// modern searchable ones. Absence simply yields an empty map; the per-entity
// chain still has the raw label to work with.
func (s *Service) modernNameMapping(
	ctx context.Context,
	entities []common.Entity,
	model string,
) map[string]string {
	payload, ok := s.chatJSON(ctx, geoSystemPrompt, geoUserPrompt(entities), model)
	if !ok {
		logger.Debug("modern-name mapping absent", "entities", len(entities))
		return nil
	}

	names := make(map[string]string)
	items := payload.Array()
	if payload.IsObject() {
		items = append(items[:0], payload)
	}
	for _, item := range items {
		id := item.Get("entityId").String()
		modern := strings.TrimSpace(item.Get("modernName").String())
		if id != "" && modern != "" {
			names[id] = modern
		}
	}
	return names
}

// resolveOne walks the per-entity chain: modern name, suffix-stripped modern
// name, raw label, country-prefixed label, then the jittered fallback anchor.
func (s *Service) resolveOne(
	ctx context.Context,
	ent common.Entity,
	modernName string,
	anchor *sharedAnchor,
) common.GeoPoint {
	if modernName != "" {
		if lat, lng, ok := s.geocoder.Geocode(ctx, modernName); ok {
			return anchor.hit(ent, lat, lng, modernName)
		}
		if stripped := stripModernSuffix(modernName); stripped != modernName {
			if lat, lng, ok := s.geocoder.Geocode(ctx, stripped); ok {
				return anchor.hit(ent, lat, lng, modernName)
			}
		}
	}

	label := strings.TrimSpace(ent.Label)
	if lat, lng, ok := s.geocoder.Geocode(ctx, label); ok {
		return anchor.hit(ent, lat, lng, "")
	}
	if lat, lng, ok := s.geocoder.Geocode(ctx, fallbackAnchorLabel+label); ok {
		return anchor.hit(ent, lat, lng, "")
	}

	return s.fallbackPoint(ctx, ent, anchor)
}

func stripModernSuffix(name string) string {
	for _, suffix := range modernNameSuffixes {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSpace(strings.TrimSuffix(name, suffix))
		}
	}
	return name
}

// fallbackPoint jitters the shared anchor by a hash of the entity's own ID,
// so repeated calls for the same entity land on the same coordinate while
// colliding markers still spread visually.
func (s *Service) fallbackPoint(ctx context.Context, ent common.Entity, anchor *sharedAnchor) common.GeoPoint {
	baseLat, baseLng := anchor.base(func() (float64, float64, bool) {
		return s.geocoder.Geocode(ctx, fallbackAnchorLabel)
	})
	latJitter, lngJitter := jitterFor(ent.ID)

	return common.GeoPoint{
		EntityID:  ent.ID,
		Label:     ent.Label,
		Latitude:  baseLat + latJitter,
		Longitude: baseLng + lngJitter,
		Source:    common.GeoSourceFallback,
		Note:      "未能解析，使用回退坐标",
		Category:  ent.Category,
	}
}

// jitterFor derives a deterministic offset in ±jitterBox per axis from the
// entity ID. Identity-seeded, never wall-clock or call order.
func jitterFor(entityID string) (float64, float64) {
	h := fnv.New64a()
	h.Write([]byte(entityID))
	seed := h.Sum64()

	lat := (float64(seed&0xffff)/0xffff*2 - 1) * jitterBox
	lng := (float64((seed>>16)&0xffff)/0xffff*2 - 1) * jitterBox
	return lat, lng
}

// sharedAnchor is the lazily-discovered fallback base for one resolution
// batch: the first successfully geocoded coordinate, else the geocoded
// country anchor (looked up at most once per batch), else the centroid
// constant.
type sharedAnchor struct {
	mu  sync.Mutex
	lat float64
	lng float64
	set bool

	countryOnce sync.Once
	countryLat  float64
	countryLng  float64
	countryOK   bool
}

func (a *sharedAnchor) hit(ent common.Entity, lat, lng float64, note string) common.GeoPoint {
	a.mu.Lock()
	if !a.set {
		a.lat, a.lng, a.set = lat, lng, true
	}
	a.mu.Unlock()

	return common.GeoPoint{
		EntityID:  ent.ID,
		Label:     ent.Label,
		Latitude:  lat,
		Longitude: lng,
		Source:    common.GeoSourceTencentMap,
		Note:      note,
		Category:  ent.Category,
	}
}

func (a *sharedAnchor) base(geocodeCountry func() (float64, float64, bool)) (float64, float64) {
	a.mu.Lock()
	if a.set {
		lat, lng := a.lat, a.lng
		a.mu.Unlock()
		return lat, lng
	}
	a.mu.Unlock()

	a.countryOnce.Do(func() {
		a.countryLat, a.countryLng, a.countryOK = geocodeCountry()
	})
	if a.countryOK {
		return a.countryLat, a.countryLng
	}
	return fallbackAnchorLat, fallbackAnchorLng
}

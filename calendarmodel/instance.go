package calendarmodel

import (
	"time"

	"github.com/emersion/go-ical"
)

// EventInstance is the materialized view of one occurrence of an
// event, after layering its override (if any) over the event's base
// properties.
type EventInstance struct {
	UID      string
	DTStart  time.Time
	DTEnd    time.Time
	Duration time.Duration

	Indexed IndexedProperties
	Passive []*ical.Prop
}

// Assemble layers override (which may be nil, meaning the occurrence
// carries no override) over the event's base properties to build the
// EventInstance for the occurrence starting at dtstart. Per spec §4.4
// step 7: an absent override field falls back to base, a present field
// replaces it, and a present-but-empty field drops the base
// contribution entirely.
func Assemble(e *Event, dtstart time.Time, override *OccurrenceOverride) EventInstance {
	inst := EventInstance{
		UID:     e.UID,
		DTStart: dtstart,
		Indexed: cloneIndexedProperties(e.Indexed),
		Passive: e.Passive.Props,
	}

	duration := e.Schedule.EffectiveDuration()
	dtend := dtstart.Add(duration)

	if override != nil {
		if override.DTStart != nil {
			inst.DTStart = *override.DTStart
		}
		if override.Duration != nil {
			duration = *override.Duration
			dtend = inst.DTStart.Add(duration)
		}
		if override.DTEnd != nil {
			dtend = *override.DTEnd
			duration = dtend.Sub(inst.DTStart)
		}

		if override.Categories != nil {
			inst.Indexed.Categories = *override.Categories
		}
		if override.Class != nil {
			inst.Indexed.Class = *override.Class
		}
		if override.LocationType != nil {
			inst.Indexed.LocationType = *override.LocationType
		}
		if override.Geo != nil {
			if override.Geo.Cleared {
				inst.Indexed.Geo = nil
			} else {
				p := override.Geo.Point
				inst.Indexed.Geo = &p
			}
		}
		if override.RelatedTo != nil {
			inst.Indexed.RelatedTo = *override.RelatedTo
		}
		if override.Passive != nil {
			inst.Passive = override.Passive
		}
	}

	inst.Duration = duration
	inst.DTEnd = dtend
	return inst
}

func cloneIndexedProperties(ip IndexedProperties) IndexedProperties {
	out := IndexedProperties{
		Categories: make(map[string]struct{}, len(ip.Categories)),
		Class:      ip.Class,
		RelatedTo:  make(map[string]map[string]struct{}, len(ip.RelatedTo)),
	}
	for c := range ip.Categories {
		out.Categories[c] = struct{}{}
	}
	out.LocationType = ip.LocationType
	if ip.Geo != nil {
		p := *ip.Geo
		out.Geo = &p
	}
	for reltype, uids := range ip.RelatedTo {
		set := make(map[string]struct{}, len(uids))
		for uid := range uids {
			set[uid] = struct{}{}
		}
		out.RelatedTo[reltype] = set
	}
	return out
}

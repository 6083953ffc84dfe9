package calendarmodel

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/calquery/calquery/geo"
)

// FromComponent builds an Event from a parsed VEVENT component, the way
// caldav/match.go reads a component's properties to evaluate a filter:
// pull DTSTART/DTEND through ical.Event's typed accessors, keep
// RRULE/EXRULE/RDATE/EXDATE as raw property text for
// Event.RecurrenceSet to re-assemble, and fold the standard
// CATEGORIES/CLASS/GEO/RELATED-TO properties (plus the non-standard
// X-LOCATION-TYPE extension) into the event's IndexedProperties. Any
// property not named here survives untouched in Passive.Props for a
// lossless round-trip.
func FromComponent(comp *ical.Component) (*Event, error) {
	if comp.Name != ical.CompEvent {
		return nil, fmt.Errorf("calendarmodel: expected VEVENT component, got %q", comp.Name)
	}

	uidProp := comp.Props.Get(ical.PropUID)
	if uidProp == nil || uidProp.Value == "" {
		return nil, fmt.Errorf("calendarmodel: VEVENT missing UID")
	}

	e := NewEvent(uidProp.Value)
	e.SetSource(comp)

	ievent := ical.Event{Component: comp}
	start, err := ievent.DateTimeStart(time.UTC)
	if err != nil {
		return nil, fmt.Errorf("calendarmodel: event %q: %w", e.UID, err)
	}
	sp := ScheduleProperties{DTStart: start}

	if endProp := comp.Props.Get(ical.PropDateTimeEnd); endProp != nil {
		end, err := ievent.DateTimeEnd(time.UTC)
		if err != nil {
			return nil, fmt.Errorf("calendarmodel: event %q: %w", e.UID, err)
		}
		sp.DTEnd = &end
	} else if durProp := comp.Props.Get(ical.PropDuration); durProp != nil {
		dur, err := durProp.Duration()
		if err != nil {
			return nil, fmt.Errorf("calendarmodel: event %q: %w", e.UID, err)
		}
		sp.Duration = &dur
	}

	if p := comp.Props.Get(ical.PropRecurrenceRule); p != nil {
		sp.RRule = p.Value
	}
	if p := comp.Props.Get("EXRULE"); p != nil {
		sp.ExRule = p.Value
	}
	for _, p := range comp.Props[ical.PropRecurrenceDate] {
		t, err := p.DateTime(time.UTC)
		if err != nil {
			return nil, fmt.Errorf("calendarmodel: event %q: %w", e.UID, err)
		}
		sp.RDates = append(sp.RDates, t)
	}
	for _, p := range comp.Props[ical.PropExceptionDates] {
		t, err := p.DateTime(time.UTC)
		if err != nil {
			return nil, fmt.Errorf("calendarmodel: event %q: %w", e.UID, err)
		}
		sp.ExDates = append(sp.ExDates, t)
	}
	e.Schedule = sp

	if lm := comp.Props.Get(ical.PropLastModified); lm != nil {
		if t, err := lm.DateTime(time.UTC); err == nil {
			e.LastModified = t
		}
	}

	indexed := NewIndexedProperties()
	if p := comp.Props.Get(ical.PropCategories); p != nil {
		for _, c := range strings.Split(p.Value, ",") {
			c = strings.TrimSpace(c)
			if c != "" {
				indexed.Categories[c] = struct{}{}
			}
		}
	}
	if p := comp.Props.Get(ical.PropClass); p != nil {
		indexed.Class = p.Value
	}
	if p := comp.Props.Get("X-LOCATION-TYPE"); p != nil {
		indexed.LocationType = p.Value
	}
	if p := comp.Props.Get(ical.PropGeo); p != nil {
		lat, long, err := parseGeoValue(p.Value)
		if err != nil {
			return nil, fmt.Errorf("calendarmodel: event %q: %w", e.UID, err)
		}
		pt, err := geo.NewPoint(lat, long)
		if err != nil {
			return nil, fmt.Errorf("calendarmodel: event %q: %w", e.UID, err)
		}
		indexed.Geo = &pt
	}
	for _, p := range comp.Props[ical.PropRelatedTo] {
		reltype := p.Params.Get("RELTYPE")
		if reltype == "" {
			reltype = "PARENT"
		}
		if indexed.RelatedTo[reltype] == nil {
			indexed.RelatedTo[reltype] = make(map[string]struct{})
		}
		indexed.RelatedTo[reltype][p.Value] = struct{}{}
	}
	e.Indexed = indexed

	var passive PassiveProperties
	for name, props := range comp.Props {
		if indexedPropertyNames[name] {
			continue
		}
		passive.Props = append(passive.Props, props...)
	}
	e.Passive = passive

	return e, nil
}

// indexedPropertyNames lists the property names FromComponent
// interprets directly, so the remainder can be kept opaque in
// Passive.Props without duplicating them.
var indexedPropertyNames = map[string]bool{
	ical.PropUID:            true,
	ical.PropDateTimeStart:  true,
	ical.PropDateTimeEnd:    true,
	ical.PropDuration:       true,
	ical.PropRecurrenceRule: true,
	"EXRULE":                true,
	ical.PropRecurrenceDate: true,
	ical.PropExceptionDates: true,
	ical.PropLastModified:   true,
	ical.PropCategories:     true,
	ical.PropClass:          true,
	"X-LOCATION-TYPE":       true,
	ical.PropGeo:            true,
	ical.PropRelatedTo:      true,
}

// parseGeoValue splits RFC 5545 GEO's "lat;long" text form.
func parseGeoValue(v string) (lat, long float64, err error) {
	parts := strings.SplitN(v, ";", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed GEO value %q", v)
	}
	if _, err := fmt.Sscanf(parts[0], "%g", &lat); err != nil {
		return 0, 0, fmt.Errorf("malformed GEO latitude %q", parts[0])
	}
	if _, err := fmt.Sscanf(parts[1], "%g", &long); err != nil {
		return 0, 0, fmt.Errorf("malformed GEO longitude %q", parts[1])
	}
	return lat, long, nil
}

package calendarmodel

import (
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"
)

// icalUTCLayout is RFC 5545's "form #2" UTC date-time format, the same
// layout caldav/match.go's grounded example builds by hand.
const icalUTCLayout = "20060102T150405Z"

func dateTimeProp(name string, t time.Time) *ical.Prop {
	return &ical.Prop{Name: name, Value: t.UTC().Format(icalUTCLayout)}
}

// RecurrenceSet builds the schedule-expansion engine's recurrence set
// for this event, the way caldav.matchCompTimeRange does in the
// teacher: assemble an ical.Component carrying
// DTSTART/RRULE/EXRULE/RDATE/EXDATE and ask go-ical for its
// RecurrenceSet. A plain, non-recurring event (no RRULE and no RDATE)
// gets a degenerate one-occurrence set built directly, since go-ical's
// RecurrenceSet returns nil for a component with neither.
func (e *Event) RecurrenceSet() (*rrule.Set, error) {
	sp := e.Schedule

	if sp.RRule == "" && len(sp.RDates) == 0 {
		set := &rrule.Set{}
		set.DTStart(sp.DTStart.UTC())
		set.RDate(sp.DTStart.UTC())
		for _, ed := range sp.ExDates {
			set.ExDate(ed.UTC())
		}
		return set, nil
	}

	comp := &ical.Component{Name: ical.CompEvent, Props: ical.Props{}}
	comp.Props["DTSTART"] = []*ical.Prop{dateTimeProp("DTSTART", sp.DTStart)}

	if sp.RRule != "" {
		comp.Props["RRULE"] = []*ical.Prop{{Name: "RRULE", Value: sp.RRule}}
	}
	if sp.ExRule != "" {
		comp.Props["EXRULE"] = []*ical.Prop{{Name: "EXRULE", Value: sp.ExRule}}
	}
	for _, rd := range sp.RDates {
		comp.Props["RDATE"] = append(comp.Props["RDATE"], dateTimeProp("RDATE", rd))
	}
	for _, ed := range sp.ExDates {
		comp.Props["EXDATE"] = append(comp.Props["EXDATE"], dateTimeProp("EXDATE", ed))
	}
	if sp.DTEnd != nil {
		comp.Props["DTEND"] = []*ical.Prop{dateTimeProp("DTEND", *sp.DTEnd)}
	}

	rset, err := comp.RecurrenceSet(time.UTC)
	if err != nil {
		return nil, fmt.Errorf("calendarmodel: build recurrence set for event %q: %w", e.UID, err)
	}
	if rset == nil {
		// RRULE present but go-ical still declined to build a set
		// (malformed rule text survived our own validation); fall back
		// to the bare DTSTART occurrence rather than silently dropping
		// the event from every expansion.
		set := &rrule.Set{}
		set.DTStart(sp.DTStart.UTC())
		set.RDate(sp.DTStart.UTC())
		return set, nil
	}
	return rset, nil
}

// EffectiveDuration returns the event's base duration, computed from
// DTEND if present, else Duration, else zero (an instantaneous event).
func (sp ScheduleProperties) EffectiveDuration() time.Duration {
	if sp.DTEnd != nil {
		return sp.DTEnd.Sub(sp.DTStart)
	}
	if sp.Duration != nil {
		return *sp.Duration
	}
	return 0
}

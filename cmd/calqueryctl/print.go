package main

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/calquery/calquery/query"
)

// calqueryDistanceProp is the auxiliary content line a geo-ordered
// result's distance is rendered under -- not an RFC 5545 property,
// named after the teacher's own X--prefixed WebDAV extension
// conventions.
const calqueryDistanceProp = "X-CALQUERY-DISTANCE"

// printResults renders results as one VCALENDAR through go-ical's
// encoder, exactly as the teacher's caldav.Handler/caldav.Client render
// and parse calendar objects: one VEVENT per admitted occurrence, its
// DTSTART/DTEND rewritten to the occurrence's own times in loc (the
// query's X-TZID rendering timezone), with calqueryDistanceProp added
// when the ordering computed a distance.
func printResults(w io.Writer, results []query.Result, loc *time.Location) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "no results")
		return nil
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//calquery//calqueryctl//EN")

	for _, r := range results {
		cal.Children = append(cal.Children, renderEvent(r, loc))
	}

	return ical.NewEncoder(w).Encode(cal)
}

func renderEvent(r query.Result, loc *time.Location) *ical.Component {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, r.Instance.UID)
	event.Props.SetDateTime(ical.PropDateTimeStart, r.Instance.DTStart.In(loc))
	event.Props.SetDateTime(ical.PropDateTimeEnd, r.Instance.DTEnd.In(loc))
	for _, p := range r.Instance.Passive {
		event.Props[p.Name] = append(event.Props[p.Name], p)
	}
	if r.Distance != nil {
		event.Props.SetText(calqueryDistanceProp, r.Distance.String())
	}
	return event.Component
}

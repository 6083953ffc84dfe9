package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/calquery/calquery/calendar"
	"github.com/calquery/calquery/calendarmodel"
)

// loadCalendar builds a Calendar from the given .ics file and
// directory paths. A directory is walked non-recursively for *.ics
// files; any other path is decoded directly. Every VEVENT component
// found, across every file, is inserted into the same calendar.
func loadCalendar(paths []string) (*calendar.Calendar, error) {
	cal := calendar.New(uuid.NewString())

	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", p, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".ics") {
				continue
			}
			files = append(files, filepath.Join(p, entry.Name()))
		}
	}

	for _, path := range files {
		if err := loadFile(cal, path); err != nil {
			return nil, err
		}
	}
	return cal, nil
}

func loadFile(cal *calendar.Calendar, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ics, err := ical.NewDecoder(f).Decode()
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for _, child := range ics.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		e, err := calendarmodel.FromComponent(child)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		cal.InsertEvent(e)
	}
	return nil
}

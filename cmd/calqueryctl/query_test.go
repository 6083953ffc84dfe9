package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestQueryCommandRunsAgainstLoadedCalendar(t *testing.T) {
	path := writeICS(t, "test.ics", testICS)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"query", "--ics", path, "X-CATEGORIES:work"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "event-a") {
		t.Fatalf("want event-a in output, got %q", out.String())
	}
}

func TestQueryCommandRequiresICSFlag(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"query", "X-CATEGORIES:work"})
	if err := root.Execute(); err == nil {
		t.Fatal("want an error when --ics is not provided")
	}
}

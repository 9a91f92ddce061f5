package main

import (
	"bytes"
	"strings"
	"testing"

	"floodcheck/pkg/floodgate"
)

func TestSummaryPrint(t *testing.T) {
	s := newSummary()
	rows := []floodgate.ReportRow{
		{RunID: "r", Path: "b.csa", Status: "ok", Applied: 40, FinalPacked: "aa"},
		{RunID: "r", Path: "a.csa", Status: "ok", Applied: 11, Repetition: true, FinalPacked: "aa"},
		{RunID: "r", Path: "d.csa", Status: "mismatch", Applied: 5, Facets: "hands", FinalPacked: "bb", Error: "final state mismatch (hands)"},
		{RunID: "r", Path: "c.csa", Status: "parse_error", Error: "bad"},
	}
	for _, row := range rows {
		s.Add(row)
	}
	var out bytes.Buffer
	s.Print(&out, 5)
	got := out.String()
	for _, want := range []string{
		"records: 4 (runs=1)\n",
		"moves applied: 56\n",
		"stopped by repetition: 1\n",
		"status:\nmismatch,1\nok,2\nparse_error,1\n",
		"mismatched facets:\nhands,1\n",
		"distinct final positions: 2\naa,2\n",
		"failures:\nc.csa,parse_error,bad\nd.csa,mismatch,final state mismatch (hands)\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in output:\n%s", want, got)
		}
	}
	if strings.Contains(got, "bb,1") {
		t.Fatalf("positions seen once should not be listed:\n%s", got)
	}
}

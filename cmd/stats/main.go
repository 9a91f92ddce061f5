// Command stats summarizes a parquet report written by floodgate -report.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"floodcheck/pkg/floodgate"
)

type summary struct {
	runs       map[string]int
	statuses   map[string]int
	facets     map[string]int
	repetition int
	applied    int
	positions  map[string]int
	failures   []floodgate.ReportRow
}

func newSummary() *summary {
	return &summary{
		runs:      make(map[string]int),
		statuses:  make(map[string]int),
		facets:    make(map[string]int),
		positions: make(map[string]int),
	}
}

func (s *summary) Add(row floodgate.ReportRow) {
	s.runs[row.RunID]++
	s.statuses[row.Status]++
	s.applied += int(row.Applied)
	if row.Repetition {
		s.repetition++
	}
	if row.Facets != "" {
		s.facets[row.Facets]++
	}
	if row.FinalPacked != "" {
		s.positions[row.FinalPacked]++
	}
	switch floodgate.Status(row.Status) {
	case floodgate.StatusOK, floodgate.StatusSkipped:
	default:
		s.failures = append(s.failures, row)
	}
}

func main() {
	parquetPath := flag.String("parquet", "", "input parquet report")
	top := flag.Int("top", 5, "number of most frequent final positions to print")
	flag.Parse()

	if *parquetPath == "" {
		fatal(fmt.Errorf("specify -parquet"))
	}
	if *top < 0 {
		fatal(fmt.Errorf("top must be >= 0"))
	}
	rows, err := floodgate.ReadReport(*parquetPath, 4)
	if err != nil {
		fatal(err)
	}
	s := newSummary()
	for _, row := range rows {
		s.Add(row)
	}
	fmt.Printf("input parquet: %s\n", *parquetPath)
	s.Print(os.Stdout, *top)
}

func (s *summary) Print(w io.Writer, top int) {
	total := 0
	for _, n := range s.statuses {
		total += n
	}
	fmt.Fprintf(w, "records: %d (runs=%d)\n", total, len(s.runs))
	fmt.Fprintf(w, "moves applied: %d\n", s.applied)
	fmt.Fprintf(w, "stopped by repetition: %d\n", s.repetition)

	fmt.Fprintln(w, "status:")
	statuses := maps.Keys(s.statuses)
	slices.Sort(statuses)
	for _, status := range statuses {
		fmt.Fprintf(w, "%s,%d\n", status, s.statuses[status])
	}

	if len(s.facets) > 0 {
		fmt.Fprintln(w, "mismatched facets:")
		facets := maps.Keys(s.facets)
		slices.Sort(facets)
		for _, f := range facets {
			fmt.Fprintf(w, "%s,%d\n", f, s.facets[f])
		}
	}

	fmt.Fprintf(w, "distinct final positions: %d\n", len(s.positions))
	packed := maps.Keys(s.positions)
	sort.Slice(packed, func(i, j int) bool {
		if s.positions[packed[i]] != s.positions[packed[j]] {
			return s.positions[packed[i]] > s.positions[packed[j]]
		}
		return packed[i] < packed[j]
	})
	if len(packed) > top {
		packed = packed[:top]
	}
	for _, p := range packed {
		if s.positions[p] < 2 {
			break
		}
		fmt.Fprintf(w, "%s,%d\n", p, s.positions[p])
	}

	if len(s.failures) > 0 {
		fmt.Fprintln(w, "failures:")
		sort.Slice(s.failures, func(i, j int) bool { return s.failures[i].Path < s.failures[j].Path })
		for _, row := range s.failures {
			fmt.Fprintf(w, "%s,%s,%s\n", row.Path, row.Status, row.Error)
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

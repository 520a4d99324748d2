// Command genmock produces the derived water chemistry fixture from the raw
// lab result fixture. It uses the actual ETL domain package so the fixture
// matches what the pipeline publishes. With -generate it first writes a
// synthetic raw fixture of the requested size from a fixed seed.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -raw data/mock/water_results_mock.json \
//	  -out data/mock/water_results_derived.json
//
//	go run ./cmd/genmock -generate 200 -seed 7 \
//	  -raw /tmp/water_results_large.json \
//	  -out /tmp/water_results_large_derived.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/water-testing-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

// processedAt is the fixed ProcessedAt stamped on every generated result.
var processedAt = time.Date(2024, time.May, 1, 6, 0, 0, 0, time.UTC)

var baseDate = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

type sourceDef struct {
	name       string
	sourceType string
	labels     []string
}

var sources = []sourceDef{
	{name: "Richmond", sourceType: "Public Utility", labels: []string{"Kitchen tap", "Brew water"}},
	{name: "Oak Hollow", sourceType: "Shallow Well", labels: []string{"Pump house", "After softener"}},
	{name: "Miller Creek", sourceType: "Deep Well", labels: []string{"Wellhead"}},
	{name: "Harbor Springs", sourceType: "Spring", labels: []string{"Spring box"}},
}

var treatments = []string{"Charcoal Filter", "RO Filter", "Softener", "UV"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rawPath := flag.String("raw", "", "path to the raw lab result JSON fixture (read, or written with -generate)")
	outPath := flag.String("out", "", "output path for the derived result JSON fixture")
	generate := flag.Int("generate", 0, "synthesize this many raw records into -raw before transforming")
	seed := flag.Uint64("seed", 1, "random seed for -generate")
	flag.Parse()

	if *rawPath == "" || *outPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -raw, -out")
	}

	// Set a fixed clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(processedAt))
	defer domain.SetClock(nil)

	if *generate > 0 {
		records := generateRecords(*generate, *seed)
		if err := writeJSON(*rawPath, records); err != nil {
			return fmt.Errorf("writing raw fixture: %w", err)
		}
		log.Printf("wrote %d synthetic records: %s", len(records), *rawPath)
	}

	data, err := os.ReadFile(*rawPath)
	if err != nil {
		return fmt.Errorf("reading raw fixture: %w", err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding raw fixture: %w", err)
	}

	results, skipped := transformAll(raw)
	log.Printf("total: %d records, %d transformed, %d skipped", len(raw), len(results), skipped)

	if err := writeJSON(*outPath, results); err != nil {
		return fmt.Errorf("writing derived fixture: %w", err)
	}
	log.Printf("wrote derived fixture: %s", *outPath)

	printStats(results)
	return nil
}

// transformAll runs each raw record through the ETL transformation. Records
// the pipeline would skip are logged and left out.
func transformAll(raw []json.RawMessage) ([]domain.TestResult, int) {
	results := make([]domain.TestResult, 0, len(raw))
	var skipped int
	for i, rec := range raw {
		parsed, err := domain.ParseRawEvent(domain.RawEvent{Value: rec})
		if err == nil {
			parsed, err = domain.EnrichTestResult(parsed)
		}
		if err != nil {
			log.Printf("record %d skipped (%s): %v", i, domain.ErrorKind(err), err)
			skipped++
			continue
		}
		results = append(results, parsed)
	}
	return results, skipped
}

// generateRecords builds n plausible lab results. The same seed always yields
// the same records.
func generateRecords(n int, seed uint64) []domain.LabResultRecord {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	records := make([]domain.LabResultRecord, 0, n)

	for i := range n {
		src := sources[rng.IntN(len(sources))]

		total := between(rng, 20, 400)
		sample := domain.RawSample{
			TotalHardness:   total,
			CaHardness:      round1(total * (0.4 + 0.5*rng.Float64())),
			TotalAlkalinity: between(rng, 10, 300),
			Sulfate:         between(rng, 5, 400),
			Chlorine:        between(rng, 5, 200),
		}

		rec := domain.NewLabResultRecord(sample)
		rec.ResultID = strconv.Itoa(9000 + i)
		rec.SampleID = strconv.Itoa(7000 + i)
		rec.Label = src.labels[rng.IntN(len(src.labels))]
		rec.SampleDate = baseDate.AddDate(0, 0, rng.IntN(60)).Format(time.DateOnly)
		rec.Source = src.name
		rec.SourceType = src.sourceType
		if rng.IntN(4) == 0 {
			rec.Treatments = []string{treatments[rng.IntN(len(treatments))]}
		}
		records = append(records, rec)
	}
	return records
}

func between(rng *rand.Rand, lo, hi float64) float64 {
	return round1(lo + (hi-lo)*rng.Float64())
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// statsResult holds aggregated counts for printStats reporting.
type statsResult struct {
	balanceCounts map[string]int
	flagCounts    map[string]int
	sourceCounts  map[string]int
	flagged       int
	treated       int
	minRatio      float64
	maxRatio      float64
}

func collectStats(results []domain.TestResult) statsResult {
	s := statsResult{
		balanceCounts: map[string]int{},
		flagCounts:    map[string]int{},
		sourceCounts:  map[string]int{},
		minRatio:      math.Inf(1),
		maxRatio:      math.Inf(-1),
	}
	for i := range results {
		r := &results[i]
		s.balanceCounts[r.Derived.Balance]++
		s.sourceCounts[r.Source.Name]++
		if len(r.Flags) > 0 {
			s.flagged++
		}
		for _, f := range r.Flags {
			s.flagCounts[f]++
		}
		if len(r.Treatments) > 0 {
			s.treated++
		}
		s.minRatio = math.Min(s.minRatio, r.Derived.SulfateChlorineRatio)
		s.maxRatio = math.Max(s.maxRatio, r.Derived.SulfateChlorineRatio)
	}
	return s
}

type nameCount struct {
	name  string
	count int
}

func printStats(results []domain.TestResult) {
	stats := collectStats(results)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(results))
	if len(results) == 0 {
		return
	}
	fmt.Printf("Flagged: %d, treated: %d\n", stats.flagged, stats.treated)
	fmt.Printf("SO4/Cl ratio range: %g .. %g\n", stats.minRatio, stats.maxRatio)

	// Balance labels in table order, including empty buckets.
	fmt.Println("\nBy balance:")
	for _, th := range domain.DefaultBalanceTable().Thresholds() {
		fmt.Printf("  %-14s %d\n", th.Label, stats.balanceCounts[th.Label])
	}

	if len(stats.flagCounts) > 0 {
		fmt.Println("\nBy flag:")
		for _, fc := range sortedCounts(stats.flagCounts) {
			fmt.Printf("  %s=%d\n", fc.name, fc.count)
		}
	}

	sc := sortedCounts(stats.sourceCounts)
	fmt.Printf("\nSources (%d):", len(sc))
	for _, s := range sc {
		fmt.Printf(" %s=%d", s.name, s.count)
	}
	fmt.Println()
}

func sortedCounts(m map[string]int) []nameCount {
	out := make([]nameCount, 0, len(m))
	for k, v := range m {
		out = append(out, nameCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

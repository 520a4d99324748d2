package outwriter

import (
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/water-testing-etl/internal/domain"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// entryJSON is the JSON shape of one rendered entry.
type entryJSON struct {
	Name         string                 `json:"name"`
	Measurements domain.RawSample       `json:"measurements"`
	Derived      *domain.DerivedMetrics `json:"derived,omitempty"`
	Flags        []string               `json:"flags,omitempty"`
	Error        string                 `json:"error,omitempty"`
	ErrorKind    string                 `json:"error_kind,omitempty"`
}

// WriteEntries renders samples and their derived metrics in the requested format.
func WriteEntries(w io.Writer, entries []Entry, opts Options) error {
	switch opts.Format {
	case JSONOut:
		return writeEntriesJSON(w, entries)
	default:
		return writeEntriesTable(w, entries, opts)
	}
}

func writeEntriesJSON(w io.Writer, entries []Entry) error {
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		j := entryJSON{
			Name:         e.Name,
			Measurements: e.Sample,
			Derived:      e.Metrics,
			Flags:        e.Flags,
		}
		if e.Err != nil {
			j.Error = e.Err.Error()
			j.ErrorKind = domain.ErrorKind(e.Err)
		}
		out = append(out, j)
	}
	return writeJSON(w, out)
}

func writeEntriesTable(w io.Writer, entries []Entry, opts Options) error {
	fmtFloat := createFormatter(opts.Precision)
	colors := newPalette(opts.UseColors)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Sample", "Mg Hardness", "Res Alkalinity", "Ca", "Mg", "HCO3", "SO4/Cl", "Balance", "Notes"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(entries))
	failed := 0
	for _, e := range entries {
		if e.Err != nil {
			failed++
			data = append(data, []string{e.Name, "-", "-", "-", "-", "-", "-", "-", colors.err(e.Err.Error())})
			continue
		}
		m := e.Metrics
		data = append(data, []string{
			e.Name,
			fmtFloat(m.MgHardness),
			fmtFloat(m.ResAlkalinity),
			fmtFloat(m.Calcium),
			fmtFloat(m.Magnesium),
			fmtFloat(m.Bicarbonate),
			fmtFloat(m.SulfateChlorineRatio),
			colors.balance(m.Balance),
			strings.Join(e.Flags, ", "),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%d samples, %d failed\n", len(entries), failed)
	return err
}

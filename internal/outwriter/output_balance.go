package outwriter

import (
	"io"
	"strconv"

	"github.com/couchcryptid/water-testing-etl/internal/domain"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteBalanceTable renders the sulfate/chlorine classification thresholds.
func WriteBalanceTable(w io.Writer, table domain.BalanceTable, opts Options) error {
	if opts.Format == JSONOut {
		return writeJSON(w, table.Thresholds())
	}

	colors := newPalette(opts.UseColors)

	tbl := tablewriter.NewWriter(w)
	tbl.Header([]string{"Ratio", "Balance"})
	tbl.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	data := make([][]string, 0, table.Len())
	for _, th := range table.Thresholds() {
		data = append(data, []string{
			strconv.FormatFloat(th.Ratio, 'f', -1, 64),
			colors.balance(th.Label),
		})
	}

	if err := tbl.Bulk(data); err != nil {
		return err
	}
	return tbl.Render()
}

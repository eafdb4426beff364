package app

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"volskew/internal/marketdata"
	"volskew/internal/provider"
	"volskew/internal/skew"
)

// writeMaturities lists the selectable maturities with the number of usable
// quotes per side.
func writeMaturities(w io.Writer, maturities []string, chains map[provider.Side]marketdata.Chains, sides ...provider.Side) {
	fmt.Fprintln(w, "Available maturities:")
	table := tablewriter.NewWriter(w)
	header := []string{"maturity"}
	for _, s := range sides {
		header = append(header, string(s))
	}
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, m := range maturities {
		row := []string{m}
		for _, s := range sides {
			row = append(row, strconv.Itoa(len(chains[s][m])))
		}
		table.Append(row)
	}
	table.Render()
}

// writeSummaries prints one line of implied volatility statistics per curve.
func writeSummaries(w io.Writer, curves ...*skew.Curve) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"side", "strikes", "min iv", "median iv", "mean iv", "max iv", "atm strike", "atm iv"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, c := range curves {
		s, err := skew.Summarize(c.Points())
		if err != nil {
			table.Append([]string{string(c.Side), "0", "-", "-", "-", "-", "-", "-"})
			continue
		}
		table.Append([]string{
			string(c.Side),
			strconv.Itoa(s.Count),
			pct(s.MinIV),
			pct(s.MedianIV),
			pct(s.MeanIV),
			pct(s.MaxIV),
			strconv.FormatFloat(s.NearestATM.Strike, 'f', -1, 64),
			pct(s.NearestATM.ImpliedVolatility),
		})
	}
	table.Render()
}

// writeChain prints the cleaned quotes of one maturity.
func writeChain(w io.Writer, quotes []provider.Quote, spot float64) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"strike", "bid", "ask", "iv", "spread", "k/s"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, q := range quotes {
		table.Append([]string{
			strconv.FormatFloat(q.Strike, 'f', -1, 64),
			fmt.Sprintf("%.2f", q.Bid),
			fmt.Sprintf("%.2f", q.Ask),
			pct(q.ImpliedVolatility),
			pct(q.Spread),
			fmt.Sprintf("%.3f", q.Strike/spot),
		})
	}
	table.Render()
}

func pct(v float64) string { return fmt.Sprintf("%.2f%%", v*100) }

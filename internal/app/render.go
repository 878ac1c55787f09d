package app

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/keponer/cardmarket-card-finder/internal/aggregate"
	"github.com/keponer/cardmarket-card-finder/internal/fetch"
	"github.com/keponer/cardmarket-card-finder/internal/models"
	"github.com/keponer/cardmarket-card-finder/utils"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
)

func printSellers(w io.Writer, sellers []models.SellerRecord) {
	for _, s := range sellers {
		if s.Price != "" {
			fmt.Fprintf(w, "sellerHref=%s | price=%s\n", s.SellerHref, s.Price)
		} else {
			fmt.Fprintf(w, "sellerHref=%s\n", s.SellerHref)
		}
	}
}

func printRaw(w io.Writer, res *fetch.Response) {
	fmt.Fprintf(w, "HTTP %s\n", res.Status)
	names := make([]string, 0, len(res.Header))
	for name := range res.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range res.Header[name] {
			fmt.Fprintf(w, "%s: %s\n", name, v)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, res.Body)
}

// cheapest returns the price with the lowest parsed value, "" for none.
func cheapest(prices []string) string {
	best := ""
	bestValue := 0.0
	for _, p := range prices {
		v := utils.ParsePrice(p)
		if best == "" || v < bestValue {
			best, bestValue = p, v
		}
	}
	return best
}

func (a *App) renderPrices(prices *aggregate.Prices) {
	if a.Config.Output.Format == "table" {
		t := table.NewWriter()
		t.SetOutputMirror(a.Stdout)
		t.AppendHeader(table.Row{"Seller", "Offers", "Cheapest", "Prices"})
		for pair := prices.Oldest(); pair != nil; pair = pair.Next() {
			t.AppendRow(table.Row{pair.Key, len(pair.Value), cheapest(pair.Value), strings.Join(pair.Value, ", ")})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return
	}

	for pair := prices.Oldest(); pair != nil; pair = pair.Next() {
		fmt.Fprintf(a.Stdout, "sellerHref=%s | prices=[%s]\n", pair.Key, strings.Join(pair.Value, ", "))
	}
}

// startProgress shows a spinner on w while a URL is collected. Only a
// terminal file gets one; any other writer gets no output at all.
func startProgress(w io.Writer, label string) func() {
	f, ok := w.(*os.File)
	if !ok {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(f))
	s.Suffix = " " + label
	s.Start()
	return s.Stop
}

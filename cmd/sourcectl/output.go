package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// outputTable prints offers, vendors and statuses as aligned columns
func outputTable(out io.Writer, resp *types.SearchResponse, limit int) {
	if resp.UserMessage != "" {
		fmt.Fprintln(out, resp.UserMessage)
		fmt.Fprintln(out)
	}

	if len(resp.Offers) == 0 {
		fmt.Fprintln(out, "No offers found.")
	} else {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tSCORE\tPRICE\tMERCHANT\tSOURCE\tTITLE")
		for i, o := range resp.Offers {
			if limit > 0 && i >= limit {
				break
			}
			fmt.Fprintf(tw, "%d\t%.3f\t%s\t%s\t%s\t%s\n",
				i+1, o.Scores.Combined, formatPrice(o.Price, o.Currency), o.MerchantName, o.Source, truncate(o.Title, 60))
		}
		tw.Flush()
	}

	if len(resp.Vendors) > 0 {
		fmt.Fprintln(out)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "VENDOR\tSIMILARITY\tSERVICE AREA")
		for _, v := range resp.Vendors {
			fmt.Fprintf(tw, "%s\t%.4f\t%s\n", v.Name, v.Similarity, v.ServiceArea)
		}
		tw.Flush()
	}

	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tSTATUS\tRESULTS\tLATENCY")
	for _, s := range resp.Statuses {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%dms\n", s.Source, s.Status, s.ResultCount, s.LatencyMs)
	}
	tw.Flush()
}

func formatPrice(p *float64, currency string) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f %s", *p, currency)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

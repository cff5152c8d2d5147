package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a closed trade as an Org-mode block. Structured
// facts go in the PROPERTIES drawer; the narrative headings are left empty.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("*** Trade: %s %s (%s)", t.Strategy, t.Symbol, shortID(t.TradeID))
	open := t.OpenTime.UTC().Format(time.RFC3339)
	close := t.CloseTime.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.TradeID))
	if t.RunID != "" {
		b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", t.RunID))
	}
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", t.Symbol))
	b.WriteString(fmt.Sprintf(":STRATEGY: %s\n", t.Strategy))
	b.WriteString(fmt.Sprintf(":QUANTITY: %d\n", t.Quantity))
	b.WriteString(fmt.Sprintf(":COST_BASIS: %.2f\n", t.CostBasis))
	b.WriteString(fmt.Sprintf(":PROCEEDS: %.2f\n", t.Proceeds))
	b.WriteString(fmt.Sprintf(":OPEN_TIME: %s\n", open))
	b.WriteString(fmt.Sprintf(":CLOSE_TIME: %s\n", close))
	b.WriteString(fmt.Sprintf(":REALIZED_PL: %.2f\n", t.RealizedPL))
	b.WriteString(fmt.Sprintf(":REASON: %s\n", t.Reason))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("**** Thesis\n- \n\n")
	b.WriteString("**** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}

package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/evdnx/signalbot/indicators"
	"github.com/evdnx/signalbot/strategy"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, Align: text.AlignLeft},
	})
	return t
}

func printReport(w io.Writer, rep strategy.Report) {
	t := newTable(w, "CYCLE "+rep.Symbol)
	if rep.Status == strategy.StatusError {
		t.AppendRows([]table.Row{
			{"Status", rep.Status},
			{"Error", rep.Error},
		})
		t.Render()
		return
	}

	a := rep.Analysis
	t.AppendRows([]table.Row{
		{"Price", fmt.Sprintf("%.4f", rep.Price)},
		{"Trend", fmt.Sprintf("%s (%.2f)", a.Trend, a.Strength)},
		{"Votes", fmt.Sprintf("%d bull / %d bear", a.BullishVotes, a.BearishVotes)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"RSI", value(a.Indicators.RSI)},
		{"MACD / Signal", value(a.Indicators.MACD) + " / " + value(a.Indicators.Signal)},
		{"MA short / long", value(a.Indicators.MAShort) + " / " + value(a.Indicators.MALong)},
		{"MFI", value(a.Indicators.MFI)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Buy signal", rep.Buy},
		{"Sell signal", rep.Sell},
		{"Reason", rep.Reason},
		{"Trade executed", rep.TradeExecuted},
		{"Analysis only", rep.AnalysisOnly},
	})
	if rep.Skipped != "" {
		t.AppendRow(table.Row{"Skipped", rep.Skipped})
	}
	if rep.Risk != nil && !rep.Risk.Allowed {
		t.AppendRow(table.Row{"Risk blocked", fmt.Sprint(rep.Risk.Reasons)})
	}
	for _, e := range rep.Exits {
		t.AppendRow(table.Row{"Exit " + e.Reason, fmt.Sprintf("%s %.2f%% executed=%t", e.PositionID, e.PnLPercent, e.Executed)})
	}
	t.Render()
}

func printAccount(w io.Writer, sum strategy.AccountSummary) {
	t := newTable(w, "ACCOUNT")
	t.AppendRows([]table.Row{
		{"Balance", fmt.Sprintf("%.2f", sum.Balance)},
		{"Open positions", sum.OpenPositions},
		{"Closed positions", sum.ClosedPositions},
		{"Realized PnL", fmt.Sprintf("%.2f", sum.RealizedPnL)},
		{"Trades today", sum.Daily.TradesCount},
		{"Profile", fmt.Sprintf("%s RSI %.0f/%.0f", sum.Profile.Volatility, sum.Profile.RSIOversold, sum.Profile.RSIOverbought)},
	})
	t.Render()
}

func value(v indicators.Value) string {
	if !v.OK {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v.V)
}

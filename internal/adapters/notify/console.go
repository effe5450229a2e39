package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// Console implementa ports.Notifier y ports.Alerter sobre un io.Writer.
type Console struct {
	out io.Writer
	now func() time.Time
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout, now: time.Now}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, now: time.Now}
}

func (c *Console) stamp() string {
	return c.now().Format("15:04:05")
}

// NotifyScan imprime las oportunidades ordenadas por spread.
func (c *Console) NotifyScan(_ context.Context, opps []domain.Opportunity) error {
	if len(opps) == 0 {
		fmt.Fprintf(c.out, "[%s] no opportunities found\n", c.stamp())
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] %d opportunities\n", c.stamp(), len(opps))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Rule", "Kalshi", "External", "Src", "Spread", "Trade", "ROI", "Days", "Vol")
	for i, o := range opps {
		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(o.RuleName, 28),
			fmt.Sprintf("%.1f", o.Primary.Yes),
			fmt.Sprintf("%.1f", o.External.Yes),
			string(o.External.SourceID),
			fmt.Sprintf("%.1f", o.Spread),
			o.TradeLabel(),
			fmt.Sprintf("%.1f%%", o.ROI),
			o.DaysLabel(),
			fmt.Sprintf("%d", o.Volume),
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Kalshi/External = YES price (0-100) | Spread = |Kalshi - External|")
	return nil
}

// NotifyTiers imprime las señales de mercado único agrupadas por tier.
func (c *Console) NotifyTiers(_ context.Context, signals []domain.TierSignal) error {
	if len(signals) == 0 {
		fmt.Fprintf(c.out, "[%s] no tier signals found\n", c.stamp())
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] %d tier signals\n", c.stamp(), len(signals))

	for _, group := range groupByTier(signals) {
		fmt.Fprintf(c.out, "\n=== %s (%d) ===\n", group[0].Tier, len(group))
		table := tablewriter.NewWriter(c.out)
		table.Header("Ticker", "Market", "Action", "ROI", "Contracts", "Vol")
		for _, s := range group {
			roi := "-"
			contracts := "-"
			if s.Tier != domain.TierSpread {
				roi = fmt.Sprintf("%.1f%%", s.ROI)
				contracts = fmt.Sprintf("%d", s.Contracts)
			}
			table.Append(
				s.Ticker,
				truncate(s.Title, 36),
				s.Action(),
				roi,
				contracts,
				fmt.Sprintf("%d", s.Volume),
			)
		}
		table.Render()
	}
	return nil
}

// NotifyRun imprime el resumen de un run de trading.
func (c *Console) NotifyRun(_ context.Context, r domain.RunReport) error {
	fmt.Fprintf(c.out, "\n[%s][%s] cash $%s\n", r.At.Format("15:04:05"), strings.ToUpper(r.Mode), r.Cash.StringFixed(2))

	if len(r.Exits) > 0 {
		fmt.Fprintln(c.out, "\n  --- EXITS ---")
		table := tablewriter.NewWriter(c.out)
		table.Header("Ticker", "Kind", "Qty", "Entry", "Now", "PnL", "Reason")
		for _, x := range r.Exits {
			table.Append(
				x.Ticker,
				string(x.Kind),
				fmt.Sprintf("%d", x.Count),
				fmt.Sprintf("%.2f", x.EntryPrice),
				fmt.Sprintf("%.2f", x.CurrentPrice),
				fmt.Sprintf("%+.1f%%", x.PnLPct),
				x.Reason,
			)
		}
		table.Render()
	}
	for _, f := range r.ExitFailures {
		fmt.Fprintf(c.out, "  !! exit %s %s failed: %s\n", f.Kind, f.Ticker, f.Err)
	}

	if len(r.Signals) > 0 {
		fmt.Fprintln(c.out, "\n  --- SIGNALS ---")
		table := tablewriter.NewWriter(c.out)
		table.Header("Symbol", "Kind", "Price", "Change", "Vol x")
		for _, s := range r.Signals {
			table.Append(
				s.Symbol,
				string(s.Kind),
				fmt.Sprintf("$%.2f", s.Price),
				fmt.Sprintf("%+.2f%%", s.ChangePct),
				fmt.Sprintf("%.1fx", s.VolumeMult),
			)
		}
		table.Render()
	}

	if r.Halted != "" {
		fmt.Fprintf(c.out, "\n  >> no new buys: %s\n", r.Halted)
	}

	if len(r.Trades) > 0 {
		fmt.Fprintln(c.out, "\n  --- TRADES ---")
		table := tablewriter.NewWriter(c.out)
		table.Header("Rule", "Ticker", "Side", "Qty", "Price", "Cost", "ROI", "Order")
		for _, t := range r.Trades {
			qty, price := "-", "-"
			if t.Count > 0 {
				qty = fmt.Sprintf("%d", t.Count)
			}
			if t.Price > 0 {
				price = fmt.Sprintf("%d¢", t.Price)
			}
			order := t.OrderID
			if t.Strategy != "" {
				order = fmt.Sprintf("%s (%s)", t.OrderID, t.Strategy)
			}
			table.Append(
				truncate(t.RuleName, 24),
				t.Ticker,
				strings.ToUpper(string(t.Side)),
				qty,
				price,
				"$"+t.Cost.StringFixed(2),
				fmt.Sprintf("%.1f%%", t.ROI),
				order,
			)
		}
		table.Render()
	}

	if len(r.Rejections) > 0 {
		fmt.Fprintf(c.out, "\n  Rejected (%d):\n", len(r.Rejections))
		for _, rej := range r.Rejections {
			fmt.Fprintf(c.out, "    - %s: %s\n", rej.RuleName, rej.Reason)
		}
	}

	if !r.Actionable() && len(r.ExitFailures) == 0 {
		fmt.Fprintln(c.out, "  no trades or exits this run")
	}
	return nil
}

// PrintHistory imprime el historial persistido de oportunidades.
func (c *Console) PrintHistory(rows []domain.SeenOpportunity) error {
	if len(rows) == 0 {
		fmt.Fprintf(c.out, "[%s] no opportunities in history\n", c.stamp())
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] %d opportunities in history\n", c.stamp(), len(rows))

	table := tablewriter.NewWriter(c.out)
	table.Header("Rule", "Src", "Spread", "Peak", "Direction", "ROI", "First seen", "Last seen")
	for _, r := range rows {
		table.Append(
			truncate(r.RuleName, 28),
			r.ExternalSource,
			fmt.Sprintf("%.1f", r.Spread),
			fmt.Sprintf("%.1f", r.PeakSpread),
			string(r.Direction),
			fmt.Sprintf("%.1f%%", r.ROI),
			r.FirstSeen.Format("01-02 15:04"),
			r.LastSeen.Format("01-02 15:04"),
		)
	}
	return table.Render()
}

// Alert imprime la alerta cuando no hay canal externo configurado.
func (c *Console) Alert(_ context.Context, text string) error {
	fmt.Fprintf(c.out, "\nALERT:\n%s\n", text)
	return nil
}

// --- helpers ---

func groupByTier(signals []domain.TierSignal) [][]domain.TierSignal {
	var out [][]domain.TierSignal
	for _, s := range signals {
		if n := len(out); n > 0 && out[n-1][0].Tier == s.Tier {
			out[n-1] = append(out[n-1], s)
			continue
		}
		out = append(out, []domain.TierSignal{s})
	}
	return out
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

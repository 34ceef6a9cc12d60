package engine

import (
	"fmt"
	"io"
	"strings"
)

// WriteReplayScript writes a deterministic Pine-style script that reissues
// every entry and exit order keyed by bar timestamp, so the ledger can be
// replayed and verified in an external charting environment. Reporting
// convenience only; not part of the matching contract.
func (b *Broker) WriteReplayScript(w io.Writer) error {
	type row struct {
		ts   int64
		size string
		tag  string
	}
	var rows []row

	add := func(ev *TradeEvent, size string, tag string) error {
		bar, ok := b.ctx.BarAt(ev.OrderBar)
		if !ok {
			return fmt.Errorf("replay export: no bar at index %d", ev.OrderBar)
		}
		rows = append(rows, row{ts: bar.CloseTime, size: size, tag: tag})
		return nil
	}

	// Closed trades in close order, then still-open entries: a fixed,
	// reproducible ordering.
	for _, t := range b.closedTrades {
		if err := add(t.Entry, t.Size.String(), t.Entry.ID); err != nil {
			return err
		}
		if err := add(t.Exit, t.Size.Neg().String(), t.Exit.ID); err != nil {
			return err
		}
	}
	for _, t := range b.openTrades {
		if err := add(t.Entry, t.Size.String(), t.Entry.ID); err != nil {
			return err
		}
	}

	var sb strings.Builder
	sb.WriteString("//@version=5\n")
	fmt.Fprintf(&sb, "strategy(%q, overlay=true, initial_capital=%s)\n", "simbroker replay", b.cfg.InitialCapital.String())

	times := make([]string, len(rows))
	sizes := make([]string, len(rows))
	tags := make([]string, len(rows))
	for i, r := range rows {
		times[i] = fmt.Sprintf("%d", r.ts)
		sizes[i] = r.size
		tags[i] = fmt.Sprintf("%q", r.tag)
	}
	fmt.Fprintf(&sb, "var t_time = array.from(%s)\n", strings.Join(times, ", "))
	fmt.Fprintf(&sb, "var t_size = array.from(%s)\n", strings.Join(sizes, ", "))
	fmt.Fprintf(&sb, "var t_tag = array.from(%s)\n", strings.Join(tags, ", "))
	sb.WriteString("if array.size(t_time) > 0\n")
	sb.WriteString("    for i = 0 to array.size(t_time) - 1\n")
	sb.WriteString("        if time == array.get(t_time, i)\n")
	sb.WriteString("            sz = array.get(t_size, i)\n")
	sb.WriteString("            strategy.order(array.get(t_tag, i) + \"#\" + str.tostring(i), sz > 0 ? strategy.long : strategy.short, math.abs(sz))\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

package simulation

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"revshare/internal/domain/delegator"
)

// Summary renders a human-readable report of a run
func (r *Result) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "run %s: %s timesteps in %s\n", r.RunID, humanize.Comma(int64(r.Steps)), r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&b, "pool: supply %s, reserve %s, spot price %s\n",
		humanize.CommafWithDigits(r.Pool.Supply, 2),
		humanize.CommafWithDigits(r.Pool.Reserve, 2),
		humanize.FtoaWithDigits(r.Pool.SpotPrice(), 4),
	)
	fmt.Fprintf(&b, "trades: %s buys, %s sells, %s clipped\n",
		humanize.Comma(int64(r.Buys)), humanize.Comma(int64(r.Sells)), humanize.Comma(int64(r.Clipped)))
	fmt.Fprintf(&b, "vested %s shares, accrued %s in dividends\n",
		humanize.CommafWithDigits(r.Vested, 2), humanize.CommafWithDigits(r.Dividends, 2))
	if r.RecorderErrors > 0 {
		fmt.Fprintf(&b, "recorder errors: %s\n", humanize.Comma(int64(r.RecorderErrors)))
	}

	for _, s := range r.Delegators {
		gains, _ := s.TotalGains().Float64()
		shares, _ := s.TotalShares().Float64()
		fmt.Fprintf(&b, "  delegator %d (%s): %s shares, gains %s\n",
			s.DelegatorID, typeName(s.TypeCode),
			humanize.CommafWithDigits(shares, 2), humanize.CommafWithDigits(gains, 2))
	}
	return b.String()
}

func typeName(code int) string {
	t, err := delegator.TypeFromCode(code)
	if err != nil {
		return "unknown"
	}
	return t.String()
}

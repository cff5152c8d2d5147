package journal

import (
	"io"
	"os"
	"strings"
	"text/template"
	"time"
)

// BacktestRun mirrors the backtest_runs table.
type BacktestRun struct {
	RunID   string
	Created time.Time
	Dataset string

	Universe   string
	Strategies string
	Config     []byte

	Start time.Time
	End   time.Time

	Trades int
	Wins   int
	Losses int

	StartBalance float64
	EndBalance   float64

	NetPL        float64
	ReturnPct    float64
	AnnReturnPct float64
	VolPct       float64
	Sharpe       float64
	WinRate      float64
	ProfitFactor float64
	MaxDDPct     float64

	OrgPath string
	Notes   []string
}

var backtestOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"trim": strings.TrimSpace,
}

var backtestOrg = template.Must(template.New("backtest").Funcs(backtestOrgFuncs).Parse(BacktestOrgTemplate))

// WriteOrg renders the run summary as Org-mode to w.
func (v *BacktestRun) WriteOrg(w io.Writer) error {
	return backtestOrg.Execute(w, v)
}

// WriteBacktestOrg renders the run to OrgPath.
func (v *BacktestRun) WriteBacktestOrg() error {
	var b strings.Builder
	if err := v.WriteOrg(&b); err != nil {
		return err
	}
	return os.WriteFile(v.OrgPath, []byte(b.String()), 0644)
}

const BacktestOrgTemplate = `* BACKTEST: {{.Strategies}} on {{.Universe}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:START_BAL:   {{printf "%.2f" .StartBalance}}
:END_BAL:     {{printf "%.2f" .EndBalance}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDDPct}}
:SHARPE:      {{printf "%.2f" .Sharpe}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .WinRate)}}
:PROFIT_FAC:  {{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Net P/L:           *{{printf "%.2f" .NetPL}}*
- Return:            *{{printf "%.2f" .ReturnPct}}%*
- Annualized Return: *{{printf "%.2f" .AnnReturnPct}}%*
- Volatility:        *{{printf "%.2f" .VolPct}}%*
- Max Drawdown:      *{{printf "%.2f" .MaxDDPct}}%*
- Win Rate:          *{{printf "%.2f" (mul100 .WinRate)}}%*
{{- if .Config }}

** Configuration
#+begin_src yaml
{{ trim (printf "%s" .Config) }}
#+end_src
{{- end }}

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |
{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`

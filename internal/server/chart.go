package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handleChart renders the latest session's cumulative score as an HTML
// line chart. Query param session selects a specific session id.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, rounds, ok := s.sessionRounds(w, r)
	if !ok {
		return
	}

	labels := make([]string, len(rounds))
	p1 := make([]opts.LineData, len(rounds))
	p2 := make([]opts.LineData, len(rounds))
	draws := make([]opts.LineData, len(rounds))
	for i, rd := range rounds {
		labels[i] = strconv.Itoa(rd.RoundNum)
		p1[i] = opts.LineData{Value: rd.P1Wins}
		p2[i] = opts.LineData{Value: rd.P2Wins}
		draws[i] = opts.LineData{Value: rd.Draws}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "RPS Duel Score",
			Width:     "900px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Cumulative score",
			Subtitle: fmt.Sprintf("%s vs %s, %d rounds", sess.Player1, sess.Player2, len(rounds)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "round"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "wins"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	line.SetXAxis(labels)
	line.AddSeries(sess.Player1, p1, s.seriesStyle(sess.Player1))
	line.AddSeries(sess.Player2, p2, s.seriesStyle(sess.Player2))
	line.AddSeries("draws", draws)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		http.Error(w, fmt.Sprintf("failed to render chart: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// seriesStyle colors a player's series with their configured display
// color, falling back to the theme default.
func (s *Server) seriesStyle(player string) charts.SeriesOpts {
	hex := s.config.Colors[player]
	return charts.WithLineStyleOpts(opts.LineStyle{Color: hex})
}

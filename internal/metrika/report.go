package metrika

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// Reporter builds human-readable traffic reports over a Metrika counter.
// now is injectable so report windows are deterministic in tests.
type Reporter struct {
	client *Client
	now    func() time.Time
}

// NewReporter creates a reporter over the given client.
func NewReporter(client *Client) *Reporter {
	return &Reporter{client: client, now: time.Now}
}

// Daily reports yesterday's traffic with a traffic source breakdown.
func (r *Reporter) Daily(ctx context.Context) string {
	yesterday := r.now().AddDate(0, 0, -1).Format(dateLayout)

	totals, err := r.client.Query(ctx, Params{
		Date1:   yesterday,
		Date2:   yesterday,
		Metrics: "ym:s:visits,ym:s:users,ym:s:pageviews,ym:s:bounceRate,ym:s:avgVisitDurationSeconds",
	})
	if err != nil {
		logrus.WithError(err).Error("daily report query failed")
		return reportError(err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Daily traffic report for %s\n\n", yesterday))
	writeTotals(&sb, totals.Totals)
	sb.WriteString(fmt.Sprintf("Bounce rate: %.1f%%\nAvg visit duration: %.0f sec\n",
		total(totals.Totals, 3), total(totals.Totals, 4)))

	sources, err := r.client.Query(ctx, Params{
		Date1:      yesterday,
		Date2:      yesterday,
		Metrics:    "ym:s:visits",
		Dimensions: "ym:s:trafficSource",
		Sort:       "-ym:s:visits",
		Limit:      5,
	})
	if err == nil && len(sources.Rows) > 0 {
		sb.WriteString("\nTop traffic sources:\n")
		writeShareRows(&sb, sources.Rows, total(totals.Totals, 0))
	}
	return sb.String()
}

// Weekly reports the last 7 full days with a per-day breakdown and the
// most visited pages.
func (r *Reporter) Weekly(ctx context.Context) string {
	end := r.now().AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -6)
	date1, date2 := start.Format(dateLayout), end.Format(dateLayout)

	daily, err := r.client.Query(ctx, Params{
		Date1:      date1,
		Date2:      date2,
		Metrics:    "ym:s:visits,ym:s:users,ym:s:pageviews",
		Dimensions: "ym:s:date",
		Sort:       "ym:s:date",
	})
	if err != nil {
		logrus.WithError(err).Error("weekly report query failed")
		return reportError(err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Weekly traffic report, %s to %s\n\n", date1, date2))
	writeTotals(&sb, daily.Totals)

	if len(daily.Rows) > 0 {
		sb.WriteString("\nVisits by day:\n")
		for _, row := range daily.Rows {
			if len(row.Dimensions) > 0 && len(row.Metrics) > 0 {
				sb.WriteString(fmt.Sprintf("  %s: %.0f\n", row.Dimensions[0], row.Metrics[0]))
			}
		}
	}

	pages, err := r.client.Query(ctx, Params{
		Date1:      date1,
		Date2:      date2,
		Metrics:    "ym:pv:pageviews",
		Dimensions: "ym:pv:pageTitle",
		Sort:       "-ym:pv:pageviews",
		Limit:      5,
	})
	if err == nil && len(pages.Rows) > 0 {
		sb.WriteString("\nMost visited pages:\n")
		for i, row := range pages.Rows {
			if len(row.Dimensions) > 0 && len(row.Metrics) > 0 {
				sb.WriteString(fmt.Sprintf("  %d. %s (%.0f views)\n", i+1, row.Dimensions[0], row.Metrics[0]))
			}
		}
	}
	return sb.String()
}

// Monthly reports the last 30 days with device and geography breakdowns.
func (r *Reporter) Monthly(ctx context.Context) string {
	end := r.now().AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -29)
	date1, date2 := start.Format(dateLayout), end.Format(dateLayout)

	totals, err := r.client.Query(ctx, Params{
		Date1:   date1,
		Date2:   date2,
		Metrics: "ym:s:visits,ym:s:users,ym:s:pageviews",
	})
	if err != nil {
		logrus.WithError(err).Error("monthly report query failed")
		return reportError(err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Monthly traffic report, %s to %s\n\n", date1, date2))
	writeTotals(&sb, totals.Totals)

	devices, err := r.client.Query(ctx, Params{
		Date1:      date1,
		Date2:      date2,
		Metrics:    "ym:s:visits",
		Dimensions: "ym:s:deviceCategory",
		Sort:       "-ym:s:visits",
	})
	if err == nil && len(devices.Rows) > 0 {
		sb.WriteString("\nVisits by device:\n")
		writeShareRows(&sb, devices.Rows, total(totals.Totals, 0))
	}

	countries, err := r.client.Query(ctx, Params{
		Date1:      date1,
		Date2:      date2,
		Metrics:    "ym:s:visits",
		Dimensions: "ym:s:regionCountry",
		Sort:       "-ym:s:visits",
		Limit:      5,
	})
	if err == nil && len(countries.Rows) > 0 {
		sb.WriteString("\nTop countries:\n")
		writeShareRows(&sb, countries.Rows, total(totals.Totals, 0))
	}
	return sb.String()
}

func writeTotals(sb *strings.Builder, totals []float64) {
	sb.WriteString(fmt.Sprintf("Visits: %.0f\nUsers: %.0f\nPageviews: %.0f\n",
		total(totals, 0), total(totals, 1), total(totals, 2)))
}

func writeShareRows(sb *strings.Builder, rows []Row, totalVisits float64) {
	for _, row := range rows {
		if len(row.Dimensions) == 0 || len(row.Metrics) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s: %.0f (%.1f%%)\n",
			row.Dimensions[0], row.Metrics[0], percent(row.Metrics[0], totalVisits)))
	}
}

func total(totals []float64, i int) float64 {
	if i < len(totals) {
		return totals[i]
	}
	return 0
}

// percent guards against a zero denominator so empty periods render as 0%
// rather than NaN.
func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

func reportError(err error) string {
	return fmt.Sprintf("Failed to build the analytics report: %v", err)
}

package clinic

import (
	"context"
	"fmt"
	"math"
	"time"
)

const (
	// Rolling window for the dashboard call statistics.
	summaryWindow = 7 * 24 * time.Hour
	recentLimit   = 5
)

// DashboardSummary is the read-only aggregate shown on the console dashboard.
type DashboardSummary struct {
	TotalCalls         int
	BookingSuccessRate int
	Handoffs           int
	Cancellations      int
	RecentBookings     []BookingDetail
	RecentCalls        []CallRecord
}

// Analytics computes summary statistics over call records. It shares the
// repository with the scheduling engine but never mutates anything.
type Analytics struct {
	repo Repository
}

func NewAnalytics(repo Repository) *Analytics {
	return &Analytics{repo: repo}
}

// Summary aggregates the 7 days of calls preceding now and attaches the five
// most recent bookings and calls regardless of the window.
func (a *Analytics) Summary(ctx context.Context, now time.Time) (*DashboardSummary, error) {
	calls, err := a.repo.ListCallRecordsSince(ctx, now.Add(-summaryWindow))
	if err != nil {
		return nil, fmt.Errorf("list call records for window: %w", err)
	}

	summary := &DashboardSummary{
		TotalCalls: len(calls),
	}

	successfulBookings := 0
	for _, c := range calls {
		if c.Outcome == OutcomeSuccess && c.Intent == IntentBook {
			successfulBookings++
		}
		if c.Outcome == OutcomeHandoff {
			summary.Handoffs++
		}
		// Counts caller intent, not booking outcome: a failed cancellation
		// attempt still registers here.
		if c.Intent == IntentCancel {
			summary.Cancellations++
		}
	}

	if summary.TotalCalls > 0 {
		rate := float64(successfulBookings) / float64(summary.TotalCalls) * 100
		summary.BookingSuccessRate = int(math.Round(rate))
	}

	recentBookings, err := a.repo.ListRecentBookings(ctx, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent bookings: %w", err)
	}
	summary.RecentBookings = recentBookings

	recentCalls, err := a.repo.ListRecentCallRecords(ctx, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent call records: %w", err)
	}
	summary.RecentCalls = recentCalls

	return summary, nil
}

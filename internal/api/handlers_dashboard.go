package api

import (
	"net/http"
	"time"

	"github.com/promedvoice/clinic-console/internal/clinic"
)

func dashboardSummaryHandler(analytics *clinic.Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := analytics.Summary(r.Context(), time.Now())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := DashboardSummaryResponse{
			TotalCalls:         summary.TotalCalls,
			BookingSuccessRate: summary.BookingSuccessRate,
			Handoffs:           summary.Handoffs,
			Cancellations:      summary.Cancellations,
			RecentBookings:     make([]BookingResponse, 0, len(summary.RecentBookings)),
			RecentCalls:        make([]CallRecordResponse, 0, len(summary.RecentCalls)),
		}
		for _, bd := range summary.RecentBookings {
			resp.RecentBookings = append(resp.RecentBookings, toBookingDetailResponse(bd))
		}
		for i := range summary.RecentCalls {
			resp.RecentCalls = append(resp.RecentCalls, toCallRecordResponse(&summary.RecentCalls[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

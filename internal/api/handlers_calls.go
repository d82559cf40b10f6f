package api

import (
	"encoding/json"
	"net/http"

	"github.com/promedvoice/clinic-console/internal/clinic"
)

func ingestCallHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req IngestCallRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		rec, err := svc.IngestCallRecord(r.Context(), clinic.NewCallRecord{
			PhoneNumber:  req.PhoneNumber,
			Transcript:   req.Transcript,
			Intent:       clinic.CallIntent(req.Intent),
			Outcome:      clinic.CallOutcome(req.Outcome),
			Metadata:     req.Metadata,
			CallDuration: req.CallDuration,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toCallRecordResponse(rec))
	}
}

func listCallsHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.ListCallRecords(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]CallRecordResponse, 0, len(records))
		for i := range records {
			resp = append(resp, toCallRecordResponse(&records[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

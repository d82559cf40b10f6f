package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/promedvoice/clinic-console/internal/clinic"
)

func listSettingsHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := svc.ListSettings(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]SettingResponse, 0, len(settings))
		for i := range settings {
			resp = append(resp, toSettingResponse(&settings[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func upsertSettingHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")

		var req UpsertSettingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		setting, err := svc.UpsertSetting(r.Context(), key, req.Value)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSettingResponse(setting))
	}
}

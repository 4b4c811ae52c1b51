package rest

import (
	"net/http"

	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/core/port"
	"listam-parser-service/internal/core/port/usecases"
)

// StatusHandlers отдают состояние процесса. Любая из зависимостей может быть nil.
type StatusHandlers struct {
	mode       string
	scrapeUC   usecases.ScrapePagesPort
	checkUC    usecases.CheckRemovedPort
	houseStats port.HouseStatsPort
}

func NewStatusHandlers(mode string, scrapeUC usecases.ScrapePagesPort, checkUC usecases.CheckRemovedPort, houseStats port.HouseStatsPort) *StatusHandlers {
	return &StatusHandlers{
		mode:       mode,
		scrapeUC:   scrapeUC,
		checkUC:    checkUC,
		houseStats: houseStats,
	}
}

// HandleHealth - обработчик для GET /health
func (h *StatusHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, HealthResponseDTO{Status: "ok", Mode: h.mode})
}

// HandleStats - обработчик для GET /api/v1/stats
func (h *StatusHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleStats"})

	resp := StatsResponseDTO{Mode: h.mode}

	if h.scrapeUC != nil {
		p := h.scrapeUC.Progress()
		resp.Scrape = &ScrapeStatsDTO{
			TraceID:        p.TraceID,
			StartedAt:      timePtr(p.StartedAt),
			FinishedAt:     timePtr(p.FinishedAt),
			PagesProcessed: p.PagesProcessed,
			PagesFailed:    p.PagesFailed,
			LinksFound:     p.LinksFound,
			ListingsSaved:  p.ListingsSaved,
			ListingsFailed: p.ListingsFailed,
			ImagesSaved:    p.ImagesSaved,
		}
	}

	if h.checkUC != nil {
		p := h.checkUC.Progress()
		resp.Check = &CheckStatsDTO{
			TraceID:       p.TraceID,
			StartedAt:     timePtr(p.StartedAt),
			FinishedAt:    timePtr(p.FinishedAt),
			Checked:       p.Checked,
			Removed:       p.Removed,
			ProbeFailures: p.ProbeFailures,
		}
	}

	if h.houseStats != nil {
		active, deleted, err := h.houseStats.CountHouses(r.Context())
		if err != nil {
			logger.Error("Failed to count houses", err, nil)
			WriteJSONError(w, http.StatusServiceUnavailable, "storage is unavailable")
			return
		}
		resp.Houses = &HouseCountsDTO{Active: active, Deleted: deleted}
	}

	RespondWithJSON(w, http.StatusOK, resp)
}

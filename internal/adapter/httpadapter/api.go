package httpadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-anomaly-service/internal/domain"
	"github.com/couchcryptid/climate-anomaly-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const maxQueryLimit = 100

// Detector runs the statistical detectors for a location.
type Detector interface {
	Detect(ctx context.Context, location string) (pipeline.Result, error)
	MovingAverage(ctx context.Context, location string, window int) ([]domain.Anomaly, error)
	Timeseries(ctx context.Context, location string) (domain.Timeseries, error)
}

// AnomalyReader serves stored anomalies.
type AnomalyReader interface {
	QueryAnomalies(ctx context.Context, q domain.AnomalyQuery) ([]domain.Anomaly, error)
	GetAnomaly(ctx context.Context, id string) (domain.Anomaly, error)
}

// RecordReader serves stored weather records.
type RecordReader interface {
	Summary(ctx context.Context) (domain.DataSummary, error)
	RecordsByYearRange(ctx context.Context, location string, start, end int) ([]domain.WeatherRecord, error)
}

// API holds the anomaly and data handlers.
type API struct {
	detector      Detector
	anomalies     AnomalyReader
	records       RecordReader
	defaultWindow int
	logger        *slog.Logger
}

// NewAPI creates the handler set. defaultWindow is used by the moving-average
// endpoint when the request carries no window.
func NewAPI(detector Detector, anomalies AnomalyReader, records RecordReader, defaultWindow int, logger *slog.Logger) *API {
	return &API{
		detector:      detector,
		anomalies:     anomalies,
		records:       records,
		defaultWindow: defaultWindow,
		logger:        logger,
	}
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /anomalies/detect", a.handleDetect)
	mux.HandleFunc("GET /anomalies", a.handleListAnomalies)
	mux.HandleFunc("GET /anomalies/timeseries", a.handleTimeseries)
	mux.HandleFunc("GET /anomalies/moving-average", a.handleMovingAverage)
	mux.HandleFunc("GET /anomalies/{id}", a.handleGetAnomaly)
	mux.HandleFunc("GET /data/summary", a.handleSummary)
	mux.HandleFunc("GET /data/range", a.handleRange)
}

// envelope is the response body of every API endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (a *API) handleDetect(w http.ResponseWriter, r *http.Request) {
	location, ok := requireLocation(w, r)
	if !ok {
		return
	}
	res, err := a.detector.Detect(r.Context(), location)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, fmt.Sprintf("detected %d anomalies for %s", res.Persisted, location), res)
}

func (a *API) handleListAnomalies(w http.ResponseWriter, r *http.Request) {
	location, ok := requireLocation(w, r)
	if !ok {
		return
	}
	severity, err := domain.ParseSeverity(r.URL.Query().Get("severity"))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	anomalies, err := a.anomalies.QueryAnomalies(r.Context(), domain.AnomalyQuery{
		Location: location,
		Severity: severity,
		Limit:    limit,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if anomalies == nil {
		anomalies = []domain.Anomaly{}
	}
	writeData(w, fmt.Sprintf("found %d anomalies", len(anomalies)), anomalies)
}

func (a *API) handleGetAnomaly(w http.ResponseWriter, r *http.Request) {
	anomaly, err := a.anomalies.GetAnomaly(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, "anomaly found", anomaly)
}

func (a *API) handleTimeseries(w http.ResponseWriter, r *http.Request) {
	location, ok := requireLocation(w, r)
	if !ok {
		return
	}
	ts, err := a.detector.Timeseries(r.Context(), location)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, "timeseries for "+location, ts)
}

func (a *API) handleMovingAverage(w http.ResponseWriter, r *http.Request) {
	location, ok := requireLocation(w, r)
	if !ok {
		return
	}
	window := a.defaultWindow
	if s := r.URL.Query().Get("window"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 2 {
			writeFailure(w, http.StatusBadRequest, "window must be an integer >= 2")
			return
		}
		window = n
	}

	anomalies, err := a.detector.MovingAverage(r.Context(), location, window)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if anomalies == nil {
		anomalies = []domain.Anomaly{}
	}
	writeData(w, fmt.Sprintf("found %d moving average anomalies", len(anomalies)), anomalies)
}

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.records.Summary(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, "data summary", summary)
}

func (a *API) handleRange(w http.ResponseWriter, r *http.Request) {
	location, ok := requireLocation(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	start, errStart := strconv.Atoi(q.Get("start_year"))
	end, errEnd := strconv.Atoi(q.Get("end_year"))
	if errStart != nil || errEnd != nil {
		writeFailure(w, http.StatusBadRequest, "start_year and end_year must be integers")
		return
	}
	if start > end {
		writeFailure(w, http.StatusBadRequest, "start_year must not be after end_year")
		return
	}

	records, err := a.records.RecordsByYearRange(r.Context(), location, start, end)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.WeatherRecord{}
	}
	writeData(w, fmt.Sprintf("found %d records", len(records)), records)
}

func requireLocation(w http.ResponseWriter, r *http.Request) (string, bool) {
	location := strings.TrimSpace(r.URL.Query().Get("location"))
	if location == "" {
		writeFailure(w, http.StatusBadRequest, "location is required")
		return "", false
	}
	return location, true
}

// parseLimit accepts an empty value (store default) or an integer in [1, 100].
func parseLimit(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxQueryLimit {
		return 0, fmt.Errorf("limit must be an integer between 1 and %d", maxQueryLimit)
	}
	return n, nil
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeFailure(w, http.StatusNotFound, err.Error())
		return
	}
	a.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeFailure(w, http.StatusInternalServerError, "internal error")
}

func writeData(w http.ResponseWriter, message string, data any) {
	sharedobs.WriteJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	sharedobs.WriteJSON(w, status, envelope{Success: false, Message: message})
}

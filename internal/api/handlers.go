package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/MimoJanra/PortPulse/internal/checker"
	"github.com/MimoJanra/PortPulse/internal/models"
	"github.com/MimoJanra/PortPulse/internal/storage"
)

const maxBatchSize = 256

type Server struct {
	Prober    *checker.Prober
	Pool      *checker.WorkerPool
	Scheduler *checker.Scheduler
	Watches   *storage.WatchRepo
	Results   *storage.ResultRepo
	Limiter   *checker.RateLimiter
}

type ProbeBody struct {
	Target       string `json:"target" example:"localhost"`
	Port         int    `json:"port" example:"80"`
	TimeoutMS    int    `json:"timeout_ms,omitempty" example:"2000"`
	SkipLiveness bool   `json:"skip_liveness,omitempty" example:"false"`
}

func (b ProbeBody) request() models.ProbeRequest {
	return models.ProbeRequest{
		Target:       b.Target,
		Port:         b.Port,
		Timeout:      time.Duration(b.TimeoutMS) * time.Millisecond,
		SkipLiveness: b.SkipLiveness,
	}
}

type BatchBody struct {
	Probes []ProbeBody `json:"probes"`
}

type BatchResponse struct {
	BatchID string               `json:"batch_id"`
	Results []models.ProbeResult `json:"results"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	http.Error(w, msg, status)
}

func (s *Server) allow(n int) bool {
	if s.Limiter == nil {
		return true
	}
	return s.Limiter.AllowN(n)
}

// Probe godoc
// @Summary      Probe a TCP port
// @Description  Runs one connection attempt. Unreachable ports are reported with connectionStatus Failed, not an error status.
// @Tags         probe
// @Accept       json
// @Produce      json
// @Param        probe  body      ProbeBody  true  "probe request"
// @Success      200    {object}  models.ProbeResult
// @Failure      400    {string}  string  "invalid input"
// @Failure      429    {string}  string  "rate limited"
// @Router       /probe [post]
func (s *Server) Probe(w http.ResponseWriter, r *http.Request) {
	var body ProbeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := body.request()
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.allow(1) {
		writeError(w, http.StatusTooManyRequests, "probe rate limit exceeded")
		return
	}

	res, err := s.Prober.Probe(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.Results != nil {
		if _, err := s.Results.Add(models.Record{ProbeResult: res}); err != nil {
			log.Error().Err(err).Str("target", res.Target).Int("port", res.Port).Msg("failed to save probe result")
		}
	}

	writeJSON(w, http.StatusOK, res)
}

// ProbeBatch godoc
// @Summary      Probe several TCP ports
// @Description  Runs every probe through the worker pool. Results keep request order.
// @Tags         probe
// @Accept       json
// @Produce      json
// @Param        batch  body      BatchBody  true  "probes"
// @Success      200    {object}  BatchResponse
// @Failure      400    {string}  string  "invalid input"
// @Failure      429    {string}  string  "rate limited"
// @Router       /probe/batch [post]
func (s *Server) ProbeBatch(w http.ResponseWriter, r *http.Request) {
	var body BatchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Probes) == 0 {
		writeError(w, http.StatusBadRequest, "probes must not be empty")
		return
	}
	if len(body.Probes) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "too many probes in one batch")
		return
	}

	reqs := make([]models.ProbeRequest, len(body.Probes))
	for i, p := range body.Probes {
		reqs[i] = p.request()
		if err := reqs[i].Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "probe "+strconv.Itoa(i)+": "+err.Error())
			return
		}
	}
	if !s.allow(len(reqs)) {
		writeError(w, http.StatusTooManyRequests, "probe rate limit exceeded")
		return
	}

	batchID := uuid.NewString()
	results, err := s.Pool.ProbeMany(r.Context(), reqs, batchID)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, BatchResponse{BatchID: batchID, Results: results})
}

// ListResults godoc
// @Summary      List stored probe results
// @Tags         results
// @Produce      json
// @Param        target    query     string  false  "target host"
// @Param        port      query     int     false  "port"
// @Param        watch_id  query     int     false  "watch id"
// @Param        limit     query     int     false  "max rows, default 100"
// @Success      200       {array}   models.Record
// @Router       /results [get]
func (s *Server) ListResults(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ResultFilter{Target: q.Get("target")}

	var err error
	if filter.Port, err = optionalInt(q.Get("port")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid port")
		return
	}
	if filter.Limit, err = optionalInt(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if raw := q.Get("watch_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid watch_id")
			return
		}
		filter.WatchID = &id
	}

	records, err := s.Results.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load results")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// GetResult godoc
// @Summary      Get one stored probe result
// @Tags         results
// @Produce      json
// @Param        id   path      int  true  "result id"
// @Success      200  {object}  models.Record
// @Failure      404  {string}  string  "not found"
// @Router       /results/{id} [get]
func (s *Server) GetResult(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rec, err := s.Results.GetByID(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "result not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load result")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetStats godoc
// @Summary      Success ratio and latency for one endpoint
// @Tags         results
// @Produce      json
// @Param        target  query     string  true  "target host"
// @Param        port    query     int     true  "port"
// @Success      200     {object}  models.StatsResponse
// @Failure      400     {string}  string  "invalid input"
// @Router       /results/stats [get]
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	req := models.ProbeRequest{Target: r.URL.Query().Get("target")}
	port, err := strconv.Atoi(r.URL.Query().Get("port"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid port")
		return
	}
	req.Port = port
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := s.Results.Stats(req.Target, req.Port)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ListWatches godoc
// @Summary      List watches
// @Tags         watches
// @Produce      json
// @Success      200  {array}  models.Watch
// @Router       /watches [get]
func (s *Server) ListWatches(w http.ResponseWriter, _ *http.Request) {
	watches, err := s.Watches.GetAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get watches")
		return
	}
	if watches == nil {
		watches = []models.Watch{}
	}
	writeJSON(w, http.StatusOK, watches)
}

// CreateWatch godoc
// @Summary      Create a watch
// @Description  The scheduler probes enabled watches every interval_seconds.
// @Tags         watches
// @Accept       json
// @Produce      json
// @Param        watch  body      models.Watch  true  "watch"
// @Success      201    {object}  models.Watch
// @Failure      400    {string}  string  "invalid input"
// @Router       /watches [post]
func (s *Server) CreateWatch(w http.ResponseWriter, r *http.Request) {
	body := models.Watch{Enabled: true}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	watch, err := s.Watches.Add(body)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to add watch")
		return
	}

	s.reschedule()
	writeJSON(w, http.StatusCreated, watch)
}

// DeleteWatch godoc
// @Summary      Delete a watch and its results
// @Tags         watches
// @Param        id  path  int  true  "watch id"
// @Success      204
// @Failure      404  {string}  string  "not found"
// @Router       /watches/{id} [delete]
func (s *Server) DeleteWatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := s.Watches.Delete(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "watch not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete watch")
		return
	}

	s.reschedule()
	w.WriteHeader(http.StatusNoContent)
}

// SetWatchEnabled godoc
// @Summary      Enable or disable a watch
// @Tags         watches
// @Accept       json
// @Produce      json
// @Param        id    path      int     true  "watch id"
// @Param        body  body      object  true  "{\"enabled\": false}"
// @Success      200   {object}  models.Watch
// @Failure      404   {string}  string  "not found"
// @Router       /watches/{id}/enabled [patch]
func (s *Server) SetWatchEnabled(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	err := s.Watches.SetEnabled(id, *body.Enabled)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "watch not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update watch")
		return
	}

	watch, err := s.Watches.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load watch")
		return
	}

	s.reschedule()
	writeJSON(w, http.StatusOK, watch)
}

func (s *Server) reschedule() {
	if s.Scheduler != nil {
		s.Scheduler.Reload()
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func optionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}

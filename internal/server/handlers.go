package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/internal/storage"
)

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	var input models.EntryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("append request", zap.String("func", input.FuncName), zap.Float64("score", input.Score))
	entry, err := s.engine.Append(r.Context(), &input)
	if err != nil {
		s.respondEngineError(w, "append failed", err)
		return
	}
	appendsTotal.Inc()
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": entry.ID, "status": "recorded"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("list request",
		zap.String("func", query.Func), zap.Int("limit", query.Limit), zap.Int("offset", query.Offset))
	response, err := s.engine.List(r.Context(), query)
	if err != nil {
		s.respondEngineError(w, "list failed", err)
		return
	}
	listQueriesTotal.Inc()
	s.respondJSON(w, http.StatusOK, response)
}

// parseListQuery reads the list parameters from the URL query string.
func parseListQuery(r *http.Request) (*models.ListQuery, error) {
	q := r.URL.Query()
	query := &models.ListQuery{Func: q.Get("func")}

	var err error
	if v := q.Get("limit"); v != "" {
		if query.Limit, err = strconv.Atoi(v); err != nil {
			return nil, errors.New("limit must be an integer")
		}
	}
	if v := q.Get("offset"); v != "" {
		if query.Offset, err = strconv.Atoi(v); err != nil {
			return nil, errors.New("offset must be an integer")
		}
	}
	if v := q.Get("perfectOnly"); v != "" {
		if query.PerfectOnly, err = strconv.ParseBool(v); err != nil {
			return nil, errors.New("perfectOnly must be a boolean")
		}
	}
	if v := q.Get("minScore"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.New("minScore must be a number")
		}
		query.MinScore = &f
	}
	if v := q.Get("maxScore"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.New("maxScore must be a number")
		}
		query.MaxScore = &f
	}
	return query, nil
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := s.engine.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "entry not found")
			return
		}
		s.logger.Error("get entry failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, entry)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	var query models.SimilarQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("similar request",
		zap.String("target_sig_key", query.TargetSigKey), zap.Int("limit", query.Limit))
	start := time.Now()
	response, err := s.engine.Similar(r.Context(), &query)
	if err != nil {
		s.respondEngineError(w, "similarity query failed", err)
		return
	}
	similarQueriesTotal.Inc()
	similarDuration.Observe(time.Since(start).Seconds())
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.logger.Error("status: corpus stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"entries":       stats.Entries,
		"perfect_runs":  stats.PerfectRuns,
		"index_buckets": stats.IndexBuckets,
		"index_entries": stats.IndexEntries,
	}
	if s.fullConfig != nil {
		resp["config"] = map[string]interface{}{
			"database_path":         s.fullConfig.Storage.DatabasePath,
			"default_list_limit":    s.fullConfig.Corpus.DefaultListLimit,
			"max_list_limit":        s.fullConfig.Corpus.MaxListLimit,
			"default_similar_limit": s.fullConfig.Corpus.DefaultSimilarLimit,
			"spool_directories":     s.fullConfig.Spool.Directories,
		}
		paths := append([]string{s.fullConfig.Storage.DatabasePath}, s.fullConfig.Spool.Directories...)
		if diskBytes, err := storage.DiskUsageBytes(paths...); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// respondEngineError maps engine errors to status codes: invalid input is the
// caller's fault, everything else is internal.
func (s *Server) respondEngineError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, models.ErrInvalidInput) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error(msg, zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

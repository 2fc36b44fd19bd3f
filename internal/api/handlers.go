package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/flowcrm/pain-radar/internal/models"
)

type createKeywordRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

func (s *Server) handleCreateKeyword(w http.ResponseWriter, r *http.Request) {
	var req createKeywordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	keyword, err := s.keywords.Create(r.Context(), tenantID(r), userID(r), req.Text, req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, keyword)
}

func (s *Server) handleListKeywords(w http.ResponseWriter, r *http.Request) {
	stats, err := s.keywords.List(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if stats == nil {
		stats = []models.KeywordStats{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"keywords": stats})
}

type triggerScanRequest struct {
	KeywordID string `json:"keywordId"`
	Platform  string `json:"platform"`
	Limit     int    `json:"limit"`
}

func (s *Server) handleTriggerScan(w http.ResponseWriter, r *http.Request) {
	var req triggerScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Limit == 0 {
		req.Limit = s.defaultScanLimit
	}

	scan, err := s.scans.Trigger(r.Context(), tenantID(r), req.KeywordID, models.Platform(req.Platform), req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, scan)
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	scan, err := s.scans.GetScan(r.Context(), tenantID(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scan)
}

func (s *Server) handleScanPage(w http.ResponseWriter, r *http.Request) {
	data, err := s.scans.RawPage(r.Context(), tenantID(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logrus.Errorf("Failed to write scan page response: %v", err)
	}
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.PostFilter{
		KeywordID: q.Get("keywordId"),
		Limit:     intQuery(q.Get("limit"), 0),
		Offset:    intQuery(q.Get("offset"), 0),
	}
	if v := q.Get("isAnalyzed"); v != "" {
		analyzed, err := strconv.ParseBool(v)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "isAnalyzed must be a boolean")
			return
		}
		filter.IsAnalyzed = &analyzed
	}

	posts, total, err := s.pains.ListPosts(r.Context(), tenantID(r), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if posts == nil {
		posts = []models.SocialPost{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"posts": posts, "total": total})
}

func (s *Server) handleListPains(w http.ResponseWriter, r *http.Request) {
	filter, err := painFilterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.pains.List(r.Context(), tenantID(r), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if result.Pains == nil {
		result.Pains = []models.ExtractedPain{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetPain(w http.ResponseWriter, r *http.Request) {
	pain, err := s.pains.Get(r.Context(), tenantID(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pain)
}

type updatePainRequest struct {
	Category         *models.PainCategory `json:"category"`
	Severity         *models.PainSeverity `json:"severity"`
	LinkedProjectIDs *[]string            `json:"linkedProjectIds"`
}

func (s *Server) handleUpdatePain(w http.ResponseWriter, r *http.Request) {
	var req updatePainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pain, err := s.pains.Update(r.Context(), tenantID(r), mux.Vars(r)["id"], models.PainUpdate{
		Category:         req.Category,
		Severity:         req.Severity,
		LinkedProjectIDs: req.LinkedProjectIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pain)
}

func (s *Server) handleGenerateInsights(w http.ResponseWriter, r *http.Request) {
	payload, err := s.insights.Generate(r.Context(), tenantID(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.pains.Dashboard(r.Context(), tenantID(r), r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func painFilterFromQuery(r *http.Request) (models.PainFilter, error) {
	q := r.URL.Query()
	filter := models.PainFilter{
		Category: models.PainCategory(q.Get("category")),
		Severity: models.PainSeverity(q.Get("severity")),
		Search:   q.Get("search"),
		SortBy:   q.Get("sortBy"),
		Limit:    intQuery(q.Get("limit"), 0),
		Offset:   intQuery(q.Get("offset"), 0),
	}

	var err error
	if filter.DateFrom, err = timeQuery(q.Get("dateFrom")); err != nil {
		return filter, models.NewValidationError("dateFrom", "must be an RFC 3339 timestamp or YYYY-MM-DD")
	}
	if filter.DateTo, err = timeQuery(q.Get("dateTo")); err != nil {
		return filter, models.NewValidationError("dateTo", "must be an RFC 3339 timestamp or YYYY-MM-DD")
	}
	return filter, nil
}

func intQuery(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return defaultValue
}

func timeQuery(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

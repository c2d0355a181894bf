package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kerim47/quantdesk/internal/analytics"
	"github.com/kerim47/quantdesk/internal/labels"
	"github.com/kerim47/quantdesk/internal/tmdb"
)

const maxCSVBytes = 10 << 20

func (s *Server) getCurrencies(c *gin.Context) {
	if s.deps.Currencies == nil {
		abortError(c, http.StatusServiceUnavailable, errUnavailable)
		return
	}
	report, ok := s.deps.Currencies.Latest()
	if !ok {
		abortError(c, http.StatusServiceUnavailable, errors.New("no currency report yet"))
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (s *Server) getCurrencyHistory(c *gin.Context) {
	if s.deps.Currencies == nil {
		abortError(c, http.StatusServiceUnavailable, errUnavailable)
		return
	}
	code := strings.ToUpper(c.Param("code"))
	points, ok := s.deps.Currencies.History(code)
	if !ok {
		abortError(c, http.StatusNotFound, fmt.Errorf("currency %s is not tracked", code))
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code, "points": points})
}

func (s *Server) listAnalyses(c *gin.Context) {
	if s.deps.Analyses == nil {
		abortError(c, http.StatusServiceUnavailable, errUnavailable)
		return
	}
	c.JSON(http.StatusOK, s.deps.Analyses.Reports())
}

func (s *Server) getAnalysis(c *gin.Context) {
	if s.deps.Analyses == nil {
		abortError(c, http.StatusServiceUnavailable, errUnavailable)
		return
	}
	symbol := c.Param("symbol")
	reports := s.deps.Analyses.SymbolReports(symbol)
	if len(reports) == 0 {
		abortError(c, http.StatusNotFound, fmt.Errorf("no analysis for %s", symbol))
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (s *Server) listAlerts(c *gin.Context) {
	if s.deps.Alerts == nil {
		abortError(c, http.StatusServiceUnavailable, errUnavailable)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 500 {
		abortError(c, http.StatusBadRequest, errors.New("limit must be between 1 and 500"))
		return
	}
	alerts, err := s.deps.Alerts.RecentAlerts(limit)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// postConfusion accepts JSON counts or a CSV body with true_label and
// predicted_label columns.
func (s *Server) postConfusion(c *gin.Context) {
	var counts analytics.Counts
	if strings.HasPrefix(c.ContentType(), "text/csv") {
		var err error
		counts, err = labels.CountsFromCSV(http.MaxBytesReader(c.Writer, c.Request.Body, maxCSVBytes))
		if err != nil {
			abortError(c, http.StatusBadRequest, err)
			return
		}
	} else if err := c.ShouldBindJSON(&counts); err != nil {
		abortError(c, http.StatusBadRequest, fmt.Errorf("invalid counts: %w", err))
		return
	}

	if counts.Total() == 0 {
		abortError(c, http.StatusBadRequest, errors.New("at least one classified sample is required"))
		return
	}
	metrics, err := analytics.ConfusionMetrics(counts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, analytics.ErrValidation) {
			status = http.StatusBadRequest
		}
		abortError(c, status, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts, "metrics": metrics})
}

// getMovies searches when query is set and lists popular movies otherwise.
// current reports whether this response is the newest accepted result.
func (s *Server) getMovies(c *gin.Context) {
	if s.deps.Movies == nil {
		abortError(c, http.StatusServiceUnavailable, errUnavailable)
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		abortError(c, http.StatusBadRequest, errors.New("page must be a positive integer"))
		return
	}

	query := strings.TrimSpace(c.Query("query"))
	var result tmdb.Result
	var current bool
	if query == "" {
		result, current, err = s.deps.Movies.Popular(c.Request.Context(), page)
	} else {
		result, current, err = s.deps.Movies.Search(c.Request.Context(), query, page)
	}
	if err != nil {
		abortError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "current": current})
}

func (s *Server) getCurrentMovies(c *gin.Context) {
	if s.deps.Movies == nil {
		abortError(c, http.StatusServiceUnavailable, errUnavailable)
		return
	}
	result, ok := s.deps.Movies.Current()
	if !ok {
		abortError(c, http.StatusNotFound, errors.New("no movie results yet"))
		return
	}
	c.JSON(http.StatusOK, result)
}

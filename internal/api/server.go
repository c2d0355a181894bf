// Package api serves the desk over HTTP: reports, alerts, the confusion
// analyzer, the movie browser, the quiz and the word game, plus a websocket
// feed of every new report.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kerim47/quantdesk/internal/logger"
	"github.com/kerim47/quantdesk/internal/models"
	"github.com/kerim47/quantdesk/internal/quiz"
	"github.com/kerim47/quantdesk/internal/series"
	"github.com/kerim47/quantdesk/internal/tmdb"
	"github.com/kerim47/quantdesk/internal/wordgame"
)

// CurrencyReporter serves the currency tracker.
type CurrencyReporter interface {
	Latest() (*models.CurrencyReport, bool)
	History(code string) ([]series.Point, bool)
}

// AnalysisReporter serves the kline analyses.
type AnalysisReporter interface {
	SymbolReports(symbol string) []*models.AnalysisReport
	Reports() []*models.AnalysisReport
}

// AlertLister lists stored alerts.
type AlertLister interface {
	RecentAlerts(k int) ([]models.Alert, error)
}

// MovieBrowser searches movies.
type MovieBrowser interface {
	Search(ctx context.Context, query string, page int) (tmdb.Result, bool, error)
	Popular(ctx context.Context, page int) (tmdb.Result, bool, error)
	Current() (tmdb.Result, bool)
}

// QuestionSource draws exam questions.
type QuestionSource interface {
	Random(ctx context.Context, kind quiz.Kind, limit int) ([]quiz.Question, error)
}

// Deps are the services behind the routes. A nil dependency makes its
// routes answer 503.
type Deps struct {
	Currencies CurrencyReporter
	Analyses   AnalysisReporter
	Alerts     AlertLister
	Movies     MovieBrowser
	Questions  QuestionSource
	Metrics    interface {
		RequestObserver
		Handler() http.Handler
	}
}

// Options tune the server.
type Options struct {
	RateLimit     float64
	Burst         int
	TestQuestions int
	OpenQuestions int
	Exam          quiz.ExamConfig
	Words         []wordgame.Word
	SessionIdle   time.Duration
}

// Server wires HTTP endpoints around the desk services.
type Server struct {
	Router *gin.Engine

	deps    Deps
	opts    Options
	hub     *Hub
	limiter *ipLimiter
	exams   *sessions[*quiz.Exam]
	games   *sessions[*wordgame.Game]
}

func NewServer(deps Deps, opts Options) *Server {
	if opts.SessionIdle <= 0 {
		opts.SessionIdle = time.Hour
	}
	if len(opts.Words) == 0 {
		opts.Words = wordgame.DefaultWords
	}

	r := gin.New()
	s := &Server{
		Router:  r,
		deps:    deps,
		opts:    opts,
		hub:     NewHub(),
		limiter: newIPLimiter(opts.RateLimit, opts.Burst),
		exams:   newSessions[*quiz.Exam](),
		games:   newSessions[*wordgame.Game](),
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(deps.Metrics))
	r.Use(RateLimitMiddleware(s.limiter))

	s.routes()
	return s
}

// Hub returns the websocket hub reports are broadcast on.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.hub.serveWS)
	if s.deps.Metrics != nil {
		s.Router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}

	api := s.Router.Group("/api")
	{
		api.GET("/currencies", s.getCurrencies)
		api.GET("/currencies/:code/history", s.getCurrencyHistory)
		api.GET("/analysis", s.listAnalyses)
		api.GET("/analysis/:symbol", s.getAnalysis)
		api.GET("/alerts", s.listAlerts)
		api.POST("/confusion", s.postConfusion)
		api.GET("/movies", s.getMovies)
		api.GET("/movies/current", s.getCurrentMovies)

		exam := api.Group("/quiz")
		exam.POST("", s.startExam)
		exam.GET("/:id", s.getExam)
		exam.POST("/:id/answer", s.answerExam)
		exam.POST("/:id/next", s.nextQuestion)
		exam.POST("/:id/prev", s.prevQuestion)
		exam.POST("/:id/joker", s.examJoker)
		exam.POST("/:id/finish", s.finishExam)
		exam.GET("/:id/result", s.examResult)

		game := api.Group("/wordgame")
		game.POST("", s.startGame)
		game.GET("/:id", s.getGame)
		game.POST("/:id/guess", s.guessWord)
		game.POST("/:id/joker", s.gameJoker)
		game.POST("/:id/pass", s.passWord)
		game.GET("/:id/stats", s.gameStats)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.housekeeping(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}

// housekeeping drops idle rate limiters and game sessions.
func (s *Server) housekeeping(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.prune(10 * time.Minute)
			if n := s.exams.prune(s.opts.SessionIdle) + s.games.prune(s.opts.SessionIdle); n > 0 {
				logger.Debug("Pruned %d idle game sessions", n)
			}
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"time":      time.Now().UTC(),
		"ws_client": s.hub.Len(),
	})
}

func abortError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

var errUnavailable = errors.New("service not configured")

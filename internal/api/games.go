package api

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kerim47/quantdesk/internal/quiz"
	"github.com/kerim47/quantdesk/internal/wordgame"
)

var errNoSession = errors.New("session not found")

type answerRequest struct {
	Answer string `json:"answer"`
}

func (s *Server) startExam(c *gin.Context) {
	if s.deps.Questions == nil {
		abortError(c, http.StatusServiceUnavailable, errUnavailable)
		return
	}
	ctx := c.Request.Context()
	test, err := s.deps.Questions.Random(ctx, quiz.Test, s.opts.TestQuestions)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	open, err := s.deps.Questions.Random(ctx, quiz.Open, s.opts.OpenQuestions)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	bonus, err := s.deps.Questions.Random(ctx, quiz.Bonus, 1)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}

	exam, err := quiz.NewExam(slices.Concat(test, open), bonus, s.opts.Exam, nil)
	if err != nil {
		abortError(c, http.StatusServiceUnavailable, err)
		return
	}
	id := s.exams.add(exam)
	c.JSON(http.StatusCreated, gin.H{"id": id, "question": exam.Current()})
}

// withExam advances the exam clocks by the time since the previous request
// and then runs fn.
func (s *Server) withExam(c *gin.Context, fn func(e *quiz.Exam) (int, any, error)) {
	var (
		status int
		body   any
		err    error
	)
	found := s.exams.use(c.Param("id"), func(e *quiz.Exam, elapsed time.Duration) {
		e.Tick(elapsed)
		status, body, err = fn(e)
	})
	switch {
	case !found:
		abortError(c, http.StatusNotFound, errNoSession)
	case err != nil:
		abortError(c, status, err)
	default:
		c.JSON(status, body)
	}
}

func (s *Server) getExam(c *gin.Context) {
	s.withExam(c, func(e *quiz.Exam) (int, any, error) {
		return http.StatusOK, e.Current(), nil
	})
}

func (s *Server) answerExam(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, fmt.Errorf("invalid answer: %w", err))
		return
	}
	s.withExam(c, func(e *quiz.Exam) (int, any, error) {
		if err := e.Answer(req.Answer); err != nil {
			return http.StatusConflict, nil, err
		}
		return http.StatusOK, e.Current(), nil
	})
}

func (s *Server) nextQuestion(c *gin.Context) {
	s.withExam(c, func(e *quiz.Exam) (int, any, error) {
		moved := e.Next()
		return http.StatusOK, gin.H{"moved": moved, "question": e.Current()}, nil
	})
}

func (s *Server) prevQuestion(c *gin.Context) {
	s.withExam(c, func(e *quiz.Exam) (int, any, error) {
		moved := e.Prev()
		return http.StatusOK, gin.H{"moved": moved, "question": e.Current()}, nil
	})
}

func (s *Server) examJoker(c *gin.Context) {
	s.withExam(c, func(e *quiz.Exam) (int, any, error) {
		removed, err := e.Joker(nil)
		if err != nil {
			return http.StatusConflict, nil, err
		}
		return http.StatusOK, gin.H{"removed": removed, "question": e.Current()}, nil
	})
}

func (s *Server) finishExam(c *gin.Context) {
	s.withExam(c, func(e *quiz.Exam) (int, any, error) {
		e.Finish()
		return http.StatusOK, e.Result(), nil
	})
}

func (s *Server) examResult(c *gin.Context) {
	s.withExam(c, func(e *quiz.Exam) (int, any, error) {
		if !e.Finished() {
			return http.StatusConflict, nil, errors.New("exam is still running")
		}
		return http.StatusOK, e.Result(), nil
	})
}

func (s *Server) startGame(c *gin.Context) {
	g := wordgame.New(s.opts.Words, wordgame.Config{})
	id := s.games.add(g)
	c.JSON(http.StatusCreated, gin.H{"id": id, "state": g.Current()})
}

// withGame advances the question clock by the time since the previous request,
// reports the timeouts that happened meanwhile, and then runs fn unless the game ended.
func (s *Server) withGame(c *gin.Context, fn func(g *wordgame.Game) (int, gin.H, error)) {
	var (
		status int
		body   gin.H
		err    error
	)
	found := s.games.use(c.Param("id"), func(g *wordgame.Game, elapsed time.Duration) {
		timeouts := g.Tick(elapsed)
		if len(timeouts) > 0 && g.Over() {
			status, body = http.StatusOK, gin.H{"timeouts": timeouts, "state": g.Current()}
			return
		}
		status, body, err = fn(g)
		if err == nil && len(timeouts) > 0 {
			body["timeouts"] = timeouts
		}
	})
	switch {
	case !found:
		abortError(c, http.StatusNotFound, errNoSession)
	case err != nil:
		abortError(c, status, err)
	default:
		c.JSON(status, body)
	}
}

func (s *Server) getGame(c *gin.Context) {
	s.withGame(c, func(g *wordgame.Game) (int, gin.H, error) {
		return http.StatusOK, gin.H{"state": g.Current()}, nil
	})
}

func (s *Server) guessWord(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, fmt.Errorf("invalid guess: %w", err))
		return
	}
	s.withGame(c, func(g *wordgame.Game) (int, gin.H, error) {
		fb, err := g.Guess(req.Answer)
		if err != nil {
			return http.StatusConflict, nil, err
		}
		return http.StatusOK, gin.H{"feedback": fb, "state": g.Current()}, nil
	})
}

func (s *Server) gameJoker(c *gin.Context) {
	s.withGame(c, func(g *wordgame.Game) (int, gin.H, error) {
		hint, err := g.Joker(nil)
		if err != nil {
			return http.StatusConflict, nil, err
		}
		return http.StatusOK, gin.H{"hint": hint, "state": g.Current()}, nil
	})
}

func (s *Server) passWord(c *gin.Context) {
	s.withGame(c, func(g *wordgame.Game) (int, gin.H, error) {
		fb, err := g.Pass()
		if err != nil {
			return http.StatusConflict, nil, err
		}
		return http.StatusOK, gin.H{"feedback": fb, "state": g.Current()}, nil
	})
}

func (s *Server) gameStats(c *gin.Context) {
	s.withGame(c, func(g *wordgame.Game) (int, gin.H, error) {
		return http.StatusOK, gin.H{"stats": g.Stats(), "state": g.Current()}, nil
	})
}

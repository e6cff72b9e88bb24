package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"caltrack/internal/model"
	"caltrack/internal/service"
)

// Server exposes a read-only JSON view over the local database. Mutations
// stay on the CLI; the server exists so dashboards and phone shortcuts can
// poll today's state.
type Server struct {
	db     *sql.DB
	engine *service.BalanceEngine
}

func NewServer(db *sql.DB, engine *service.BalanceEngine) *Server {
	return &Server{db: db, engine: engine}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	router.SetTrustedProxies(nil)

	api := router.Group("/api")
	api.GET("/today", s.getToday)
	api.GET("/goal", s.getGoal)
	api.GET("/balance/:date", s.getBalance)
	api.GET("/progress", s.getProgress)

	return router
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func (s *Server) getToday(c *gin.Context) {
	now := time.Now()
	date := now.Format("2006-01-02")
	day, err := service.GetDay(s.db, date)
	if err != nil {
		apiError(c, http.StatusInternalServerError, err.Error())
		return
	}
	meals, err := service.MealBreakdown(s.db, date)
	if err != nil {
		apiError(c, http.StatusInternalServerError, err.Error())
		return
	}
	balance, err := s.engine.ComputeBalance(c.Request.Context(), now)
	if err != nil {
		apiError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{
		"day":     day,
		"meals":   meals,
		"balance": balance,
	})
}

func (s *Server) getGoal(c *gin.Context) {
	goal, err := service.ActiveGoal(s.db)
	if err != nil {
		apiError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if goal == nil {
		apiError(c, http.StatusNotFound, "no active goal")
		return
	}
	c.IndentedJSON(http.StatusOK, goal)
}

func (s *Server) getBalance(c *gin.Context) {
	date, err := time.ParseInLocation("2006-01-02", c.Param("date"), time.Local)
	if err != nil {
		apiError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	balance, err := s.engine.ComputeBalance(c.Request.Context(), date)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			apiError(c, http.StatusBadRequest, verr.Error())
			return
		}
		apiError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.IndentedJSON(http.StatusOK, balance)
}

func (s *Server) getProgress(c *gin.Context) {
	now := time.Now()
	goal, err := service.ActiveGoal(s.db)
	if err != nil {
		apiError(c, http.StatusInternalServerError, err.Error())
		return
	}
	weight, _, err := service.LatestWeightKg(s.db)
	if err != nil {
		apiError(c, http.StatusInternalServerError, err.Error())
		return
	}
	var balances []model.CalorieBalance
	if goal != nil {
		balances, err = s.engine.BalanceRange(c.Request.Context(), goal.CreatedAt, now)
		if err != nil {
			apiError(c, http.StatusInternalServerError, err.Error())
			return
		}
	}
	c.IndentedJSON(http.StatusOK, service.EvaluateProgress(goal, weight, balances, now))
}

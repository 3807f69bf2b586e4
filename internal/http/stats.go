package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/booklogapp/booklog/internal/stats"
)

// StatsController serves the per-user reading and review roll-up.
type StatsController struct {
	stats *stats.Service
}

func NewStatsController(statsService *stats.Service) *StatsController {
	return &StatsController{stats: statsService}
}

// Me returns the authenticated user's statistics.
// GET /api/stats/me
func (sc *StatsController) Me(c *gin.Context) {
	userStats, err := sc.stats.GetUserStats(GetUserID(c))
	if err != nil {
		respondDomainError(c, err, "compute user stats")
		return
	}
	c.JSON(http.StatusOK, userStats)
}

package biz

import (
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

// searchMetrics is the one-line summary logged per search
type searchMetrics struct {
	Query     string
	Called    int
	Succeeded int
	Failed    int
	Total     int
	Unique    int
	Filtered  int
	Rejected  int
	Latency   time.Duration
	statuses  []zap.Field
}

func (m *searchMetrics) addStatus(s types.ProviderStatus) {
	m.Called++
	if s.Status == types.StatusOK {
		m.Succeeded++
	} else {
		m.Failed++
	}
	m.statuses = append(m.statuses, zap.String("status_"+string(s.Source), string(s.Status)))
}

// SuccessRate is the share of called sources that answered ok
func (m *searchMetrics) SuccessRate() float64 {
	if m.Called == 0 {
		return 0
	}
	return float64(m.Succeeded) / float64(m.Called)
}

func (m *searchMetrics) log(l *logger.Logger) {
	fields := []zap.Field{
		zap.String("query", m.Query),
		zap.Int("providers_called", m.Called),
		zap.Int("providers_succeeded", m.Succeeded),
		zap.Int("providers_failed", m.Failed),
		zap.Float64("success_rate", m.SuccessRate()),
		zap.Int("total_results", m.Total),
		zap.Int("unique_results", m.Unique),
		logger.Count("filtered_results", m.Filtered),
		zap.Int("rejected", m.Rejected),
		logger.Latency(m.Latency),
	}
	fields = append(fields, m.statuses...)
	if m.Filtered == 0 {
		l.Warn("search finished without results", fields...)
		return
	}
	l.Info("search finished", fields...)
}

package client

import (
	"time"

	"golang.org/x/time/rate"
)

// Бюджеты WB API: content-api 100 req/60s, statistics-api 1 req/60s.
const (
	ContentPerWindow    = 100
	StatisticsPerWindow = 1
	LimiterWindow       = time.Minute
)

type Family string

const (
	FamilyContent    Family = "content"
	FamilyStatistics Family = "statistics"
)

// Limiters -- общие на процесс token-bucket'ы обоих семейств эндпоинтов.
// Создаются один раз и передаются по ссылке во все клиенты, чтобы
// конкурирующие задания делили один бюджет.
type Limiters struct {
	content    *rate.Limiter
	statistics *rate.Limiter
}

func NewLimiters() *Limiters {
	return NewLimitersWithBudget(ContentPerWindow, StatisticsPerWindow)
}

func NewLimitersWithBudget(contentPerWindow, statisticsPerWindow int) *Limiters {
	return &Limiters{
		content:    rate.NewLimiter(rate.Every(LimiterWindow/time.Duration(contentPerWindow)), contentPerWindow),
		statistics: rate.NewLimiter(rate.Every(LimiterWindow/time.Duration(statisticsPerWindow)), statisticsPerWindow),
	}
}

func (l *Limiters) limiter(family Family) *rate.Limiter {
	if family == FamilyStatistics {
		return l.statistics
	}
	return l.content
}

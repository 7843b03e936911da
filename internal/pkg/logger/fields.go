package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field helpers shared by the sourcing pipeline so log keys stay consistent.

func SearchID(id string) zap.Field {
	return zap.String("search_id", id)
}

func Source(id string) zap.Field {
	return zap.String("source", id)
}

func Status(s string) zap.Field {
	return zap.String("status", s)
}

func Latency(d time.Duration) zap.Field {
	return zap.Int64("latency_ms", d.Milliseconds())
}

func Count(key string, n int) zap.Field {
	return zap.Int(key, n)
}

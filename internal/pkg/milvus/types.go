package milvus

import "time"

// MetricType represents the distance metric of a vector index
type MetricType string

const (
	MetricTypeL2     MetricType = "L2"
	MetricTypeIP     MetricType = "IP"
	MetricTypeCosine MetricType = "COSINE"
)

const (
	DefaultRetries    = 2
	DefaultRetryDelay = 200 * time.Millisecond
)

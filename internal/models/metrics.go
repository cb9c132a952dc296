package models

import "time"

// SystemMetrics is a lightweight aggregate exposed on the status endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	StoreOperationCount      uint64    `json:"storeOperationCount"`
	AverageStoreOperationMs  float64   `json:"averageStoreOperationMs"`
	FeedRebuilds             uint64    `json:"feedRebuilds"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "reelstream"

var (
	// CacheOperationsTotal tracks video list cache operations.
	// Labels:
	//   - operation: get, set, delete
	//   - status: hit, miss, success, error
	//   - cache_type: redis
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "status", "cache_type"},
	)

	// DBQueriesTotal tracks database queries.
	// Labels:
	//   - query_type: select, insert, update
	//   - table: videos
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_queries_total",
			Help:      "Total number of database queries",
		},
		[]string{"query_type", "table"},
	)

	// SingleflightRequestsTotal tracks singleflight behavior.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)

	// PrefetchRetrievalsTotal tracks payload retrievals issued by the prefetch cache.
	// Labels:
	//   - result: initiated, deduplicated, succeeded, failed, discarded
	PrefetchRetrievalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prefetch_retrievals_total",
			Help:      "Total number of prefetch retrievals by outcome",
		},
		[]string{"result"},
	)

	// PrefetchBytesTotal counts payload bytes materialized into handles.
	PrefetchBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prefetch_bytes_total",
			Help:      "Total number of payload bytes materialized",
		},
	)

	// SequencerAdvancesTotal counts playback-completed signals that advanced the feed.
	SequencerAdvancesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sequencer_advances_total",
			Help:      "Total number of sequencer advances",
		},
	)

	// AutoplayRejectionsTotal counts presenter refusals to start playback.
	AutoplayRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autoplay_rejections_total",
			Help:      "Total number of rejected autoplay attempts",
		},
	)

	// PlaybackEventsTotal tracks playback events through the queue.
	// Labels:
	//   - stage: published, publish_failed, consumed, dropped
	PlaybackEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_events_total",
			Help:      "Total number of playback events by stage",
		},
		[]string{"stage"},
	)
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet    = "get"
	CacheOpSet    = "set"
	CacheOpDelete = "delete"
)

// Cache type constants.
const (
	CacheTypeRedis = "redis"
)

// DB query type constants.
const (
	DBQuerySelect = "select"
	DBQueryInsert = "insert"
	DBQueryUpdate = "update"
)

// Table name constants.
const (
	TableVideos = "videos"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)

// Prefetch result constants.
const (
	PrefetchInitiated    = "initiated"
	PrefetchDeduplicated = "deduplicated"
	PrefetchSucceeded    = "succeeded"
	PrefetchFailed       = "failed"
	PrefetchDiscarded    = "discarded"
)

// Playback event stage constants.
const (
	PlaybackPublished     = "published"
	PlaybackPublishFailed = "publish_failed"
	PlaybackConsumed      = "consumed"
	PlaybackDropped       = "dropped"
)

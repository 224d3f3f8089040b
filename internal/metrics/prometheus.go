package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the analytics worker

var (
	// Ledger ingest metrics
	LedgerRowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ncaab_ledger_rows_loaded_total",
			Help: "Total number of rows loaded from input files",
		},
		[]string{"file", "status"},
	)

	LedgerLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ncaab_ledger_load_duration_seconds",
			Help:    "Duration of input file loads in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"file"},
	)

	UnresolvedTeamNames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ncaab_unresolved_team_names_total",
			Help: "Total number of team names the resolver could not map",
		},
	)

	// Database metrics
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ncaab_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "table", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ncaab_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ncaab_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ncaab_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ncaab_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ncaab_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ncaab_cache_operation_duration_seconds",
			Help:    "Duration of cache operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// Engine run metrics
	EngineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ncaab_engine_runs_total",
			Help: "Total number of engine runs",
		},
		[]string{"engine", "status"},
	)

	EngineRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ncaab_engine_run_duration_seconds",
			Help:    "Duration of engine runs in seconds",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"engine"},
	)

	RatedTeams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ncaab_rated_teams",
			Help: "Number of teams in the latest rating run",
		},
	)

	FeatureRowsBuilt = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ncaab_feature_rows_built",
			Help: "Number of feature rows in the latest build",
		},
	)

	DriftRowsComputed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ncaab_drift_rows_computed",
			Help: "Number of drift metric rows in the latest run",
		},
	)

	AnomaliesFlagged = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ncaab_anomalies_flagged",
			Help: "Number of teams flagged anomalous in the latest run",
		},
	)

	AmbiguousPredictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ncaab_ambiguous_predictions_total",
			Help: "Total number of prediction dedup ties broken by batch position",
		},
	)

	// Pipeline metrics
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ncaab_pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"trigger", "status"},
	)

	PipelineRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ncaab_pipeline_run_duration_seconds",
			Help:    "Duration of full pipeline runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	GamesIngested = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ncaab_games_ingested_total",
			Help: "Total number of games in database",
		},
	)

	TeamsIngested = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ncaab_teams_ingested_total",
			Help: "Total number of teams in database",
		},
	)

	PredictionsIngested = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ncaab_prediction_records_total",
			Help: "Total number of prediction records in database",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ncaab_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ncaab_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ncaab_last_successful_run_timestamp",
			Help: "Timestamp of last successful pipeline run",
		},
	)
)

// RecordLedgerLoad records an input file load
func RecordLedgerLoad(file, status string, rows int, duration float64) {
	LedgerRowsLoaded.WithLabelValues(file, status).Add(float64(rows))
	LedgerLoadDuration.WithLabelValues(file).Observe(duration)
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table, status string, duration float64) {
	DBQueriesTotal.WithLabelValues(operation, table, status).Inc()
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordCacheOperation records a cache operation duration
func RecordCacheOperation(operation string, duration float64) {
	CacheOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordEngineRun records one engine's run
func RecordEngineRun(engine, status string, duration float64) {
	EngineRunsTotal.WithLabelValues(engine, status).Inc()
	EngineRunDuration.WithLabelValues(engine).Observe(duration)
}

// RecordPipelineRun records a full pipeline run
func RecordPipelineRun(trigger, status string, duration float64) {
	PipelineRunsTotal.WithLabelValues(trigger, status).Inc()
	PipelineRunDuration.Observe(duration)

	if status == "success" {
		LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(active, idle int32) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}

// UpdateStoreStats updates persisted row counts
func UpdateStoreStats(teams, games, predictions int64) {
	TeamsIngested.Set(float64(teams))
	GamesIngested.Set(float64(games))
	PredictionsIngested.Set(float64(predictions))
}

// UpdateEngineOutputStats updates the latest run's output sizes
func UpdateEngineOutputStats(ratedTeams, featureRows, driftRows, anomalies int) {
	RatedTeams.Set(float64(ratedTeams))
	FeatureRowsBuilt.Set(float64(featureRows))
	DriftRowsComputed.Set(float64(driftRows))
	AnomaliesFlagged.Set(float64(anomalies))
}

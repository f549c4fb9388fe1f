package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP метрики
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "survey_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// WebSocket метрики
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "survey_websocket_connections_active",
			Help: "Number of active monitor WebSocket connections",
		},
	)

	WebSocketMessagesOut = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_websocket_messages_out_total",
			Help: "Total number of WebSocket frames sent",
		},
		[]string{"type"},
	)

	WebSocketErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "survey_websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
	)

	// Метрики entity store
	StorePersistDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "survey_store_persist_duration_seconds",
			Help:    "Duration of collection persistence operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"collection"},
	)

	StorePersistErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_store_persist_errors_total",
			Help: "Total number of collection persistence errors",
		},
		[]string{"collection"},
	)

	StoreEntities = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "survey_store_entities",
			Help: "Number of entities currently held per collection",
		},
		[]string{"collection"},
	)

	// MySQL архив миссий
	MySQLBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "survey_mysql_batch_size",
			Help:    "Size of mission archive batch inserts",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	MySQLBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "survey_mysql_batch_duration_seconds",
			Help:    "Duration of mission archive batch operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	MySQLBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_mysql_batches_total",
			Help: "Total number of mission archive batches processed",
		},
		[]string{"status"}, // success/error
	)

	MySQLWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "survey_mysql_write_errors_total",
			Help: "Total number of mission archive write errors",
		},
	)

	// Метрики парка
	DronesByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "survey_drones_by_status",
			Help: "Number of drones per fleet status",
		},
		[]string{"status"},
	)

	ActiveMissions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "survey_active_missions_total",
			Help: "Number of missions in starting/in-progress/paused status",
		},
	)

	WaypointsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_waypoints_generated_total",
			Help: "Total number of waypoints produced by the generator",
		},
		[]string{"pattern"},
	)

	// Общие метрики приложения
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "survey_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "build_time"},
	)
)

// SetAppInfo устанавливает информацию о версии приложения
func SetAppInfo(version, commit, buildTime string) {
	AppInfo.WithLabelValues(version, commit, buildTime).Set(1)
}

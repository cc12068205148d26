package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTP 请求指标
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Total number of requests",
		},
		[]string{"service", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method"},
	)

	// 消息队列指标
	KafkaMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_total",
			Help: "Total number of Kafka messages",
		},
		[]string{"service", "topic", "status"},
	)

	// 业务指标
	MaterialOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "material_operations_total",
			Help: "Total number of material catalog operations",
		},
		[]string{"operation", "status"},
	)

	MaterialBytesStored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "material_bytes_stored_total",
			Help: "Total bytes of uploaded material files accepted into storage",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		KafkaMessagesTotal,
		MaterialOperations,
		MaterialBytesStored,
	)
}

// RecordRequest 记录请求指标的助手函数
func RecordRequest(service, method, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(service, method, status).Inc()
	RequestDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordMaterialOperation 记录目录操作结果
func RecordMaterialOperation(operation, status string) {
	MaterialOperations.WithLabelValues(operation, status).Inc()
}

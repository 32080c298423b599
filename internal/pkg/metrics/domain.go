package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	advisoriesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcrop_advisories_generated_total",
			Help: "Advisory engine runs by trigger",
		},
		[]string{"trigger"},
	)

	pricePredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcrop_price_predictions_total",
			Help: "Price predictions served by commodity",
		},
		[]string{"commodity"},
	)

	weatherProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcrop_weather_provider_calls_total",
			Help: "Weather provider calls by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	alertsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcrop_alerts_raised_total",
			Help: "Alerts raised by type and severity",
		},
		[]string{"type", "severity"},
	)

	tasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcrop_tasks_processed_total",
			Help: "Background tasks processed by type and outcome",
		},
		[]string{"task", "outcome"},
	)
)

func AdvisoryGenerated(trigger string) {
	advisoriesGenerated.WithLabelValues(trigger).Inc()
}

func PricePredicted(commodity string) {
	pricePredictions.WithLabelValues(commodity).Inc()
}

// WeatherCall records a provider call; source is "api", "cache" or "synthetic"
func WeatherCall(source string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	weatherProviderCalls.WithLabelValues(source, outcome).Inc()
}

func AlertRaised(alertType, severity string) {
	alertsRaised.WithLabelValues(alertType, severity).Inc()
}

func TaskProcessed(task string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	tasksProcessed.WithLabelValues(task, outcome).Inc()
}

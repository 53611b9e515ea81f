package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver counts events by type, scene and label.
type PrometheusObserver struct {
	events *prometheus.CounterVec
}

// NewPrometheusObserver registers the stagehand collectors on reg.
// Registration failures (e.g. duplicate registration) are returned.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagehand_events_total",
			Help: "Total number of engine events by type, scene and label",
		},
		[]string{"type", "scene", "label"},
	)
	if err := reg.Register(events); err != nil {
		return nil, err
	}
	return &PrometheusObserver{events: events}, nil
}

func (o *PrometheusObserver) OnEvent(ctx context.Context, event Event) {
	o.events.WithLabelValues(string(event.Type), event.Scene, event.Label).Inc()
}

package statistics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/victorjacobs/go-izzi/izzi"
)

const controllerSubsystem = "controller"

// Source is what the collector reads from the controller.
type Source interface {
	Snapshot() map[izzi.SensorID]izzi.Reading
	Statistics() izzi.Statistics
}

type ControllerCollector struct {
	source Source

	reading       *prometheus.Desc
	statusFrames  *prometheus.Desc
	commandFrames *prometheus.Desc
	framesWritten *prometheus.Desc
	reconnects    *prometheus.Desc
	loopErrors    *prometheus.Desc
}

func NewControllerCollector(source Source) *ControllerCollector {
	return &ControllerCollector{
		source: source,
		reading: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "reading"),
			"Last published value of a sensor, omitted while unknown",
			[]string{"id"}, nil,
		),
		statusFrames: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "status_frames_total"),
			"Number of status frames received from the unit",
			nil, nil,
		),
		commandFrames: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "command_frames_total"),
			"Number of command frames seen on the bus",
			nil, nil,
		),
		framesWritten: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "frames_written_total"),
			"Number of command frames written to the unit",
			nil, nil,
		),
		reconnects: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "reconnects_total"),
			"Number of times the connection to the unit was dropped",
			nil, nil,
		),
		loopErrors: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "loop_errors_total"),
			"Number of frames that could not be handled",
			nil, nil,
		),
	}
}

func (collector *ControllerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.reading
	ch <- collector.statusFrames
	ch <- collector.commandFrames
	ch <- collector.framesWritten
	ch <- collector.reconnects
	ch <- collector.loopErrors
}

// Collect implements required collect function for all prometheus collectors
func (collector *ControllerCollector) Collect(ch chan<- prometheus.Metric) {
	for id, reading := range collector.source.Snapshot() {
		if !reading.Valid {
			continue
		}
		ch <- prometheus.MustNewConstMetric(collector.reading, prometheus.GaugeValue, float64(reading.Value), string(id))
	}

	stats := collector.source.Statistics()
	ch <- prometheus.MustNewConstMetric(collector.statusFrames, prometheus.CounterValue, float64(stats.StatusFrames))
	ch <- prometheus.MustNewConstMetric(collector.commandFrames, prometheus.CounterValue, float64(stats.CommandFrames))
	ch <- prometheus.MustNewConstMetric(collector.framesWritten, prometheus.CounterValue, float64(stats.FramesWritten))
	ch <- prometheus.MustNewConstMetric(collector.reconnects, prometheus.CounterValue, float64(stats.Reconnects))
	ch <- prometheus.MustNewConstMetric(collector.loopErrors, prometheus.CounterValue, float64(stats.LoopErrors))
}

// Package metrics emits the service's named metrics onto a statsd.Sink.
package metrics

import (
	"maps"
	"strconv"
	"time"

	obserrors "github.com/target/harvester-api/internal/observability/errors"
	"github.com/target/harvester-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// RunTransition captures a run status change attempt.
type RunTransition struct {
	From   string
	To     string
	Result string
	Err    error
}

// EmitRunTransition emits run.transition tagged from, to and result.
func EmitRunTransition(sink statsd.Sink, in RunTransition) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"from":   in.From,
		"to":     in.To,
		"result": in.Result,
	}
	if in.Err != nil && in.Result != ResultSuccess {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("run.transition", 1, tags)
}

// Lifecycle tag values for run.status_update.
const (
	LifecycleOnGraph  = "on_graph"
	LifecycleOffGraph = "off_graph"
)

// RunStatusUpdate captures a status change reported through a run update.
type RunStatusUpdate struct {
	From      string
	To        string
	Lifecycle string
}

// EmitRunStatusUpdate emits run.status_update tagged from, to and lifecycle.
func EmitRunStatusUpdate(sink statsd.Sink, in RunStatusUpdate) {
	if sink == nil {
		return
	}
	sink.Count("run.status_update", 1, map[string]string{
		"from":      in.From,
		"to":        in.To,
		"lifecycle": in.Lifecycle,
	})
}

// HTTPRequest captures one served request. Route is the mux pattern, not the raw path.
type HTTPRequest struct {
	Method   string
	Route    string
	Status   int
	Duration time.Duration
}

// EmitHTTPRequest emits http.request and http.request.duration.
func EmitHTTPRequest(sink statsd.Sink, in HTTPRequest) {
	if sink == nil {
		return
	}
	route := in.Route
	if route == "" {
		route = "unmatched"
	}
	tags := map[string]string{
		"method": in.Method,
		"route":  route,
		"status": strconv.Itoa(in.Status),
	}
	sink.Count("http.request", 1, tags)
	if in.Duration > 0 {
		sink.Timing("http.request.duration", in.Duration, maps.Clone(tags))
	}
}

package stage

import (
	"context"

	"telefetch/internal/pipeline"
)

// Handler describes the contract the workflow runner needs from each stage.
// Prepare validates inputs and cheap preconditions; Execute does the work and
// mutates the task as it goes.
type Handler interface {
	Prepare(context.Context, *pipeline.Task) error
	Execute(context.Context, *pipeline.Task) error
	HealthCheck(context.Context) Health
}

// Health summarizes the readiness of a workflow stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

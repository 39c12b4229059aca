package stage

import (
	"context"
	"errors"
)

// Health is the readiness of one pipeline stage as shown by status.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy reports name as ready.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy reports name as not ready with a short detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Detail: detail}
}

// FromError is Healthy when err is nil and Unhealthy with the error text
// otherwise. An expired probe deadline is reported as a timeout.
func FromError(name string, err error) Health {
	switch {
	case err == nil:
		return Healthy(name)
	case errors.Is(err, context.DeadlineExceeded):
		return Unhealthy(name, "probe timed out")
	default:
		return Unhealthy(name, err.Error())
	}
}

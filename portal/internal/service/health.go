package service

import (
	"context"
)

const (
	StatusOK              = "OK"
	StatusError           = "ERROR"
	StatusConnectionError = "CONNECTION_ERROR"
)

// Pinger is satisfied by *sql.DB and by the repository.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

type HealthStatus struct {
	Database   string `json:"database"`
	Controller string `json:"unifi_controller"`
	Overall    string `json:"overall"`
}

func (h HealthStatus) OK() bool {
	return h.Overall == StatusOK
}

// CheckHealth pings the database and probes the controller with a fresh client.
func CheckHealth(ctx context.Context, db Pinger, factory ControllerFactory) HealthStatus {
	status := HealthStatus{Database: StatusOK, Controller: StatusOK}

	if db == nil || db.PingContext(ctx) != nil {
		status.Database = StatusError
	}

	switch {
	case factory == nil:
		status.Controller = StatusError
	case !factory().TestConnection(ctx):
		status.Controller = StatusConnectionError
	}

	status.Overall = StatusOK
	if status.Database != StatusOK || status.Controller != StatusOK {
		status.Overall = StatusError
	}
	return status
}

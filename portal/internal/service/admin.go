package service

import (
	"context"

	"guest-portal/portal/internal/controller"
)

// StatusController is the read-only side of the controller client used by admin views.
type StatusController interface {
	TestConnection(ctx context.Context) bool
	Login(ctx context.Context) bool
	GetClients(ctx context.Context) []controller.ClientRecord
	Health(ctx context.Context) controller.HealthSnapshot
}

type StatusControllerFactory func() StatusController

func StatusFromClientFactory(f controller.Factory) StatusControllerFactory {
	return func() StatusController { return f() }
}

// ControllerClients lists stations through a fresh logged-in session. An unreachable or
// rejecting controller yields an empty list.
func ControllerClients(ctx context.Context, factory StatusControllerFactory) []controller.ClientRecord {
	ctrl := factory()
	if !ctrl.TestConnection(ctx) || !ctrl.Login(ctx) {
		return []controller.ClientRecord{}
	}
	return ctrl.GetClients(ctx)
}

// ControllerHealth returns the site health through a fresh logged-in session.
func ControllerHealth(ctx context.Context, factory StatusControllerFactory) controller.HealthSnapshot {
	ctrl := factory()
	if !ctrl.TestConnection(ctx) || !ctrl.Login(ctx) {
		return controller.HealthSnapshot{}
	}
	return ctrl.Health(ctx)
}

package repository

import (
	"context"
	"errors"

	"guest-portal/portal/internal/model"
)

var ErrNotFound = errors.New("not found")

// AdminPageData backs the admin guest overview.
type AdminPageData struct {
	Guests           []model.Guest
	TotalGuests      int64
	AuthorizedGuests int64
}

type Repository interface {
	Ping(ctx context.Context) error

	CreateGuest(ctx context.Context, g *model.Guest) error
	GetGuest(ctx context.Context, id string) (model.Guest, error)
	ListGuests(ctx context.Context, limit int) ([]model.Guest, error)
	ListGuestsByMAC(ctx context.Context, mac string, limit int) ([]model.Guest, error)
	CountGuests(ctx context.Context) (int64, error)
	CountAuthorizedGuests(ctx context.Context) (int64, error)

	FetchAdminPageData(ctx context.Context, limit int) (AdminPageData, error)
}

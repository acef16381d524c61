package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"guest-portal/portal/internal/model"
)

func (r *GormRepository) CreateGuest(ctx context.Context, g *model.Guest) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *GormRepository) GetGuest(ctx context.Context, id string) (model.Guest, error) {
	var g model.Guest
	err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Guest{}, ErrNotFound
	}
	if err != nil {
		return model.Guest{}, err
	}
	return g, nil
}

// ListGuests returns the newest guests first. limit <= 0 means no limit.
func (r *GormRepository) ListGuests(ctx context.Context, limit int) ([]model.Guest, error) {
	var out []model.Guest
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListGuestsByMAC returns the records of one device, newest first. limit <= 0 means no
// limit.
func (r *GormRepository) ListGuestsByMAC(ctx context.Context, mac string, limit int) ([]model.Guest, error) {
	var out []model.Guest
	q := r.db.WithContext(ctx).Where("mac = ?", mac).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepository) CountGuests(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Guest{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *GormRepository) CountAuthorizedGuests(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Guest{}).Where("authorized = ?", true).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *GormRepository) FetchAdminPageData(ctx context.Context, limit int) (AdminPageData, error) {
	var data AdminPageData
	var err error

	if data.Guests, err = r.ListGuests(ctx, limit); err != nil {
		return AdminPageData{}, err
	}
	if data.TotalGuests, err = r.CountGuests(ctx); err != nil {
		return AdminPageData{}, err
	}
	if data.AuthorizedGuests, err = r.CountAuthorizedGuests(ctx); err != nil {
		return AdminPageData{}, err
	}
	return data, nil
}

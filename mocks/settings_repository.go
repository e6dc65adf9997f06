package mocks

import (
	"context"
	"sync"

	"github.com/Hrei2/ticket-system/entity"
)

type SettingsRepository struct {
	mock sync.Mutex

	settings *entity.EventSettings

	Err error
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

func (r *SettingsRepository) Get(ctx context.Context) (entity.EventSettings, error) {
	r.mock.Lock()
	defer r.mock.Unlock()

	if r.Err != nil {
		return entity.EventSettings{}, r.Err
	}
	if r.settings == nil {
		return entity.EventSettings{}, entity.ErrSettingsMissing
	}
	return *r.settings, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, settings entity.EventSettings) (entity.EventSettings, error) {
	r.mock.Lock()
	defer r.mock.Unlock()

	if r.Err != nil {
		return entity.EventSettings{}, r.Err
	}

	var version int64 = 1
	if r.settings != nil {
		version = r.settings.Version + 1
	}
	settings.Version = version
	r.settings = &settings

	return settings, nil
}

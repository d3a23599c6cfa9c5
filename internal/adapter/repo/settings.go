package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/bloom-wire-service/internal/domain"
)

type SettingsRepo struct {
	Pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{Pool: pool}
}

func (r *SettingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	var s domain.Settings
	err := r.Pool.QueryRow(ctx, `
SELECT shop_id, api_key, auth_token, token_refreshed_at, last_sync_time,
  polling_enabled, polling_interval_seconds
FROM wire_settings WHERE id = 1`).Scan(
		&s.ShopID, &s.APIKey, &s.AuthToken, &s.TokenRefreshedAt, &s.LastSyncTime,
		&s.PollingEnabled, &s.PollingIntervalSeconds)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Ensure заводит строку настроек при первом старте, существующую не трогает.
func (r *SettingsRepo) Ensure(ctx context.Context, s domain.Settings) error {
	_, err := r.Pool.Exec(ctx, `
INSERT INTO wire_settings(id, shop_id, api_key, auth_token, polling_enabled, polling_interval_seconds)
VALUES(1, $1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING`,
		s.ShopID, s.APIKey, s.AuthToken, s.PollingEnabled, s.PollingIntervalSeconds)
	return err
}

func (r *SettingsRepo) SaveToken(ctx context.Context, token string, refreshedAt time.Time) error {
	_, err := r.Pool.Exec(ctx,
		`UPDATE wire_settings SET auth_token = $1, token_refreshed_at = $2 WHERE id = 1`,
		token, refreshedAt)
	return err
}

func (r *SettingsRepo) SaveLastSync(ctx context.Context, at time.Time) error {
	_, err := r.Pool.Exec(ctx,
		`UPDATE wire_settings SET last_sync_time = $1 WHERE id = 1`, at)
	return err
}

var _ domain.SettingsRepository = (*SettingsRepo)(nil)

// SettingsTokenRefresher перечитывает токен из хранилища: внешний процесс
// получения токена (вне этого сервиса) записывает его туда напрямую.
type SettingsTokenRefresher struct {
	Settings domain.SettingsRepository
}

func (r SettingsTokenRefresher) Refresh(ctx context.Context) (string, error) {
	s, err := r.Settings.Get(ctx)
	if err != nil {
		return "", err
	}
	if s.AuthToken == "" {
		return "", domain.ErrNotFound
	}
	return s.AuthToken, nil
}

var _ domain.TokenRefresher = SettingsTokenRefresher{}

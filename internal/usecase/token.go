package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/bloom-wire-service/internal/domain"
)

// TokenStore — текущий bearer-токен под мьютексом. Цикл опроса читает его
// перед каждым внешним вызовом, а не кэширует на весь цикл: обновление может
// случиться параллельно.
type TokenStore struct {
	mu    sync.RWMutex
	token string
}

func (s *TokenStore) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *TokenStore) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

var _ domain.TokenSource = (*TokenStore)(nil)

// RefreshSchedule — независимое фоновое обновление токена. Само получение
// токена непрозрачно и скрыто за domain.TokenRefresher.
type RefreshSchedule struct {
	Refresher domain.TokenRefresher
	Settings  domain.SettingsRepository
	Tokens    *TokenStore
	// Interval между обновлениями; по умолчанию 6 часов.
	Interval time.Duration
	// MaxAge — возраст токена, после которого стартовое обновление
	// выполняется немедленно; по умолчанию 5 часов.
	MaxAge time.Duration
	Now    func() time.Time

	mu   sync.Mutex
	done chan struct{}
}

func (r *RefreshSchedule) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *RefreshSchedule) interval() time.Duration {
	if r.Interval > 0 {
		return r.Interval
	}
	return 6 * time.Hour
}

func (r *RefreshSchedule) maxAge() time.Duration {
	if r.MaxAge > 0 {
		return r.MaxAge
	}
	return 5 * time.Hour
}

// Start проверяет свежесть сохранённого токена и заводит таймер обновления.
func (r *RefreshSchedule) Start(ctx context.Context) error {
	settings, err := r.Settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	stale := settings.AuthToken == "" ||
		settings.TokenRefreshedAt == nil ||
		r.now().Sub(*settings.TokenRefreshedAt) > r.maxAge()
	if stale {
		log.Printf("wire token: token missing or stale, refreshing now")
		if err := r.RefreshNow(ctx); err != nil {
			log.Printf("wire token: initial refresh: %v", err)
		}
	} else {
		r.Tokens.Set(settings.AuthToken)
		log.Printf("wire token: valid token found, skipping initial refresh")
	}

	r.mu.Lock()
	if r.done != nil {
		r.mu.Unlock()
		return nil
	}
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go func() {
		ticker := time.NewTicker(r.interval())
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.RefreshNow(context.Background()); err != nil {
					log.Printf("wire token: scheduled refresh: %v", err)
				}
			}
		}
	}()
	log.Printf("wire token: auto-refresh scheduled every %s", r.interval())
	return nil
}

// Stop останавливает таймер обновления.
func (r *RefreshSchedule) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done == nil {
		return
	}
	close(r.done)
	r.done = nil
	log.Printf("wire token: auto-refresh stopped")
}

// RefreshNow запрашивает свежий токен и сохраняет его.
func (r *RefreshSchedule) RefreshNow(ctx context.Context) error {
	token, err := r.Refresher.Refresh(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return domain.ErrValidation
	}
	return r.apply(ctx, token)
}

// SetManual — ручная установка токена оператором.
func (r *RefreshSchedule) SetManual(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrValidation
	}
	if err := r.apply(ctx, token); err != nil {
		return err
	}
	log.Printf("wire token: token updated manually")
	return nil
}

func (r *RefreshSchedule) apply(ctx context.Context, token string) error {
	r.Tokens.Set(token)
	if err := r.Settings.SaveToken(ctx, token, r.now()); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

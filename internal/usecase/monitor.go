package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/bloom-wire-service/internal/domain"
)

// Окно принудительной полной синхронизации.
const (
	fullSyncBackDays    = 7
	fullSyncForwardDays = 30
	deltaSyncBackDays   = 30
)

// PollOptions — разовые переопределения цикла опроса.
type PollOptions struct {
	// ForceFull игнорирует водяной знак и запрашивает широкое окно.
	ForceFull bool
	// BypassHours пропускает проверку рабочего времени (ручной запуск).
	BypassHours bool
}

// PollStats — итог одного цикла, только для логов и ответов API.
type PollStats struct {
	Fetched   int  `json:"fetched"`
	New       int  `json:"new"`
	Updated   int  `json:"updated"`
	Skipped   bool `json:"skipped"`
	FullSync  bool `json:"fullSync"`
	DeltaSync bool `json:"deltaSync"`
}

// MonitorStatus — состояние планировщика для админского API.
type MonitorStatus struct {
	Polling  bool       `json:"polling"`
	TokenSet bool       `json:"tokenSet"`
	LastSync *time.Time `json:"lastSync,omitempty"`
}

// Monitor — планировщик опроса. Явный экземпляр вместо модульных глобалей:
// состояние видно, жизненный цикл управляем, в тестах можно поднять
// несколько независимых планировщиков.
type Monitor struct {
	Syncer   *Syncer
	Settings domain.SettingsRepository
	Hours    domain.BusinessHours
	Network  domain.OrderNetwork
	Tokens   domain.TokenSource
	// Interval — резерв, если настройки не задают интервал.
	Interval time.Duration
	Now      func() time.Time

	mu       sync.Mutex
	inFlight bool
	polling  bool
	done     chan struct{}
}

func (m *Monitor) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Start запускает таймер опроса. Первый цикл выполняется сразу, если магазин
// открыт и прошлая синхронизация устарела.
func (m *Monitor) Start(ctx context.Context) error {
	settings, err := m.Settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !settings.PollingEnabled {
		log.Printf("wire monitor: polling disabled in settings")
		return nil
	}

	interval := m.Interval
	if settings.PollingIntervalSeconds > 0 {
		interval = time.Duration(settings.PollingIntervalSeconds) * time.Second
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	m.mu.Lock()
	if m.polling {
		m.mu.Unlock()
		return nil
	}
	m.polling = true
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	log.Printf("wire monitor: started, polling every %s (business hours only)", interval)

	open := m.Hours == nil || m.Hours.IsOpenNow()
	stale := settings.LastSyncTime == nil || m.now().Sub(*settings.LastSyncTime) > interval
	if open && stale {
		log.Printf("wire monitor: running initial sync")
		if _, err := m.Poll(context.Background(), PollOptions{}); err != nil {
			log.Printf("wire monitor: initial sync: %v", err)
		}
	} else if !open {
		log.Printf("wire monitor: skipping initial sync, outside business hours")
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				// Фоновый контекст: остановка планировщика гасит будущие
				// срабатывания, но не прерывает идущий цикл.
				if _, err := m.Poll(context.Background(), PollOptions{}); err != nil {
					log.Printf("wire monitor: poll: %v", err)
				}
			}
		}
	}()
	return nil
}

// Stop гасит будущие срабатывания таймера; идущий цикл дорабатывает.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.polling {
		return
	}
	m.polling = false
	close(m.done)
	log.Printf("wire monitor: stopped")
}

// Status — текущее состояние для админского API.
func (m *Monitor) Status(ctx context.Context) MonitorStatus {
	m.mu.Lock()
	polling := m.polling
	m.mu.Unlock()

	st := MonitorStatus{Polling: polling}
	if m.Tokens != nil {
		st.TokenSet = m.Tokens.Current() != ""
	}
	if settings, err := m.Settings.Get(ctx); err == nil {
		st.LastSync = settings.LastSyncTime
	}
	return st
}

// Poll выполняет один цикл синхронизации. Повторный вход при живом цикле
// не допускается; политика повторов — следующий цикл, без backoff.
func (m *Monitor) Poll(ctx context.Context, opts PollOptions) (PollStats, error) {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		log.Printf("wire monitor: previous cycle still running, skipping")
		return PollStats{Skipped: true}, nil
	}
	m.inFlight = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.inFlight = false
		m.mu.Unlock()
	}()

	if !opts.BypassHours && !opts.ForceFull && m.Hours != nil && !m.Hours.IsOpenNow() {
		log.Printf("wire monitor: polling paused, outside business hours")
		return PollStats{Skipped: true}, nil
	}

	settings, err := m.Settings.Get(ctx)
	if err != nil {
		return PollStats{}, fmt.Errorf("load settings: %w", err)
	}

	now := m.now()
	q := domain.ListQuery{}
	if opts.ForceFull {
		q.StartDate = now.AddDate(0, 0, -fullSyncBackDays)
		q.EndDate = now.AddDate(0, 0, fullSyncForwardDays)
	} else {
		q.StartDate = now.AddDate(0, 0, -deltaSyncBackDays)
		if settings.LastSyncTime != nil {
			q.Delta = true
			q.LastSync = *settings.LastSyncTime
		}
	}

	if opts.ForceFull {
		log.Printf("wire monitor: fetching orders (FULL SYNC, manual)")
	} else {
		log.Printf("wire monitor: fetching orders (delta=%v)", q.Delta)
	}

	records, err := m.Network.ListOrders(ctx, q)
	if err != nil {
		// Водяной знак не двигается: окно заказов нельзя молча пропустить.
		if errors.Is(err, domain.ErrUnauthorized) {
			log.Printf("wire monitor: token expired, refresh needed")
			return PollStats{}, err
		}
		log.Printf("wire monitor: list orders: %v", err)
		return PollStats{}, err
	}

	stats := PollStats{Fetched: len(records), FullSync: opts.ForceFull, DeltaSync: q.Delta}
	for _, rec := range records {
		res, err := m.Syncer.ProcessListRecord(ctx, rec)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				// Токен протух посреди цикла: дальше смысла нет, остаток
				// догоним после обновления токена.
				log.Printf("wire monitor: auth failure mid-cycle, aborting: %v", err)
				break
			}
			log.Printf("wire monitor: process %s: %v", rec.MessageNumber, err)
			continue
		}
		switch res {
		case domain.ResultNew:
			stats.New++
		case domain.ResultUpdated:
			stats.Updated++
		}
	}

	if stats.New > 0 || stats.Updated > 0 {
		log.Printf("wire monitor: processed %d new, %d updated of %d fetched", stats.New, stats.Updated, stats.Fetched)
	}

	// Списочный вызов удался, значит окно покрыто: водяной знак вперёд
	// даже при частичных отказах по отдельным заказам.
	if err := m.Settings.SaveLastSync(ctx, m.now()); err != nil {
		log.Printf("wire monitor: save watermark: %v", err)
	}
	return stats, nil
}

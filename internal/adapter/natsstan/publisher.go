package natsstan

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	stan "github.com/nats-io/stan.go"

	"github.com/example/bloom-wire-service/internal/domain"
)

// Publisher публикует уведомления о новых заказах в NATS Streaming.
// Соединение ленивое: недоступный брокер не мешает старту сервиса,
// уведомления и так best-effort.
type Publisher struct {
	ClusterID string
	ClientID  string
	URL       string
	Subject   string

	mu sync.Mutex
	sc stan.Conn
}

func (p *Publisher) conn() (stan.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sc != nil {
		return p.sc, nil
	}
	clientID := p.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("wire-svc-%d", time.Now().UnixNano())
	}
	sc, err := stan.Connect(p.ClusterID, clientID, stan.NatsURL(p.URL),
		stan.SetConnectionLostHandler(func(_ stan.Conn, _ error) {
			p.mu.Lock()
			p.sc = nil
			p.mu.Unlock()
		}))
	if err != nil {
		return nil, err
	}
	p.sc = sc
	return sc, nil
}

func (p *Publisher) NotifyNewOrder(_ context.Context, n domain.OrderNotification) error {
	sc, err := p.conn()
	if err != nil {
		return fmt.Errorf("stan connect: %w", err)
	}
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if err := sc.Publish(p.Subject, b); err != nil {
		return fmt.Errorf("stan publish: %w", err)
	}
	return nil
}

// Close закрывает соединение при останове сервиса.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sc != nil {
		p.sc.Close()
		p.sc = nil
	}
}

var _ domain.Notifier = (*Publisher)(nil)

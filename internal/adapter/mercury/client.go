package mercury

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/bloom-wire-service/internal/domain"
)

// maxResponseSize — потолок ответа сети (10MB).
const maxResponseSize = 10 * 1024 * 1024

// Client — HTTP-клиент списочного и детального API сети Mercury. Токен
// читается из TokenSource при каждом вызове: фоновое обновление может
// подменить его посреди цикла опроса.
type Client struct {
	BaseURL   string
	ShopID    string
	APIKey    string
	Tokens    domain.TokenSource
	Timezone  string
	ShopGroup string
	HTTP      *http.Client
}

func NewClient(baseURL, shopID, apiKey string, tokens domain.TokenSource) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		ShopID:  shopID,
		APIKey:  apiKey,
		Tokens:  tokens,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// ListOrders запрашивает списочные записи. Формат строки запроса
// воспроизводится точно: статусы через запятую без экранирования, пустой
// endDate, lastSyncTime в ISO8601 с усечением до секунд и завершающим Z.
func (c *Client) ListOrders(ctx context.Context, q domain.ListQuery) ([]domain.ListRecord, error) {
	var lastSync string
	if q.Delta && !q.LastSync.IsZero() {
		lastSync = q.LastSync.UTC().Format("2006-01-02T15:04:05") + "Z"
	}
	endDate := ""
	if !q.EndDate.IsZero() {
		endDate = q.EndDate.UTC().Format("2006-01-02")
	}

	rawQuery := fmt.Sprintf(
		"startDate=%s&status=%s&endDate=%s&deltaOrders=%t&lastSyncTime=%s&listingFilter=DELIVERY_DATE&listingPage=orders",
		q.StartDate.UTC().Format("2006-01-02"),
		strings.Join(domain.ExternalStatuses, ","),
		endDate,
		q.Delta,
		url.QueryEscape(lastSync),
	)
	u := fmt.Sprintf("%s/e/p/mercury/%s/orders?%s", c.BaseURL, c.ShopID, rawQuery)

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var records []domain.ListRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}
	return records, nil
}

// FetchDetails выбирает детальный пейлоад по orderItemId. Корректный пустой
// ответ — (nil, nil); сетевые и auth-отказы — ошибка.
func (c *Client) FetchDetails(ctx context.Context, orderItemID string) (*domain.OrderDetail, error) {
	if orderItemID == "" {
		return nil, nil
	}
	u := fmt.Sprintf("%s/e/p/mdf-order/api/%s/orders/%s", c.BaseURL, c.ShopID, url.PathEscape(orderItemID))

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		OrderItems []json.RawMessage `json:"orderItems"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode detail response: %w", err)
	}
	if len(envelope.OrderItems) == 0 {
		return nil, nil
	}
	detail, err := domain.ParseOrderDetail(envelope.OrderItems[0])
	if err != nil {
		return nil, fmt.Errorf("parse detail payload: %w", err)
	}
	return detail, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mercury request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("mercury request: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read mercury response: %w", err)
	}
	return body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	tz := c.Timezone
	if tz == "" {
		tz = "America/Vancouver"
	}
	req.Header.Set("Authorization", "apiKey "+c.APIKey)
	req.Header.Set("ep-authorization", c.Tokens.Current())
	req.Header.Set("Origin", "https://mercuryhq.com")
	req.Header.Set("Referer", "https://mercuryhq.com/")
	req.Header.Set("X-Timezone", tz)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("client-context", `{"siteId":"mercuryos"}`)
	req.Header.Set("request-context", fmt.Sprintf(
		`{"authGroupName":"ADMIN_ROLE","memberCodes":["%s"],"shopGroups":["%s"],"roles":["ADMIN"]}`,
		c.ShopID, c.ShopGroup))
}

var _ domain.OrderNetwork = (*Client)(nil)

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/bloom-wire-service/internal/domain"
)

// In-memory fakes for the domain ports, shared by the engine tests.

type fakeWireRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.WireOrder
}

func newFakeWireRepo() *fakeWireRepo {
	return &fakeWireRepo{orders: make(map[string]*domain.WireOrder)}
}

func (r *fakeWireRepo) Get(_ context.Context, externalID string) (*domain.WireOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.orders[externalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWireRepo) Create(_ context.Context, w *domain.WireOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[w.ExternalID]; ok {
		return fmt.Errorf("duplicate mirror %s", w.ExternalID)
	}
	cp := *w
	r.orders[w.ExternalID] = &cp
	return nil
}

func (r *fakeWireRepo) UpdateStatus(_ context.Context, externalID string, status domain.SyncStatus, rawStatus string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.orders[externalID]
	if !ok {
		return domain.ErrNotFound
	}
	w.SyncStatus = status
	w.RawStatus = rawStatus
	w.LastCheckedAt = at
	return nil
}

func (r *fakeWireRepo) Touch(_ context.Context, externalID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.orders[externalID]
	if !ok {
		return domain.ErrNotFound
	}
	w.LastCheckedAt = at
	return nil
}

func (r *fakeWireRepo) Link(_ context.Context, externalID, orderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.orders[externalID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if w.LinkedOrderID != "" {
		return false, nil
	}
	w.LinkedOrderID = orderID
	return true, nil
}

func (r *fakeWireRepo) SaveDetails(_ context.Context, w *domain.WireOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[w.ExternalID]
	if !ok {
		return domain.ErrNotFound
	}
	linked := stored.LinkedOrderID
	cp := *w
	cp.LinkedOrderID = linked
	r.orders[w.ExternalID] = &cp
	return nil
}

func (r *fakeWireRepo) List(_ context.Context, status domain.SyncStatus) ([]domain.WireOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.WireOrder
	for _, w := range r.orders {
		if status == "" || w.SyncStatus == status {
			out = append(out, *w)
		}
	}
	return out, nil
}

type fakeShopOrderRepo struct {
	mu       sync.Mutex
	orders   map[string]*domain.ShopOrder
	items    map[string][]domain.OrderItem
	failNext bool
}

func newFakeShopOrderRepo() *fakeShopOrderRepo {
	return &fakeShopOrderRepo{
		orders: make(map[string]*domain.ShopOrder),
		items:  make(map[string][]domain.OrderItem),
	}
}

func (r *fakeShopOrderRepo) Create(_ context.Context, o *domain.ShopOrder, items []domain.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext {
		r.failNext = false
		return errors.New("storage unavailable")
	}
	cp := *o
	r.orders[o.ID] = &cp
	r.items[o.ID] = append([]domain.OrderItem(nil), items...)
	return nil
}

func (r *fakeShopOrderRepo) Get(_ context.Context, id string) (*domain.ShopOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeShopOrderRepo) UpdateStatus(_ context.Context, id string, status domain.ShopOrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	return nil
}

func (r *fakeShopOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers []*domain.Customer
	addresses *fakeAddressRepo
}

func (r *fakeCustomerRepo) FindByPhone(_ context.Context, phone string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	digits := domain.NormalizePhone(phone)
	for _, c := range r.customers {
		if c.Phone == phone {
			cp := *c
			return &cp, nil
		}
		if digits != "" && len(digits) >= 7 {
			stored := domain.NormalizePhone(c.Phone)
			if stored != "" && domain.PhoneSuffix(stored, 10) == domain.PhoneSuffix(digits, 10) {
				cp := *c
				return &cp, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeCustomerRepo) FindByName(_ context.Context, firstName, lastName string) ([]domain.CustomerMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CustomerMatch
	for _, c := range r.customers {
		if strings.EqualFold(c.FirstName, firstName) && strings.EqualFold(c.LastName, lastName) {
			out = append(out, domain.CustomerMatch{Customer: *c, Cities: r.addresses.citiesOf(c.ID)})
		}
	}
	return out, nil
}

func (r *fakeCustomerRepo) Create(_ context.Context, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.customers = append(r.customers, &cp)
	return nil
}

func (r *fakeCustomerRepo) UpdateContact(_ context.Context, id, phone, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.customers {
		if c.ID == id {
			if c.Phone == "" && phone != "" {
				c.Phone = phone
			}
			if c.Email == "" && email != "" {
				c.Email = email
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeCustomerRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.customers)
}

type fakeAddressRepo struct {
	mu        sync.Mutex
	addresses []domain.Address
}

func (r *fakeAddressRepo) Create(_ context.Context, a *domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addresses = append(r.addresses, *a)
	return nil
}

func (r *fakeAddressRepo) citiesOf(customerID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, a := range r.addresses {
		if a.CustomerID == customerID && a.City != "" {
			out = append(out, a.City)
		}
	}
	return out
}

func (r *fakeAddressRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.addresses)
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings domain.Settings
	saves    int
}

func (r *fakeSettingsRepo) Get(_ context.Context) (*domain.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := r.settings
	return &cp, nil
}

func (r *fakeSettingsRepo) SaveToken(_ context.Context, token string, refreshedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.AuthToken = token
	r.settings.TokenRefreshedAt = &refreshedAt
	return nil
}

func (r *fakeSettingsRepo) SaveLastSync(_ context.Context, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.LastSyncTime = &at
	r.saves++
	return nil
}

func (r *fakeSettingsRepo) lastSync() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings.LastSyncTime
}

type fakeNetwork struct {
	mu          sync.Mutex
	records     []domain.ListRecord
	details     map[string]*domain.OrderDetail
	listErr     error
	detailErr   error
	listCalls   int
	detailCalls int
	lastQuery   domain.ListQuery
	listGate    chan struct{}
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{details: make(map[string]*domain.OrderDetail)}
}

func (n *fakeNetwork) ListOrders(_ context.Context, q domain.ListQuery) ([]domain.ListRecord, error) {
	n.mu.Lock()
	n.listCalls++
	n.lastQuery = q
	gate := n.listGate
	err := n.listErr
	records := append([]domain.ListRecord(nil), n.records...)
	n.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (n *fakeNetwork) FetchDetails(_ context.Context, orderItemID string) (*domain.OrderDetail, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.detailCalls++
	if n.detailErr != nil {
		return nil, n.detailErr
	}
	return n.details[orderItemID], nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []domain.OrderNotification
	fail  bool
	calls int
}

func (f *fakeNotifier) NotifyNewOrder(_ context.Context, n domain.OrderNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return errors.New("broker down")
	}
	f.sent = append(f.sent, n)
	return nil
}

type fakeLedger struct {
	mu      sync.Mutex
	entries []domain.LedgerEntry
	fail    bool
}

func (f *fakeLedger) CreateLedgerEntry(_ context.Context, orderID string, amountCents int64, metadata map[string]string) (*domain.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("ledger unavailable")
	}
	e := domain.LedgerEntry{ID: fmt.Sprintf("tx-%d", len(f.entries)+1), OrderID: orderID, AmountCents: amountCents, Metadata: metadata}
	f.entries = append(f.entries, e)
	return &e, nil
}

type fakeHours struct{ open bool }

func (f fakeHours) IsOpenNow() bool { return f.open }

type fakeRefresher struct {
	token string
	err   error
}

func (f fakeRefresher) Refresh(context.Context) (string, error) { return f.token, f.err }

// engine binds the fakes into a ready-to-use sync pipeline.
type engine struct {
	wire      *fakeWireRepo
	shop      *fakeShopOrderRepo
	customers *fakeCustomerRepo
	addresses *fakeAddressRepo
	network   *fakeNetwork
	notifier  *fakeNotifier
	ledger    *fakeLedger
	syncer    *Syncer
}

func newEngine() *engine {
	addresses := &fakeAddressRepo{}
	e := &engine{
		wire:      newFakeWireRepo(),
		shop:      newFakeShopOrderRepo(),
		customers: &fakeCustomerRepo{addresses: addresses},
		addresses: addresses,
		network:   newFakeNetwork(),
		notifier:  &fakeNotifier{},
		ledger:    &fakeLedger{},
	}
	m := &Materializer{
		Customers: e.customers,
		Addresses: e.addresses,
		Orders:    e.shop,
		Wire:      e.wire,
		Ledger:    e.ledger,
	}
	e.syncer = &Syncer{
		Wire:         e.wire,
		Network:      e.network,
		Notifier:     e.notifier,
		Materializer: m,
		Reconciler:   Reconciler{Orders: e.shop},
	}
	return e
}

// detailJSON builds a raw Mercury detail payload for tests.
func detailJSON(first, last, phone, city, totalDollars string) string {
	return fmt.Sprintf(`{
		"orderItemId": "oi-1",
		"sendingMember": {"memberCode": "90-1234"},
		"recipientInfo": {
			"firstName": %q, "lastName": %q, "phone": %q,
			"addressLine1": "12 Rose Lane", "city": %q, "state": "BC",
			"zip": "V6B 1A1", "country": "CA"
		},
		"deliveryInfo": {"deliveryDate": "2024-05-10", "cardMessage": "Happy Birthday!", "occasion": "BIRTHDAY"},
		"price": [{"name": "orderTotal", "value": %s}],
		"lineItems": [{"productName": "Spring Bouquet", "productCode": "SB-100", "quantity": 1}]
	}`, first, last, phone, city, totalDollars)
}

func mustDetail(raw string) *domain.OrderDetail {
	d, err := domain.ParseOrderDetail([]byte(raw))
	if err != nil {
		panic(err)
	}
	return d
}

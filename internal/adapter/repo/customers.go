package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/bloom-wire-service/internal/domain"
)

type CustomerRepo struct {
	Pool *pgxpool.Pool
}

func NewCustomerRepo(pool *pgxpool.Pool) *CustomerRepo {
	return &CustomerRepo{Pool: pool}
}

// FindByPhone: точное совпадение (в том числе псевдо-телефоны флористов)
// либо совпадение последних десяти цифр нормализованного номера.
func (r *CustomerRepo) FindByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	digits := domain.NormalizePhone(phone)
	var c domain.Customer
	err := r.Pool.QueryRow(ctx, `
SELECT id, first_name, last_name, phone, email, notes, created_at
FROM customers
WHERE phone = $1
   OR ($2 <> '' AND length($2) >= 7 AND right(regexp_replace(phone, '\D', '', 'g'), 10) = right($2, 10))
ORDER BY created_at
LIMIT 1`, phone, digits).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Email, &c.Notes, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByName — кандидаты по имени без учёта регистра вместе с городами
// их адресов; выбор по городу делает слой материализации.
func (r *CustomerRepo) FindByName(ctx context.Context, firstName, lastName string) ([]domain.CustomerMatch, error) {
	rows, err := r.Pool.Query(ctx, `
SELECT c.id, c.first_name, c.last_name, c.phone, c.email, c.notes, c.created_at,
  COALESCE(array_agg(a.city) FILTER (WHERE a.city IS NOT NULL AND a.city <> ''), '{}')
FROM customers c
LEFT JOIN addresses a ON a.customer_id = c.id
WHERE lower(c.first_name) = lower($1) AND lower(c.last_name) = lower($2)
GROUP BY c.id, c.first_name, c.last_name, c.phone, c.email, c.notes, c.created_at
ORDER BY c.created_at`, firstName, lastName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CustomerMatch
	for rows.Next() {
		var m domain.CustomerMatch
		if err := rows.Scan(
			&m.Customer.ID, &m.Customer.FirstName, &m.Customer.LastName, &m.Customer.Phone,
			&m.Customer.Email, &m.Customer.Notes, &m.Customer.CreatedAt, &m.Cities); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *CustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	_, err := r.Pool.Exec(ctx, `
INSERT INTO customers(id, first_name, last_name, phone, email, notes, created_at)
VALUES($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.FirstName, c.LastName, c.Phone, c.Email, c.Notes, c.CreatedAt)
	return err
}

// UpdateContact дозаполняет только пустые контактные поля.
func (r *CustomerRepo) UpdateContact(ctx context.Context, id, phone, email string) error {
	_, err := r.Pool.Exec(ctx, `
UPDATE customers SET
  phone = CASE WHEN phone = '' AND $2 <> '' THEN $2 ELSE phone END,
  email = CASE WHEN email = '' AND $3 <> '' THEN $3 ELSE email END
WHERE id = $1`, id, phone, email)
	return err
}

var _ domain.CustomerRepository = (*CustomerRepo)(nil)

// AddressRepo — адреса доставки.
type AddressRepo struct {
	Pool *pgxpool.Pool
}

func NewAddressRepo(pool *pgxpool.Pool) *AddressRepo {
	return &AddressRepo{Pool: pool}
}

func (r *AddressRepo) Create(ctx context.Context, a *domain.Address) error {
	_, err := r.Pool.Exec(ctx, `
INSERT INTO addresses(id, customer_id, first_name, last_name, address1, address2, city, province, postal_code, country, phone)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.CustomerID, a.FirstName, a.LastName, a.Address1, a.Address2, a.City, a.Province, a.PostalCode, a.Country, a.Phone)
	return err
}

var _ domain.AddressRepository = (*AddressRepo)(nil)

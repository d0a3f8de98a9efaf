package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/warelink/mpbridge/internal/model"
	"github.com/warelink/mpbridge/pkg/carrier"
)

// Postgres is the database-backed Store.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a connection pool against the given DSN.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) FindPicking(ctx context.Context, origin, name string) (*model.Picking, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, name, origin, partner_id, order_id, sale_reference,
		       warehouse_name, warehouse_partner_id, carrier_id,
		       carrier_tracking_ref, carrier_price, scheduled_date
		FROM pickings WHERE origin = $1 AND name = $2 LIMIT 1`, origin, name)
	return scanPicking(row)
}

func (p *Postgres) GetPicking(ctx context.Context, id string) (*model.Picking, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, name, origin, partner_id, order_id, sale_reference,
		       warehouse_name, warehouse_partner_id, carrier_id,
		       carrier_tracking_ref, carrier_price, scheduled_date
		FROM pickings WHERE id = $1`, id)
	return scanPicking(row)
}

func scanPicking(row *sql.Row) (*model.Picking, error) {
	var pk model.Picking
	var carrierID, trackingRef, scheduled sql.NullString
	err := row.Scan(&pk.ID, &pk.Name, &pk.Origin, &pk.PartnerID, &pk.OrderID,
		&pk.SaleReference, &pk.WarehouseName, &pk.WarehousePartnerID,
		&carrierID, &trackingRef, &pk.CarrierPrice, &scheduled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	pk.CarrierID = carrierID.String
	pk.CarrierTrackingRef = trackingRef.String
	pk.ScheduledDate = scheduled.String
	return &pk, nil
}

func (p *Postgres) UpdatePicking(ctx context.Context, id string, patch model.PickingPatch) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	idx := 1
	add := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}
	if patch.CarrierID != nil {
		add("carrier_id", nullIfEmpty(*patch.CarrierID))
	}
	if patch.CarrierTrackingRef != nil {
		add("carrier_tracking_ref", *patch.CarrierTrackingRef)
	}
	if patch.CarrierPrice != nil {
		add("carrier_price", *patch.CarrierPrice)
	}
	if patch.ScheduledDate != nil {
		add("scheduled_date", *patch.ScheduledDate)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE pickings SET %s WHERE id = $%d", strings.Join(sets, ", "), idx)
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) AppendPickingNote(ctx context.Context, id, note string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO picking_notes (picking_id, body, created_at) VALUES ($1, $2, now())`,
		id, note)
	return err
}

// WithPickingLock holds a per-picking advisory lock for the duration of fn,
// serializing concurrent tracking updates for the same shipment.
func (p *Postgres) WithPickingLock(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock(hashtext($1))`, id); err != nil {
		return err
	}
	defer conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock(hashtext($1))`, id)

	return fn(ctx)
}

func (p *Postgres) GetCarrierMethod(ctx context.Context, id string) (*model.CarrierMethod, error) {
	return p.queryCarrierMethod(ctx, `WHERE id = $1`, id)
}

func (p *Postgres) FindCarrierMethodByPackageType(ctx context.Context, packageTypeID, deliveryType string) (*model.CarrierMethod, error) {
	return p.queryCarrierMethod(ctx, `WHERE default_package_type_id = $1 AND delivery_type = $2`, packageTypeID, deliveryType)
}

func (p *Postgres) FindCarrierMethodByNameOrType(ctx context.Context, code string) (*model.CarrierMethod, error) {
	return p.queryCarrierMethod(ctx, `WHERE name = $1 OR delivery_type = $1`, code)
}

func (p *Postgres) queryCarrierMethod(ctx context.Context, where string, args ...any) (*model.CarrierMethod, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, name, delivery_type, default_package_type_id,
		       username, password, label_format, weight_unit, dimension_unit,
		       default_package_code, insurance_percent, custom_data,
		       allow_partial_recipient
		FROM carrier_methods `+where+` LIMIT 1`, args...)

	var c model.CarrierMethod
	var pkgTypeID, customData sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.DeliveryType, &pkgTypeID,
		&c.Config.Username, &c.Config.Password, &c.Config.LabelFormat,
		&c.Config.WeightUnit, &c.Config.DimensionUnit,
		&c.Config.DefaultPackageCode, &c.Config.InsurancePercent,
		&customData, &c.Config.AllowPartialRecipient)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.DefaultPackageTypeID = pkgTypeID.String
	c.Config.CustomData = customData.String
	return &c, nil
}

func (p *Postgres) GetPackageType(ctx context.Context, id string) (*model.PackageType, error) {
	return p.queryPackageType(ctx, `WHERE id = $1`, id)
}

func (p *Postgres) FindPackageType(ctx context.Context, shipperCode, carrierType string) (*model.PackageType, error) {
	return p.queryPackageType(ctx, `WHERE shipper_code = $1 AND carrier_type = $2`, shipperCode, carrierType)
}

func (p *Postgres) queryPackageType(ctx context.Context, where string, args ...any) (*model.PackageType, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, name, shipper_code, carrier_type, height, length, width
		FROM package_types `+where+` LIMIT 1`, args...)

	var t model.PackageType
	err := row.Scan(&t.ID, &t.Name, &t.ShipperCode, &t.CarrierType, &t.Height, &t.Length, &t.Width)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (p *Postgres) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, name, client_order_ref, currency, partner_shipping_id,
		       warehouse_partner_id, lines
		FROM orders WHERE id = $1`, id)

	var o model.Order
	var clientRef sql.NullString
	var lines []byte
	err := row.Scan(&o.ID, &o.Name, &clientRef, &o.Currency, &o.PartnerShippingID,
		&o.WarehousePartnerID, &lines)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.ClientOrderRef = clientRef.String
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &o.Lines); err != nil {
			return nil, fmt.Errorf("decoding order lines: %w", err)
		}
	}
	return &o, nil
}

func (p *Postgres) GetPartner(ctx context.Context, id string) (*model.Partner, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, company, name, street, street2, city, region_name,
		       region_code, zip, country_code, country_name, phone, email
		FROM partners WHERE id = $1`, id)

	var pr model.Partner
	var party carrier.Party
	err := row.Scan(&pr.ID, &party.Company, &party.Name, &party.Street,
		&party.Street2, &party.City, &party.RegionName, &party.RegionCode,
		&party.Zip, &party.CountryCode, &party.CountryName, &party.Phone,
		&party.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	pr.Party = party
	return &pr, nil
}

func (p *Postgres) NextInvoiceNumber(ctx context.Context) (string, error) {
	var n int64
	err := p.db.QueryRowContext(ctx,
		`UPDATE sequences SET next = next + 1 WHERE code = 'return_invoice' RETURNING next - 1`).Scan(&n)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RINV/%05d", n), nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Ensure Postgres implements Store
var _ Store = (*Postgres)(nil)

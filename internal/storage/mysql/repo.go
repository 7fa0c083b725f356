package mysql

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullToPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ----- bookings / payments -----

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) error {
	customer, err := json.Marshal(b.Customer)
	if err != nil {
		return fmt.Errorf("marshal customer: %w", err)
	}
	_, err = r.db.ExecContext(ctx, insertBookingSQL,
		b.ID,
		string(b.Mode),
		valStr(b.SupplierBookingID),
		valStr(b.SupplierState),
		b.HotelID,
		b.CheckIn,
		b.CheckOut,
		b.RoomCount,
		b.Adults,
		b.Children,
		b.TotalPrice,
		b.Currency,
		string(b.Status),
		string(b.PaymentStatus),
		string(customer),
		valStr(b.TokenHash),
	)
	return err
}

func (r *Repo) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	row := r.db.QueryRowContext(ctx, getBookingSQL, id)

	var b domain.Booking
	var mode, status, paymentStatus string
	var supplierID, supplierState, tokenHash sql.NullString
	var customerJSON []byte
	if err := row.Scan(
		&b.ID, &mode, &supplierID, &supplierState,
		&b.HotelID, &b.CheckIn, &b.CheckOut,
		&b.RoomCount, &b.Adults, &b.Children,
		&b.TotalPrice, &b.Currency, &status, &paymentStatus,
		&customerJSON, &tokenHash, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Booking{}, domain.ErrNotFound
		}
		return domain.Booking{}, err
	}
	b.Mode = domain.BookingMode(mode)
	b.Status = domain.BookingStatus(status)
	b.PaymentStatus = domain.PaymentStatus(paymentStatus)
	b.SupplierBookingID = nullToPtr(supplierID)
	b.SupplierState = nullToPtr(supplierState)
	b.TokenHash = nullToPtr(tokenHash)
	if len(customerJSON) > 0 {
		_ = json.Unmarshal(customerJSON, &b.Customer)
	}
	return b, nil
}

func (r *Repo) UpdateBookingState(ctx context.Context, id string, status domain.BookingStatus, supplierState *string) error {
	res, err := r.db.ExecContext(ctx, updateBookingStateSQL, string(status), valStr(supplierState), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) CreatePayment(ctx context.Context, p domain.Payment) error {
	_, err := r.db.ExecContext(ctx, insertPaymentSQL,
		p.ID, p.BookingID, p.OrderID, p.OrderNumber,
		p.Amount, p.Currency, string(p.Status),
		valStr(p.ApprovalCode), valStr(p.MaskedCard),
	)
	return err
}

func (r *Repo) GetPaymentByOrderID(ctx context.Context, orderID string) (domain.Payment, error) {
	row := r.db.QueryRowContext(ctx, getPaymentByOrderSQL, orderID)

	var p domain.Payment
	var status string
	var approval, masked sql.NullString
	if err := row.Scan(
		&p.ID, &p.BookingID, &p.OrderID, &p.OrderNumber,
		&p.Amount, &p.Currency, &status,
		&approval, &masked, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Payment{}, domain.ErrNotFound
		}
		return domain.Payment{}, err
	}
	p.Status = domain.PaymentStatus(status)
	p.ApprovalCode = nullToPtr(approval)
	p.MaskedCard = nullToPtr(masked)
	return p, nil
}

// ApplyCallback updates the payment and its booking in one transaction. If
// either statement fails or matches no row, the whole reconciliation rolls
// back and the caller reports failure.
func (r *Repo) ApplyCallback(ctx context.Context, orderID string, ps domain.PaymentStatus, bs domain.BookingStatus, approvalCode, maskedCard *string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, callbackUpdatePaymentSQL,
		string(ps), valStr(approvalCode), valStr(maskedCard), orderID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, callbackUpdateBookingSQL,
		string(bs), string(ps), orderID); err != nil {
		return err
	}

	return tx.Commit()
}

// ----- reference data -----

func (r *Repo) ReplaceCities(ctx context.Context, cs []domain.City) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteCitiesSQL); err != nil {
		return err
	}
	for _, c := range cs {
		if _, err := tx.ExecContext(ctx, insertCitySQL, c.ID, c.Name, valStr(c.Region)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repo) ListCities(ctx context.Context) ([]domain.City, error) {
	rows, err := r.db.QueryContext(ctx, listCitiesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.City
	for rows.Next() {
		var c domain.City
		var region sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &region); err != nil {
			return nil, err
		}
		c.Region = nullToPtr(region)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) UpsertHotels(ctx context.Context, hs []domain.Hotel) error {
	for _, h := range hs {
		if _, err := r.db.ExecContext(ctx, upsertHotelSQL,
			h.ID, h.Name, h.CityID, valInt(h.Star), valStr(h.CategoryTitle),
			valStr(h.Address), valF64(h.Lat), valF64(h.Lon),
			valStr(h.Image), valStr(h.Note),
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) ListHotels(ctx context.Context, cityID int64) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, listHotelsSQL, cityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		var h domain.Hotel
		var star sql.NullInt64
		var category, address, image, note sql.NullString
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&h.ID, &h.Name, &h.CityID, &star, &category, &address, &lat, &lon, &image, &note); err != nil {
			return nil, err
		}
		if star.Valid {
			s := int(star.Int64)
			h.Star = &s
		}
		if lat.Valid {
			v := lat.Float64
			h.Lat = &v
		}
		if lon.Valid {
			v := lon.Float64
			h.Lon = &v
		}
		h.CategoryTitle = nullToPtr(category)
		h.Address = nullToPtr(address)
		h.Image = nullToPtr(image)
		h.Note = nullToPtr(note)
		out = append(out, h)
	}
	return out, rows.Err()
}

// ----- rate limiting -----

// Allow counts one hit against key's fixed window and reports whether the
// caller is still under limit. Keys are hashed so raw client identifiers
// never land in the table.
func (r *Repo) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	sum := sha256.Sum256([]byte(key))
	keyHash := hex.EncodeToString(sum[:])
	cutoff := time.Now().UTC().Add(-window)

	if _, err := r.db.ExecContext(ctx, upsertRateLimitSQL, keyHash, cutoff, cutoff); err != nil {
		return false, err
	}
	var cnt int
	if err := r.db.QueryRowContext(ctx, getRateLimitSQL, keyHash).Scan(&cnt); err != nil {
		return false, err
	}
	return cnt <= limit, nil
}

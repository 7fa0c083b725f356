package mysql

const insertBookingSQL = `
INSERT INTO bookings
  (id, mode, supplier_booking_id, supplier_state, hotel_id, check_in, check_out,
   room_count, adults, children, total_price, currency, status, payment_status,
   customer, token_hash)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getBookingSQL = `
SELECT
  id, mode, supplier_booking_id, supplier_state, hotel_id, check_in, check_out,
  room_count, adults, children, total_price, currency, status, payment_status,
  customer, token_hash, created_at, updated_at
FROM bookings
WHERE id = ?
`

const updateBookingStateSQL = `
UPDATE bookings
SET status = ?,
    supplier_state = COALESCE(?, supplier_state),
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const insertPaymentSQL = `
INSERT INTO payments
  (id, booking_id, order_id, order_number, amount, currency, status,
   approval_code, masked_card)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getPaymentByOrderSQL = `
SELECT
  id, booking_id, order_id, order_number, amount, currency, status,
  approval_code, masked_card, created_at, updated_at
FROM payments
WHERE order_id = ?
`

// Callback reconciliation: both statements run inside one transaction so the
// payment and its booking never diverge.
const callbackUpdatePaymentSQL = `
UPDATE payments
SET status = ?,
    approval_code = COALESCE(?, approval_code),
    masked_card = COALESCE(?, masked_card),
    updated_at = CURRENT_TIMESTAMP
WHERE order_id = ?
`

const callbackUpdateBookingSQL = `
UPDATE bookings b
JOIN payments p ON p.booking_id = b.id
SET b.status = ?,
    b.payment_status = ?,
    b.updated_at = CURRENT_TIMESTAMP
WHERE p.order_id = ?
`

// Reference data is replaced wholesale on sync; hotels are upserted.
const deleteCitiesSQL = `DELETE FROM cities`

const insertCitySQL = `
INSERT INTO cities (id, name, region) VALUES (?, ?, ?)
`

const listCitiesSQL = `SELECT id, name, region FROM cities ORDER BY name`

const upsertHotelSQL = `
INSERT INTO hotels
  (id, name, city_id, star, category, address, lat, lon, image, note)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name       = VALUES(name),
  city_id    = VALUES(city_id),
  star       = VALUES(star),
  category   = VALUES(category),
  address    = VALUES(address),
  lat        = VALUES(lat),
  lon        = VALUES(lon),
  image      = VALUES(image),
  note       = VALUES(note),
  updated_at = CURRENT_TIMESTAMP
`

const listHotelsSQL = `
SELECT id, name, city_id, star, category, address, lat, lon, image, note
FROM hotels
WHERE city_id = ?
ORDER BY id
`

// Fixed-window rate limiting: one row per key, reset when the window lapses.
// Concurrent racers may both pass near the boundary; that is tolerated.
const upsertRateLimitSQL = `
INSERT INTO rate_limits (key_hash, window_start, cnt)
VALUES (?, CURRENT_TIMESTAMP, 1)
ON DUPLICATE KEY UPDATE
  cnt          = IF(window_start <= ?, 1, cnt + 1),
  window_start = IF(window_start <= ?, CURRENT_TIMESTAMP, window_start)
`

const getRateLimitSQL = `SELECT cnt FROM rate_limits WHERE key_hash = ?`

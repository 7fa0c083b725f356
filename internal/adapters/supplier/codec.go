// Package supplier implements the hotel-inventory supplier protocol: request
// builders and response decoders for both wire dialects (legacy XML, current
// JSON) behind one typed client, plus the transport with its retry policy.
package supplier

import (
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
)

// Supplier service names. BookingCreation is the only non-idempotent one.
const (
	SvcListCity        = "ListCity"
	SvcListHotel       = "ListHotel"
	SvcHotelSearch     = "HotelSearch"
	SvcBookingCreation = "BookingCreation"
	SvcCreditCheck     = "CreditCheck"

	SvcListCountry   = "ListCountry"
	SvcListCategorie = "ListCategorie"
	SvcListBoarding  = "ListBoarding"
	SvcListTag       = "ListTag"
	SvcListLanguage  = "ListLanguage"
	SvcListCurrency  = "ListCurrency"
)

// ReferenceServices are the read-only list endpoints usable with
// Client.ListReference.
var ReferenceServices = []string{
	SvcListCountry, SvcListCategorie, SvcListBoarding,
	SvcListTag, SvcListLanguage, SvcListCurrency,
}

// Credential is injected into every outbound body. It is never logged and the
// supplier never echoes it back.
type Credential struct {
	Login    string
	Password string
}

// DefaultCurrency is assumed when a search omits one.
const DefaultCurrency = "TND"

// codec builds outbound bodies and decodes inbound payloads for one dialect.
// Decoders receive sanitized bytes (BOM and NUL bytes already stripped).
type codec interface {
	contentType() string

	encodeList(service string, cred Credential) ([]byte, error)
	encodeListHotels(cred Credential, cityID int64) ([]byte, error)
	encodeSearch(cred Credential, q domain.SearchQuery) ([]byte, error)
	encodeBooking(cred Credential, token string, c domain.Customer, sels []domain.RoomSelection, preBooking bool) ([]byte, error)

	decodeCities(raw []byte) ([]domain.City, error)
	decodeHotels(raw []byte, requestedCity int64) ([]domain.Hotel, error)
	decodeSearch(raw []byte) (domain.SearchResult, error)
	decodeBooking(raw []byte) (domain.BookingResult, error)
	decodeCredit(raw []byte) (domain.CreditBalance, error)
	decodeReference(service string, raw []byte) ([]domain.ReferenceItem, error)
}

// deriveHotelFlags computes the per-hotel availability flags: a hotel is
// available, with instant confirmation, iff at least one room is not
// on-request.
func deriveHotelFlags(h *domain.HotelSearchResult) {
	instant := false
	for _, r := range h.Rooms {
		if !r.OnRequest {
			instant = true
			break
		}
	}
	h.Available = instant
	h.HasInstantConfirmation = instant
}

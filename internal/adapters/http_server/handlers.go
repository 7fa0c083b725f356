package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/adapters/clicktopay"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/adapters/supplier"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/app"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
)

type Handlers struct {
	Search   *app.SearchService
	Bookings *app.BookingService
	Ref      *app.RefService

	// SearchLimiter gates POST /v1/search; nil disables limiting.
	SearchLimiter func(http.Handler) http.Handler
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/cities", h.listCities)
	s.mux.Get("/v1/hotels", h.listHotels)
	s.mux.Get("/v1/reference/{service}", h.listReference)
	if h.SearchLimiter != nil {
		s.mux.With(h.SearchLimiter).Post("/v1/search", h.search)
	} else {
		s.mux.Post("/v1/search", h.search)
	}
	s.mux.Post("/v1/bookings", h.createBooking)
	s.mux.Get("/v1/bookings/{id}", h.getBooking)
	s.mux.Post("/v1/bookings/{id}/checkout", h.checkout)
	s.mux.Post("/v1/payments/callback", h.paymentCallback)
	s.mux.Get("/v1/payments/callback", h.paymentCallback) // gateways redirect with GET too
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Supplier and
// gateway failures surface as upstream errors, never as our own 5xx.
func writeDomainError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", ve.Error())
		return
	}
	var ae *domain.AuthenticationError
	if errors.As(err, &ae) {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", ae.Error())
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "no such resource")
		return
	}
	var te *domain.TransportError
	if errors.As(err, &te) {
		writeProblem(w, http.StatusGatewayTimeout, "Upstream Unreachable", "the supplier did not answer in time")
		return
	}
	var be *domain.BusinessError
	if errors.As(err, &be) {
		writeProblem(w, http.StatusBadGateway, "Upstream Rejected", be.Error())
		return
	}
	var pe *domain.ProtocolError
	if errors.As(err, &pe) {
		writeProblem(w, http.StatusBadGateway, "Upstream Malformed", "the supplier answer could not be decoded")
		return
	}
	log.Error().Err(err).Msg("unhandled error on http surface")
	writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON body failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeCachedJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func (h *Handlers) listCities(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Ref.Cities(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeCachedJSON(w, r, cs)
}

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	cityID, err := strconv.ParseInt(r.URL.Query().Get("city"), 10, 64)
	if err != nil || cityID <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "city must be a positive integer")
		return
	}
	hs, err := h.Ref.HotelsByCity(r.Context(), cityID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeCachedJSON(w, r, hs)
}

// referenceServices maps URL path segments onto supplier list services.
var referenceServices = map[string]string{
	"countries":  supplier.SvcListCountry,
	"categories": supplier.SvcListCategorie,
	"boardings":  supplier.SvcListBoarding,
	"tags":       supplier.SvcListTag,
	"languages":  supplier.SvcListLanguage,
	"currencies": supplier.SvcListCurrency,
}

func (h *Handlers) listReference(w http.ResponseWriter, r *http.Request) {
	svc, ok := referenceServices[chi.URLParam(r, "service")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "unknown reference list")
		return
	}
	items, err := h.Ref.Reference(r.Context(), svc)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeCachedJSON(w, r, items)
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	var q domain.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "body must be a JSON search query")
		return
	}
	hotels, err := h.Search.Search(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hotels": hotels})
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var in app.CreateBookingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "body must be a JSON booking request")
		return
	}
	b, err := h.Bookings.Create(r.Context(), in)
	if err != nil {
		var sbe *domain.SupplierBookingError
		if errors.As(err, &sbe) {
			writeProblem(w, http.StatusBadGateway, "Supplier Booking Failed", sbe.Error())
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.Bookings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handlers) checkout(w http.ResponseWriter, r *http.Request) {
	res, err := h.Bookings.Checkout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if res.Blocked {
		// A policy block is a valid outcome, not an error status.
		writeJSON(w, http.StatusOK, map[string]any{
			"blocked": true,
			"reason":  res.Reason,
			"deficit": res.Deficit,
			"booking": res.Booking,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"blocked":    false,
		"booking":    res.Booking,
		"payment":    res.Payment,
		"paymentUrl": res.PaymentURL,
	})
}

// paymentCallback receives the gateway's asynchronous notification. The
// gateway POSTs a JSON body; form posts and redirect query strings arrive
// too. Every field except the signature feeds the HMAC recomputation.
func (h *Handlers) paymentCallback(w http.ResponseWriter, r *http.Request) {
	fields, err := callbackFields(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	cb := parseCallback(fields)
	if cb.OrderID == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "orderId is required")
		return
	}
	if err := h.Bookings.HandleCallback(r.Context(), cb); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// callbackFields flattens the notification into name/value pairs whatever
// the carrier. JSON numbers keep their wire spelling (UseNumber) so the
// recomputed signature matches what the gateway signed.
func callbackFields(r *http.Request) (map[string]string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			return nil, errors.New("callback body is not valid JSON")
		}
		out := make(map[string]string, len(m))
		for k, v := range m {
			switch t := v.(type) {
			case string:
				out[k] = t
			case json.Number:
				out[k] = t.String()
			case bool:
				out[k] = strconv.FormatBool(t)
			}
		}
		return out, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, errors.New("callback must be JSON or form encoded")
	}
	out := make(map[string]string, len(r.Form))
	for k, vs := range r.Form {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out, nil
}

func parseCallback(fields map[string]string) domain.PaymentCallback {
	cb := domain.PaymentCallback{
		OrderID:     fields["orderId"],
		OrderNumber: fields["orderNumber"],
		Currency:    fields["currency"],
		Signature:   fields["signature"],
		Fields:      map[string]string{},
	}
	cb.OrderStatus, _ = strconv.Atoi(fields["orderStatus"])
	cb.ActionCode, _ = strconv.Atoi(fields["actionCode"])
	cb.Amount, _ = strconv.ParseInt(fields["amount"], 10, 64)
	if v := fields["approvalCode"]; v != "" {
		cb.ApprovalCode = &v
	}
	if v := fields["pan"]; v != "" {
		// Only the masked form may ever reach storage.
		masked := clicktopay.MaskPan(v)
		cb.MaskedCard = &masked
	}
	for k, v := range fields {
		if k == "signature" {
			continue
		}
		cb.Fields[k] = v
	}
	return cb
}

package supplier

import (
	"encoding/json"
	"fmt"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/xmlmini"
)

// jsonCodec speaks the current supplier dialect:
// {"Credential":{"Login","Password"}, "SearchDetails":{"City", ...}, ...}.
type jsonCodec struct{}

func (jsonCodec) contentType() string { return "application/json" }

type jsonCredential struct {
	Login    string `json:"Login"`
	Password string `json:"Password"`
}

func jcred(c Credential) jsonCredential {
	return jsonCredential{Login: c.Login, Password: c.Password}
}

func (jsonCodec) encodeList(service string, cred Credential) ([]byte, error) {
	return json.Marshal(map[string]any{"Credential": jcred(cred)})
}

func (jsonCodec) encodeListHotels(cred Credential, cityID int64) ([]byte, error) {
	return json.Marshal(map[string]any{
		"Credential": jcred(cred),
		"City":       cityID,
	})
}

func (jsonCodec) encodeSearch(cred Credential, q domain.SearchQuery) ([]byte, error) {
	rooms := make([]map[string]any, 0, len(q.Rooms))
	for _, r := range q.Rooms {
		room := map[string]any{"Adult": r.Adults}
		if len(r.ChildrenAges) > 0 {
			room["ChildAges"] = r.ChildrenAges
		}
		rooms = append(rooms, room)
	}
	cur := q.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	return json.Marshal(map[string]any{
		"Credential": jcred(cred),
		"SearchDetails": map[string]any{
			"City":     q.CityID,
			"CheckIn":  q.CheckIn,
			"CheckOut": q.CheckOut,
			"Currency": cur,
			"Rooms":    rooms,
		},
	})
}

func (jsonCodec) encodeBooking(cred Credential, token string, c domain.Customer, sels []domain.RoomSelection, preBooking bool) ([]byte, error) {
	rooms := make([]map[string]any, 0, len(sels))
	for _, s := range sels {
		room := map[string]any{
			"HotelId": s.HotelID,
			"RoomId":  s.RoomID,
			"Adult":   s.Adults,
			"Price":   s.Price,
		}
		if s.BoardCode != nil {
			room["BoardCode"] = *s.BoardCode
		}
		if len(s.ChildrenAges) > 0 {
			room["ChildAges"] = s.ChildrenAges
		}
		rooms = append(rooms, room)
	}
	return json.Marshal(map[string]any{
		"Credential":  jcred(cred),
		"SearchToken": token,
		"PreBooking":  preBooking,
		"Customer": map[string]any{
			"FirstName": c.FirstName,
			"LastName":  c.LastName,
			"Email":     c.Email,
			"Phone":     c.Phone,
			"Country":   c.Country,
		},
		"Rooms": rooms,
	})
}

// decodeObject sanitizes and unmarshals one top-level JSON object, surfacing
// a supplier-reported error code as a BusinessError.
func decodeObject(service string, raw []byte) (map[string]any, error) {
	clean := xmlmini.Sanitize(raw)
	var m map[string]any
	if err := json.Unmarshal(clean, &m); err != nil {
		return nil, &domain.ProtocolError{
			Service: service,
			Reason:  "response is not valid JSON",
			Preview: domain.Preview(clean),
		}
	}
	if code, ok := lookupF64(m, "ErrorCode"); ok && code != 0 {
		return nil, &domain.BusinessError{
			Service: service,
			Code:    fmt.Sprintf("%d", int(code)),
			Message: lookupStr(m, "ErrorMessage", "Message"),
		}
	}
	return m, nil
}

func (jsonCodec) decodeCities(raw []byte) ([]domain.City, error) {
	m, err := decodeObject(SvcListCity, raw)
	if err != nil {
		return nil, err
	}
	items, _ := lookupAny(m, "Cities").([]any)
	out := make([]domain.City, 0, len(items))
	for _, it := range items {
		cm, ok := it.(map[string]any)
		if !ok {
			continue
		}
		id, _ := lookupI64(cm, "Id", "id")
		out = append(out, domain.City{
			ID:     id,
			Name:   lookupStr(cm, "Name", "Title"),
			Region: ptrStr(lookupStr(cm, "Region")),
		})
	}
	if len(out) == 0 {
		// An empty list is indistinguishable from a malformed response; the
		// supplier always has cities.
		return nil, &domain.ProtocolError{
			Service: SvcListCity,
			Reason:  "no City entries in response",
			Preview: domain.Preview(raw),
		}
	}
	return out, nil
}

func (jsonCodec) decodeHotels(raw []byte, requestedCity int64) ([]domain.Hotel, error) {
	m, err := decodeObject(SvcListHotel, raw)
	if err != nil {
		return nil, err
	}
	items, _ := lookupAny(m, "Hotels").([]any)
	out := make([]domain.Hotel, 0, len(items))
	for _, it := range items {
		hm, ok := it.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, decodeHotelRecord(hm, requestedCity))
	}
	return out, nil
}

func decodeHotelRecord(hm map[string]any, requestedCity int64) domain.Hotel {
	id, _ := lookupI64(hm, "Id", "HotelId", "id")
	h := domain.Hotel{
		ID:            id,
		Name:          lookupStr(hm, "Name", "Title"),
		CategoryTitle: ptrStr(lookupStr(hm, "Category", "CategoryTitle")),
		Address:       ptrStr(lookupStr(hm, "Address")),
		Image:         ptrStr(lookupStr(hm, "Image", "Photo")),
		Note:          ptrStr(lookupStr(hm, "Note", "Description")),
	}
	if star, ok := lookupI64(hm, "Star", "Stars"); ok && star > 0 {
		h.Star = ptrInt(int(star))
	}
	if lat, ok := lookupF64(hm, "Lat", "Latitude"); ok {
		h.Lat = ptrF64(lat)
	}
	if lon, ok := lookupF64(hm, "Lng", "Lon", "Longitude"); ok {
		h.Lon = ptrF64(lon)
	}
	// Supplier sometimes omits or zeroes the city; fall back to the one the
	// caller asked for.
	if city, ok := lookupI64(hm, "City", "CityId"); ok && city > 0 {
		h.CityID = city
	} else {
		h.CityID = requestedCity
	}
	return h
}

func (jsonCodec) decodeSearch(raw []byte) (domain.SearchResult, error) {
	m, err := decodeObject(SvcHotelSearch, raw)
	if err != nil {
		return domain.SearchResult{}, err
	}
	res := domain.SearchResult{Token: lookupStr(m, "SearchToken", "Token")}

	hotels, _ := lookupAny(m, "Hotels").([]any)
	for _, it := range hotels {
		hm, ok := it.(map[string]any)
		if !ok {
			continue
		}
		id, _ := lookupI64(hm, "Id", "HotelId")
		hr := domain.HotelSearchResult{
			HotelID: id,
			Name:    lookupStr(hm, "Name", "Title"),
			Extra:   extraFields(hm, "Id", "HotelId", "Name", "Title", "Prices"),
		}
		// Flatten hotel -> price -> boarding -> pax -> room, carrying board
		// and occupancy down onto each offer.
		prices, _ := lookupAny(hm, "Prices").([]any)
		for _, p := range prices {
			pm, ok := p.(map[string]any)
			if !ok {
				continue
			}
			boardings, _ := lookupAny(pm, "Boardings").([]any)
			for _, b := range boardings {
				bm, ok := b.(map[string]any)
				if !ok {
					continue
				}
				boardCode := ptrStr(lookupStr(bm, "Code", "BoardCode"))
				boardName := ptrStr(lookupStr(bm, "Name", "BoardName"))
				paxes, _ := lookupAny(bm, "Paxes").([]any)
				for _, px := range paxes {
					pxm, ok := px.(map[string]any)
					if !ok {
						continue
					}
					var adults *int
					if a, ok := lookupI64(pxm, "Adult", "Adults"); ok {
						adults = ptrInt(int(a))
					}
					ages := lookupInts(pxm, "ChildAges", "ChildrenAges")
					rooms, _ := lookupAny(pxm, "Rooms").([]any)
					for _, rr := range rooms {
						rm, ok := rr.(map[string]any)
						if !ok {
							continue
						}
						offer := decodeRoomOffer(rm)
						offer.BoardCode = boardCode
						offer.BoardName = boardName
						offer.Adults = adults
						offer.ChildrenAges = ages
						hr.Rooms = append(hr.Rooms, offer)
					}
				}
			}
		}
		deriveHotelFlags(&hr)
		res.Hotels = append(res.Hotels, hr)
	}
	return res, nil
}

func decodeRoomOffer(rm map[string]any) domain.RoomOffer {
	id, _ := lookupI64(rm, "Id", "RoomId")
	offer := domain.RoomOffer{
		RoomID:             id,
		RoomName:           ptrStr(lookupStr(rm, "Name", "RoomName")),
		CancellationPolicy: ptrStr(lookupStr(rm, "CancellationPolicy", "CancelPolicy")),
		Extra: extraFields(rm,
			"Id", "RoomId", "Name", "RoomName", "Price", "BasePrice",
			"PriceWithMarkup", "StopReservation", "CancellationPolicy", "CancelPolicy"),
	}
	if price, ok := lookupF64(rm, "Price"); ok {
		offer.Price = price
	}
	if base, ok := lookupF64(rm, "BasePrice"); ok {
		offer.BasePrice = ptrF64(base)
	}
	if markup, ok := lookupF64(rm, "PriceWithMarkup"); ok {
		offer.PriceWithMarkup = ptrF64(markup)
	}
	// StopReservation is the supplier's name for "cannot confirm instantly".
	if stop, ok := lookupBool(rm, "StopReservation"); ok {
		offer.OnRequest = stop
	}
	return offer
}

func (jsonCodec) decodeBooking(raw []byte) (domain.BookingResult, error) {
	m, err := decodeObject(SvcBookingCreation, raw)
	if err != nil {
		return domain.BookingResult{}, err
	}
	br := domain.BookingResult{
		BookingID: ptrStr(lookupStr(m, "BookingId", "Id")),
		State:     ptrStr(lookupStr(m, "State", "Status")),
		Extra:     extraFields(m, "BookingId", "Id", "State", "Status", "TotalPrice"),
	}
	if tp, ok := lookupF64(m, "TotalPrice"); ok {
		br.TotalPrice = ptrF64(tp)
	}
	return br, nil
}

func (jsonCodec) decodeCredit(raw []byte) (domain.CreditBalance, error) {
	m, err := decodeObject(SvcCreditCheck, raw)
	if err != nil {
		return domain.CreditBalance{}, err
	}
	remaining, ok := lookupF64(m, "Remaining", "Balance", "Deposit")
	if !ok {
		return domain.CreditBalance{}, &domain.ProtocolError{
			Service: SvcCreditCheck,
			Reason:  "no balance field in response",
			Preview: domain.Preview(raw),
		}
	}
	return domain.CreditBalance{
		Remaining: remaining,
		Currency:  lookupStr(m, "Currency"),
	}, nil
}

func (jsonCodec) decodeReference(service string, raw []byte) ([]domain.ReferenceItem, error) {
	m, err := decodeObject(service, raw)
	if err != nil {
		return nil, err
	}
	items, _ := lookupAny(m, "Items").([]any)
	out := make([]domain.ReferenceItem, 0, len(items))
	for _, it := range items {
		im, ok := it.(map[string]any)
		if !ok {
			continue
		}
		id, _ := lookupI64(im, "Id", "id")
		out = append(out, domain.ReferenceItem{
			ID:    id,
			Title: lookupStr(im, "Title", "Name"),
			Code:  ptrStr(lookupStr(im, "Code")),
			Extra: extraFields(im, "Id", "id", "Title", "Name", "Code"),
		})
	}
	return out, nil
}

package supplier

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/xmlmini"
)

// xmlCodec speaks the legacy supplier dialect:
// <Root><Credential><Login/><Password/></Credential>...</Root>.
// It is kept as a config option for partners still on the old endpoint; the
// JSON dialect is canonical.
type xmlCodec struct{}

func (xmlCodec) contentType() string { return "application/xml; charset=utf-8" }

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

type xmlBuilder struct{ b bytes.Buffer }

func newXMLBuilder(root string) *xmlBuilder {
	x := &xmlBuilder{}
	x.b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	x.b.WriteString("<" + root + ">")
	return x
}

func (x *xmlBuilder) open(tag string)  { x.b.WriteString("<" + tag + ">") }
func (x *xmlBuilder) close(tag string) { x.b.WriteString("</" + tag + ">") }

func (x *xmlBuilder) leaf(tag, val string) {
	x.b.WriteString("<" + tag + ">" + xmlEscaper.Replace(val) + "</" + tag + ">")
}

func (x *xmlBuilder) done(root string) []byte {
	x.b.WriteString("</" + root + ">")
	return x.b.Bytes()
}

func (x *xmlBuilder) credential(c Credential) {
	x.open("Credential")
	x.leaf("Login", c.Login)
	x.leaf("Password", c.Password)
	x.close("Credential")
}

func (xmlCodec) encodeList(service string, cred Credential) ([]byte, error) {
	root := service + "Request"
	x := newXMLBuilder(root)
	x.credential(cred)
	return x.done(root), nil
}

func (xmlCodec) encodeListHotels(cred Credential, cityID int64) ([]byte, error) {
	const root = "ListHotelRequest"
	x := newXMLBuilder(root)
	x.credential(cred)
	x.leaf("City", strconv.FormatInt(cityID, 10))
	return x.done(root), nil
}

func (xmlCodec) encodeSearch(cred Credential, q domain.SearchQuery) ([]byte, error) {
	const root = "HotelSearchRequest"
	x := newXMLBuilder(root)
	x.credential(cred)
	cur := q.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	x.open("SearchDetails")
	x.leaf("City", strconv.FormatInt(q.CityID, 10))
	x.leaf("CheckIn", q.CheckIn)
	x.leaf("CheckOut", q.CheckOut)
	x.leaf("Currency", cur)
	x.open("Rooms")
	for _, r := range q.Rooms {
		x.open("Room")
		x.leaf("Adult", strconv.Itoa(r.Adults))
		for _, age := range r.ChildrenAges {
			x.leaf("ChildAge", strconv.Itoa(age))
		}
		x.close("Room")
	}
	x.close("Rooms")
	x.close("SearchDetails")
	return x.done(root), nil
}

func (xmlCodec) encodeBooking(cred Credential, token string, c domain.Customer, sels []domain.RoomSelection, preBooking bool) ([]byte, error) {
	const root = "BookingCreationRequest"
	x := newXMLBuilder(root)
	x.credential(cred)
	x.leaf("SearchToken", token)
	x.leaf("PreBooking", strconv.FormatBool(preBooking))
	x.open("Customer")
	x.leaf("FirstName", c.FirstName)
	x.leaf("LastName", c.LastName)
	x.leaf("Email", c.Email)
	x.leaf("Phone", c.Phone)
	x.leaf("Country", c.Country)
	x.close("Customer")
	x.open("Rooms")
	for _, s := range sels {
		x.open("Room")
		x.leaf("HotelId", strconv.FormatInt(s.HotelID, 10))
		x.leaf("RoomId", strconv.FormatInt(s.RoomID, 10))
		if s.BoardCode != nil {
			x.leaf("BoardCode", *s.BoardCode)
		}
		x.leaf("Adult", strconv.Itoa(s.Adults))
		for _, age := range s.ChildrenAges {
			x.leaf("ChildAge", strconv.Itoa(age))
		}
		x.leaf("Price", strconv.FormatFloat(s.Price, 'f', -1, 64))
		x.close("Room")
	}
	x.close("Rooms")
	return x.done(root), nil
}

// parseXML sanitizes, validates and parses one inbound payload. Anything not
// starting with '<' is almost always the edge proxy answering with an HTML
// error page, so that case gets its own diagnosable error.
func parseXML(service string, raw []byte) (*xmlmini.Element, error) {
	clean := bytes.TrimSpace(xmlmini.Sanitize(raw))
	if len(clean) == 0 {
		return nil, &domain.ProtocolError{Service: service, Reason: "empty response"}
	}
	if clean[0] != '<' {
		return nil, &domain.ProtocolError{
			Service: service,
			Reason:  "response does not look like XML (HTML/JSON/plaintext?)",
			Preview: domain.Preview(clean),
		}
	}
	if bytes.HasPrefix(bytes.ToLower(clean), []byte("<!doctype")) ||
		bytes.HasPrefix(bytes.ToLower(clean), []byte("<html")) {
		return nil, &domain.ProtocolError{
			Service: service,
			Reason:  "response is an HTML page, not supplier XML",
			Preview: domain.Preview(clean),
		}
	}
	root, err := xmlmini.Parse(clean)
	if err != nil {
		return nil, &domain.ProtocolError{
			Service: service,
			Reason:  err.Error(),
			Preview: domain.Preview(clean),
		}
	}
	if el := root.FindFirst("ErrorCode"); el != nil && el.Text != "" && el.Text != "0" {
		return nil, &domain.BusinessError{
			Service: service,
			Code:    el.Text,
			Message: root.ChildText("ErrorMessage"),
		}
	}
	return root, nil
}

func elI64(e *xmlmini.Element, tag string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(e.ChildText(tag)), 10, 64)
	return n
}

func elF64(e *xmlmini.Element, tag string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(e.ChildText(tag), ",", "."))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func elBool(e *xmlmini.Element, tag string) bool {
	switch strings.ToLower(strings.TrimSpace(e.ChildText(tag))) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func (xmlCodec) decodeCities(raw []byte) ([]domain.City, error) {
	root, err := parseXML(SvcListCity, raw)
	if err != nil {
		return nil, err
	}
	els := root.FindAll("City")
	if len(els) == 0 {
		return nil, &domain.ProtocolError{
			Service: SvcListCity,
			Reason:  "no <City> elements in response",
			Preview: domain.Preview(raw),
		}
	}
	out := make([]domain.City, 0, len(els))
	for _, el := range els {
		out = append(out, domain.City{
			ID:     elI64(el, "Id"),
			Name:   el.ChildText("Name"),
			Region: ptrStr(el.ChildText("Region")),
		})
	}
	return out, nil
}

func (xmlCodec) decodeHotels(raw []byte, requestedCity int64) ([]domain.Hotel, error) {
	root, err := parseXML(SvcListHotel, raw)
	if err != nil {
		return nil, err
	}
	els := root.FindAll("Hotel")
	out := make([]domain.Hotel, 0, len(els))
	for _, el := range els {
		h := domain.Hotel{
			ID:            elI64(el, "Id"),
			Name:          el.ChildText("Name"),
			CategoryTitle: ptrStr(el.ChildText("Category")),
			Address:       ptrStr(el.ChildText("Address")),
			Image:         ptrStr(el.ChildText("Image")),
			Note:          ptrStr(el.ChildText("Note")),
		}
		if star := elI64(el, "Star"); star > 0 {
			h.Star = ptrInt(int(star))
		}
		if lat, ok := elF64(el, "Lat"); ok {
			h.Lat = ptrF64(lat)
		}
		if lon, ok := elF64(el, "Lng"); ok {
			h.Lon = ptrF64(lon)
		}
		if city := elI64(el, "City"); city > 0 {
			h.CityID = city
		} else {
			h.CityID = requestedCity
		}
		out = append(out, h)
	}
	return out, nil
}

func (xmlCodec) decodeSearch(raw []byte) (domain.SearchResult, error) {
	root, err := parseXML(SvcHotelSearch, raw)
	if err != nil {
		return domain.SearchResult{}, err
	}
	res := domain.SearchResult{Token: root.ChildText("SearchToken")}
	for _, hel := range root.FindAll("Hotel") {
		hr := domain.HotelSearchResult{
			HotelID: elI64(hel, "Id"),
			Name:    hel.ChildText("Name"),
		}
		for _, pel := range hel.FindAll("Price") {
			for _, bel := range pel.FindAll("Boarding") {
				boardCode := ptrStr(bel.ChildText("Code"))
				boardName := ptrStr(bel.ChildText("BoardName"))
				for _, pxel := range bel.FindAll("Pax") {
					var adults *int
					if a := elI64(pxel, "Adult"); a > 0 {
						adults = ptrInt(int(a))
					}
					var ages []int
					for _, ael := range pxel.FindAll("ChildAge") {
						if n, err := strconv.Atoi(strings.TrimSpace(ael.Text)); err == nil {
							ages = append(ages, n)
						}
					}
					for _, rel := range pxel.FindAll("Room") {
						offer := domain.RoomOffer{
							RoomID:             elI64(rel, "Id"),
							RoomName:           ptrStr(rel.ChildText("Name")),
							BoardCode:          boardCode,
							BoardName:          boardName,
							Adults:             adults,
							ChildrenAges:       ages,
							OnRequest:          elBool(rel, "StopReservation"),
							CancellationPolicy: ptrStr(rel.ChildText("CancellationPolicy")),
						}
						if p, ok := elF64(rel, "Price"); ok {
							offer.Price = p
						}
						if b, ok := elF64(rel, "BasePrice"); ok {
							offer.BasePrice = ptrF64(b)
						}
						if mk, ok := elF64(rel, "PriceWithMarkup"); ok {
							offer.PriceWithMarkup = ptrF64(mk)
						}
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

func (xmlCodec) decodeBooking(raw []byte) (domain.BookingResult, error) {
	root, err := parseXML(SvcBookingCreation, raw)
	if err != nil {
		return domain.BookingResult{}, err
	}
	br := domain.BookingResult{
		BookingID: ptrStr(root.ChildText("BookingId")),
		State:     ptrStr(root.ChildText("State")),
	}
	if tp, ok := elF64(root, "TotalPrice"); ok {
		br.TotalPrice = ptrF64(tp)
	}
	// Carry any unrecognized top-level elements through untouched.
	known := map[string]bool{"BookingId": true, "State": true, "TotalPrice": true}
	for _, c := range root.Children {
		if known[c.Tag] || len(c.Children) > 0 {
			continue
		}
		if br.Extra == nil {
			br.Extra = make(map[string]any, 4)
		}
		br.Extra[c.Tag] = c.Text
	}
	return br, nil
}

func (xmlCodec) decodeCredit(raw []byte) (domain.CreditBalance, error) {
	root, err := parseXML(SvcCreditCheck, raw)
	if err != nil {
		return domain.CreditBalance{}, err
	}
	remaining, ok := elF64(root, "Remaining")
	if !ok {
		return domain.CreditBalance{}, &domain.ProtocolError{
			Service: SvcCreditCheck,
			Reason:  "no <Remaining> element in response",
			Preview: domain.Preview(raw),
		}
	}
	return domain.CreditBalance{
		Remaining: remaining,
		Currency:  root.ChildText("Currency"),
	}, nil
}

func (xmlCodec) decodeReference(service string, raw []byte) ([]domain.ReferenceItem, error) {
	root, err := parseXML(service, raw)
	if err != nil {
		return nil, err
	}
	els := root.FindAll("Item")
	out := make([]domain.ReferenceItem, 0, len(els))
	for _, el := range els {
		out = append(out, domain.ReferenceItem{
			ID:    elI64(el, "Id"),
			Title: el.ChildText("Title"),
			Code:  ptrStr(el.ChildText("Code")),
		})
	}
	return out, nil
}

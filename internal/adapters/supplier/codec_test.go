package supplier

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
)

var cred = Credential{Login: "agency", Password: "secret"}

func TestJSONEncodeSearch_CanonicalShape(t *testing.T) {
	body, err := jsonCodec{}.encodeSearch(cred, domain.SearchQuery{
		CityID: 4, CheckIn: "2026-03-01", CheckOut: "2026-03-05",
		Rooms: []domain.RoomQuery{{Adults: 2, ChildrenAges: []int{5}}},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	sd, _ := m["SearchDetails"].(map[string]any)
	if sd == nil {
		t.Fatalf("no SearchDetails: %s", body)
	}
	if sd["City"].(float64) != 4 {
		t.Fatalf("City = %v", sd["City"])
	}
	if sd["Currency"] != "TND" {
		t.Fatalf("default currency = %v", sd["Currency"])
	}
	c, _ := m["Credential"].(map[string]any)
	if c["Login"] != "agency" || c["Password"] != "secret" {
		t.Fatalf("credential missing: %s", body)
	}
}

func TestXMLEncodeSearch_EscapesAndNests(t *testing.T) {
	body, err := xmlCodec{}.encodeSearch(Credential{Login: "a&b", Password: "p"}, domain.SearchQuery{
		CityID: 1, CheckIn: "2026-03-01", CheckOut: "2026-03-05",
		Rooms: []domain.RoomQuery{{Adults: 2}},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	s := string(body)
	if !strings.Contains(s, "<Login>a&amp;b</Login>") {
		t.Fatalf("login not escaped: %s", s)
	}
	if !strings.Contains(s, "<SearchDetails><City>1</City>") {
		t.Fatalf("search details missing: %s", s)
	}
}

func TestXMLDecodeCities_ZeroCitiesIsProtocolError(t *testing.T) {
	_, err := xmlCodec{}.decodeCities([]byte(`<?xml version="1.0"?><ListCityResponse><Count>0</Count></ListCityResponse>`))
	var pe *domain.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %T: %v", err, err)
	}
	if !strings.Contains(pe.Reason, "City") {
		t.Fatalf("reason = %q", pe.Reason)
	}
}

func TestXMLDecode_HTMLErrorPage(t *testing.T) {
	_, err := xmlCodec{}.decodeCities([]byte("<!DOCTYPE html>\n<html><body>502 Bad Gateway</body></html>"))
	var pe *domain.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %T: %v", err, err)
	}
	if !strings.Contains(pe.Reason, "HTML") {
		t.Fatalf("reason should call out HTML: %q", pe.Reason)
	}
	if !strings.Contains(pe.Preview, "502 Bad Gateway") {
		t.Fatalf("preview should carry the page: %q", pe.Preview)
	}
}

func TestXMLDecode_PlaintextNotXML(t *testing.T) {
	_, err := xmlCodec{}.decodeCities([]byte("service unavailable"))
	var pe *domain.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %T: %v", err, err)
	}
	if !strings.Contains(pe.Reason, "does not look like XML") {
		t.Fatalf("reason = %q", pe.Reason)
	}
}

func TestXMLDecodeCities_BOMAndNULTolerated(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF},
		[]byte("<ListCityResponse><City><Id>1</Id><Name>Tu\x00nis</Name></City></ListCityResponse>")...)
	cities, err := xmlCodec{}.decodeCities(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cities) != 1 || cities[0].Name != "Tunis" {
		t.Fatalf("cities = %+v", cities)
	}
}

func TestJSONDecodeCities_ZeroIsProtocolError(t *testing.T) {
	_, err := jsonCodec{}.decodeCities([]byte(`{"Cities": []}`))
	var pe *domain.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %T: %v", err, err)
	}
}

func TestJSONDecode_SupplierErrorCode(t *testing.T) {
	_, err := jsonCodec{}.decodeSearch([]byte(`{"ErrorCode": 17, "ErrorMessage": "invalid city"}`))
	var be *domain.BusinessError
	if !errors.As(err, &be) {
		t.Fatalf("expected BusinessError, got %T: %v", err, err)
	}
	if be.Code != "17" || be.Message != "invalid city" {
		t.Fatalf("business error = %+v", be)
	}
}

func TestBookingDecode_RoundTripWithPassthrough(t *testing.T) {
	for name, c := range map[string]codec{"json": jsonCodec{}, "xml": xmlCodec{}} {
		t.Run(name, func(t *testing.T) {
			var raw []byte
			if name == "json" {
				raw = []byte(`{"BookingId":"B-991","State":"Confirmed","TotalPrice":420.75,"VoucherRef":"V-7"}`)
			} else {
				raw = []byte(`<BookingCreationResponse><BookingId>B-991</BookingId><State>Confirmed</State><TotalPrice>420.75</TotalPrice><VoucherRef>V-7</VoucherRef></BookingCreationResponse>`)
			}
			br, err := c.decodeBooking(raw)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if br.BookingID == nil || *br.BookingID != "B-991" {
				t.Fatalf("booking id = %v", br.BookingID)
			}
			if br.State == nil || *br.State != "Confirmed" {
				t.Fatalf("state = %v", br.State)
			}
			if br.TotalPrice == nil || *br.TotalPrice != 420.75 {
				t.Fatalf("total = %v", br.TotalPrice)
			}
			if got := br.Extra["VoucherRef"]; got != "V-7" {
				t.Fatalf("passthrough field lost: %v", br.Extra)
			}
		})
	}
}

func TestDecodeSearch_OnRequestRoomsFlagHotelUnavailable(t *testing.T) {
	raw := []byte(`{"SearchToken":"t","Hotels":[{"Id":9,"Name":"H","Prices":[
		{"Boardings":[{"Code":"BB","Paxes":[{"Adult":2,"Rooms":[
			{"Id":1,"Price":100,"StopReservation":true},
			{"Id":2,"Price":120,"StopReservation":"1"}
		]}]}]}]}]}`)
	res, err := jsonCodec{}.decodeSearch(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	h := res.Hotels[0]
	if h.Available || h.HasInstantConfirmation {
		t.Fatalf("all rooms on-request but hotel flagged available: %+v", h)
	}
	for _, r := range h.Rooms {
		if !r.OnRequest {
			t.Fatalf("room %d should be on-request", r.RoomID)
		}
	}
}

func TestDecodeCredit_MissingBalanceField(t *testing.T) {
	_, err := jsonCodec{}.decodeCredit([]byte(`{"Currency":"TND"}`))
	var pe *domain.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %T: %v", err, err)
	}
}

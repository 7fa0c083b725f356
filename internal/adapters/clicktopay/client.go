// Package clicktopay is the card-payment gateway client: pre-authorization
// registration, capture, reversal and HMAC verification of asynchronous
// callbacks. Payment calls are never retried automatically.
package clicktopay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/adapters/observability"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
)

const defaultTimeout = 20 * time.Second

type Client struct {
	base     string
	user     string
	password string
	secret   []byte
	hc       *http.Client
}

func New(base, user, password, callbackSecret string, timeout time.Duration) (*Client, error) {
	if base == "" || user == "" || password == "" {
		return nil, fmt.Errorf("clicktopay: base URL and credentials are required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		base:     base,
		user:     user,
		password: password,
		secret:   []byte(callbackSecret),
		hc:       &http.Client{Timeout: timeout},
	}, nil
}

// post issues one authenticated JSON POST. Credentials are merged into the
// body; there is no retry loop here on purpose.
func (c *Client) post(ctx context.Context, endpoint string, params map[string]any) (map[string]any, error) {
	body := make(map[string]any, len(params)+2)
	for k, v := range params {
		body[k] = v
	}
	body["userName"] = c.user
	body["password"] = c.password

	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/"+endpoint, bytes.NewReader(buf))
	if err != nil {
		return nil, &domain.TransportError{Service: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("gateway", endpoint, 0, time.Since(start))
		return nil, &domain.TransportError{Service: endpoint, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	observability.ObserveExternal("gateway", endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &domain.TransportError{Service: endpoint, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.BusinessError{
			Service: endpoint,
			Code:    fmt.Sprintf("http_%d", resp.StatusCode),
			Message: "gateway returned non-200 status",
			Preview: domain.Preview(raw),
		}
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &domain.ProtocolError{
			Service: endpoint,
			Reason:  "gateway response is not valid JSON",
			Preview: domain.Preview(raw),
		}
	}
	if code := jsonInt(m, "errorCode"); code != 0 {
		msg, _ := m["errorMessage"].(string)
		return nil, &domain.BusinessError{
			Service: endpoint,
			Code:    strconv.Itoa(code),
			Message: msg,
		}
	}
	return m, nil
}

func (c *Client) RegisterPreAuth(ctx context.Context, p domain.PreAuth) (domain.PreAuthOrder, error) {
	m, err := c.post(ctx, "register.do", map[string]any{
		"orderNumber": p.OrderNumber,
		"amount":      p.Amount,
		"currency":    p.Currency,
		"description": p.Description,
		"returnUrl":   p.ReturnURL,
		// Two-phase payment: hold now, deposit.do later.
		"preAuth": true,
	})
	if err != nil {
		return domain.PreAuthOrder{}, err
	}
	orderID, _ := m["orderId"].(string)
	formURL, _ := m["formUrl"].(string)
	if orderID == "" {
		return domain.PreAuthOrder{}, &domain.ProtocolError{
			Service: "register.do",
			Reason:  "no orderId in response",
		}
	}
	return domain.PreAuthOrder{OrderID: orderID, FormURL: formURL}, nil
}

func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (domain.OrderState, error) {
	m, err := c.post(ctx, "getOrderStatusExtended.do", map[string]any{"orderId": orderID})
	if err != nil {
		return domain.OrderState{}, err
	}
	st := domain.OrderState{
		OrderStatus: jsonInt(m, "orderStatus"),
		ActionCode:  jsonInt(m, "actionCode"),
		Amount:      int64(jsonInt(m, "amount")),
	}
	if s, ok := m["approvalCode"].(string); ok && s != "" {
		st.ApprovalCode = &s
	}
	if s, ok := m["pan"].(string); ok && s != "" {
		masked := MaskPan(s)
		st.MaskedCard = &masked
	}
	return st, nil
}

func (c *Client) Deposit(ctx context.Context, orderID string, amount int64) error {
	_, err := c.post(ctx, "deposit.do", map[string]any{"orderId": orderID, "amount": amount})
	return err
}

func (c *Client) Reverse(ctx context.Context, orderID string) error {
	_, err := c.post(ctx, "reverse.do", map[string]any{"orderId": orderID})
	return err
}

func jsonInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

// MaskPan keeps the first 6 and last 4 digits; anything shorter is fully
// masked. Every PAN crossing a process boundary, gateway response or
// callback alike, goes through here before it can be stored or logged.
func MaskPan(pan string) string {
	if len(pan) < 12 {
		return "****"
	}
	return pan[:6] + "******" + pan[len(pan)-4:]
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

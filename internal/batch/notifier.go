package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NotificationLine is one flattened (line, box) ledger row reported to the
// external packing system.
type NotificationLine struct {
	SKU      string `json:"sku"`
	BoxCode  string `json:"box_code"`
	Quantity int    `json:"quantity"`
}

// Notification is the payload sent to the external packing system when an
// order becomes READY.
type Notification struct {
	CompanyID    int64              `json:"company_id"`
	WarehouseID  int64              `json:"warehouse_id"`
	CustomerCode string             `json:"customer_code"`
	OrderNumber  string             `json:"numero_orden"`
	Operator     string             `json:"operator"`
	Transfer     bool               `json:"generate_transfer"`
	Lines        []NotificationLine `json:"lines"`
}

// operatorPlaceholder is the fixed operator identity reported for batch
// completions, which are not tied to a scanning operator.
const operatorPlaceholder = "ALMACEN"

// NotifierPort abstracts the synchronous external notification. A non-nil
// error rolls back the whole reconciliation transaction.
type NotifierPort interface {
	NotifyReady(ctx context.Context, n Notification) error
}

// HTTPNotifier posts the notification to the external packing system and
// accepts only a 201 Created response.
type HTTPNotifier struct {
	client  *http.Client
	baseURL string
}

// NewHTTPNotifier constructs HTTPNotifier with a bounded request timeout.
func NewHTTPNotifier(baseURL string, timeout time.Duration) *HTTPNotifier {
	return &HTTPNotifier{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

func (n *HTTPNotifier) NotifyReady(ctx context.Context, notification Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotifyFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/api/packing-orders", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotifyFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotifyFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: unexpected status %d", ErrNotifyFailed, resp.StatusCode)
	}
	return nil
}

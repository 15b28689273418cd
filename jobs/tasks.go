package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCartExpire sweeps cart keys that lost their TTL.
	TaskCartExpire = "cart:expire"
	// TaskLowStockScan reports products at or below the stock threshold.
	TaskLowStockScan = "stock:lowscan"
	// TaskStockAudit re-checks an order after cancellation restored stock.
	TaskStockAudit = "order:stock_audit"
)

// StockAuditPayload identifies the cancelled order to audit.
type StockAuditPayload struct {
	OrderID int64 `json:"order_id"`
}

// NewCartExpireTask constructs the cart sweep task.
func NewCartExpireTask() *asynq.Task {
	return asynq.NewTask(TaskCartExpire, nil)
}

// NewLowStockScanTask constructs the low-stock scan task.
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TaskLowStockScan, nil)
}

// NewStockAuditTask constructs a stock audit task for one order.
func NewStockAuditTask(orderID int64) (*asynq.Task, error) {
	data, err := json.Marshal(StockAuditPayload{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockAudit, data), nil
}

package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/warebase/warebase/internal/cart"
	jobmetrics "github.com/warebase/warebase/internal/jobs"
	"github.com/warebase/warebase/internal/orders"
	"github.com/warebase/warebase/internal/products"
)

// OrderReader is the slice of the order store the auditor needs.
type OrderReader interface {
	GetWithLines(ctx context.Context, id int64) (orders.Order, error)
}

// Catalog is the slice of the product service the scanner needs.
type Catalog interface {
	LowStock(ctx context.Context, threshold int64) ([]products.Product, error)
}

// Handlers bundles the task handlers and their dependencies.
type Handlers struct {
	carts     *cart.Store
	catalog   Catalog
	orders    OrderReader
	threshold int64
	logger    *slog.Logger
	metrics   *jobmetrics.Metrics
}

// NewHandlers constructs the handler set.
func NewHandlers(carts *cart.Store, catalog Catalog, orderReader OrderReader,
	lowStockThreshold int64, logger *slog.Logger, metrics *jobmetrics.Metrics) *Handlers {
	return &Handlers{
		carts:     carts,
		catalog:   catalog,
		orders:    orderReader,
		threshold: lowStockThreshold,
		logger:    logger,
		metrics:   metrics,
	}
}

// HandleCartExpire repairs cart keys that lost their TTL.
func (h *Handlers) HandleCartExpire(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track("cart_expire")
	repaired, err := h.carts.SweepExpired(ctx)
	if err != nil {
		h.logger.Error("cart sweep failed", slog.Any("error", err))
		return tracker.End(err)
	}
	if repaired > 0 {
		h.logger.Info("cart sweep repaired keys", slog.Int("repaired", repaired))
	}
	return tracker.End(nil)
}

// HandleLowStockScan reports products running out of stock.
func (h *Handlers) HandleLowStockScan(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track("low_stock_scan")
	low, err := h.catalog.LowStock(ctx, h.threshold)
	if err != nil {
		h.logger.Error("low stock scan failed", slog.Any("error", err))
		return tracker.End(err)
	}

	perSupplier := make(map[int64]int)
	for _, p := range low {
		supplierID := int64(0)
		if p.SupplierID != nil {
			supplierID = *p.SupplierID
		}
		perSupplier[supplierID]++
		h.logger.Warn("product low on stock",
			slog.Int64("product_id", p.ID),
			slog.String("name", p.Name),
			slog.Int64("quantity", p.Quantity))
	}
	for supplierID, count := range perSupplier {
		h.metrics.SetLowStock(supplierID, count)
	}
	return tracker.End(nil)
}

// HandleStockAudit verifies the invariants of a cancelled order: terminal
// status and zeroed total. Violations are logged, not retried.
func (h *Handlers) HandleStockAudit(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track("stock_audit")
	var payload StockAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}

	order, err := h.orders.GetWithLines(ctx, payload.OrderID)
	if err != nil {
		h.logger.Error("stock audit load failed",
			slog.Int64("order_id", payload.OrderID), slog.Any("error", err))
		return tracker.End(err)
	}
	if order.Status != orders.StatusCancelled || order.TotalPrice != 0 {
		h.logger.Error("cancelled order failed audit",
			slog.Int64("order_id", order.ID),
			slog.String("status", string(order.Status)),
			slog.Float64("total_price", order.TotalPrice))
	}
	return tracker.End(nil)
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-pos-ledger/internal/model"
	"go-pos-ledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// State is a checkout's position in the fulfillment protocol.
type State string

const (
	StateDrafting       State = "DRAFTING"
	StateChecking       State = "CHECKING"
	StateDeducting      State = "DEDUCTING"
	StateRecording      State = "RECORDING"
	StateComplete       State = "COMPLETE"
	StateRejected       State = "REJECTED"
	StatePartialFailure State = "PARTIAL_FAILURE"
)

// maxOrderTotal is the largest total a receipt row can hold.
var maxOrderTotal = decimal.RequireFromString("9999999999.99")

// ProductCatalog is the read-only product collaborator.
type ProductCatalog interface {
	FindByIDs(ctx context.Context, ids []uint) ([]model.Product, error)
}

// ReceiptStore persists immutable receipts.
type ReceiptStore interface {
	Create(ctx context.Context, receipt *model.Receipt) error
	FindByOrderKey(ctx context.Context, orderKey string) (*model.Receipt, error)
}

// AuditLog appends audit entries.
type AuditLog interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
}

// OrderNotifier is told about completed orders after everything is recorded.
type OrderNotifier interface {
	OrderCompleted(ctx context.Context, receipt *model.Receipt, quantities map[uint]int)
}

// OrderRequest is the input of SubmitOrder. OrderKey is optional; when set,
// replays of the same key never deduct twice.
type OrderRequest struct {
	SessionID string          `json:"session_id"`
	ActorID   string          `json:"-" validate:"required"`
	OrderKey  string          `json:"order_key" validate:"omitempty,max=128"`
	OrderType model.OrderType `json:"order_type" validate:"required,oneof=DINE_IN TAKE_OUT"`
	Lines     []OrderLine     `json:"lines" validate:"required,min=1,dive"`
}

// Result is returned for a completed order.
type Result struct {
	ReceiptID     uuid.UUID       `json:"receipt_id"`
	Reference     string          `json:"reference"`
	Total         decimal.Decimal `json:"total"`
	NewQuantities map[uint]int    `json:"new_quantities"`
}

// Coordinator runs the checkout protocol:
// guard → validate → check → apply → receipt → audit.
type Coordinator struct {
	catalog  ProductCatalog
	checker  *AvailabilityChecker
	ledger   *StockLedger
	receipts ReceiptStore
	audit    AuditLog
	guard    InFlightGuard
	notifier OrderNotifier
	tracer   trace.Tracer
	now      func() time.Time
}

func NewCoordinator(
	catalog ProductCatalog,
	checker *AvailabilityChecker,
	ledger *StockLedger,
	receipts ReceiptStore,
	audit AuditLog,
	guard InFlightGuard,
	notifier OrderNotifier,
) *Coordinator {
	if guard == nil {
		guard = NewMemoryGuard()
	}
	return &Coordinator{
		catalog:  catalog,
		checker:  checker,
		ledger:   ledger,
		receipts: receipts,
		audit:    audit,
		guard:    guard,
		notifier: notifier,
		tracer:   otel.Tracer("go-pos-ledger/ledger"),
		now:      time.Now,
	}
}

func (c *Coordinator) SubmitOrder(ctx context.Context, req OrderRequest) (res *Result, err error) {
	ctx, span := c.tracer.Start(ctx, "ledger.submit_order")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.type", string(req.OrderType)),
		attribute.Int("order.lines", len(req.Lines)),
		attribute.String("actor.id", req.ActorID),
	)

	state := StateDrafting
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(state))
			return
		}
		span.SetStatus(codes.Ok, string(StateComplete))
	}()

	// 1. one outstanding confirm per session
	guardKey := req.SessionID
	if guardKey == "" {
		guardKey = req.ActorID
	}
	if guardKey != "" {
		release, gerr := c.guard.Acquire(ctx, guardKey)
		if gerr != nil {
			return nil, gerr
		}
		defer release()
	}

	// 2. validate before touching the ledger
	if verr := validateOrder(req); verr != nil {
		return nil, verr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reference := req.OrderKey
	if reference == "" {
		reference = uuid.NewString()
	} else if rerr := c.checkReplay(ctx, reference); rerr != nil {
		return nil, rerr
	}
	span.SetAttributes(attribute.String("order.reference", reference))
	logger := log.With().Str("reference", reference).Str("actor_id", req.ActorID).Logger()

	lines, total, err := c.priceLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	// 3. advisory pre-check
	state = StateChecking
	logger.Debug().Str("state", string(state)).Msg("checkout transition")
	demand, err := c.checker.Check(ctx, req.Lines)
	if err != nil {
		state = StateRejected
		logger.Info().Err(err).Msg("order rejected at pre-check")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		state = StateRejected
		return nil, err
	}

	// 4. authoritative, atomic deduction
	state = StateDeducting
	logger.Debug().Str("state", string(state)).Interface("demand", demand).Msg("checkout transition")
	quantities, err := c.ledger.Apply(ctx, ApplyRequest{Reference: reference, ActorID: req.ActorID, Demand: demand})
	if err != nil {
		state = StateRejected
		if errors.Is(err, ErrReferenceUsed) {
			// a concurrent submit with the same order key won the race
			return nil, c.replayError(context.WithoutCancel(ctx), reference)
		}
		logger.Info().Err(err).Msg("order rejected by ledger")
		return nil, err
	}

	// 5–6. nothing below may be cancelled: stock is already gone
	state = StateRecording
	logger.Debug().Str("state", string(state)).Msg("checkout transition")
	recCtx := context.WithoutCancel(ctx)

	receipt := &model.Receipt{
		ID:        uuid.New(),
		Reference: reference,
		OrderType: req.OrderType,
		Lines:     lines,
		Total:     total,
		ActorID:   req.ActorID,
		CreatedAt: c.now(),
	}
	if req.OrderKey != "" {
		key := req.OrderKey
		receipt.OrderKey = &key
	}
	if err := c.receipts.Create(recCtx, receipt); err != nil {
		if len(demand) == 0 && req.OrderKey != "" && errors.Is(err, ErrReferenceUsed) {
			// nothing was deducted; a concurrent submit recorded this key first
			state = StateRejected
			return nil, c.replayError(recCtx, reference)
		}
		state = StatePartialFailure
		return nil, c.partialFailure(recCtx, &PartialFailureError{Reference: reference, Stage: StageReceipt, Err: err})
	}

	entry := &model.AuditEntry{
		Title:       model.AuditOrderSuccess,
		Description: fmt.Sprintf("Receipt id: %s", receipt.ID),
		ActorID:     req.ActorID,
		CreatedAt:   c.now(),
	}
	if err := c.audit.Append(recCtx, entry); err != nil {
		state = StatePartialFailure
		return nil, c.partialFailure(recCtx, &PartialFailureError{Reference: reference, ReceiptID: receipt.ID, Stage: StageAudit, Err: err})
	}

	state = StateComplete
	logger.Info().Str("receipt_id", receipt.ID.String()).Str("total", total.String()).Msg("order confirmed")
	if c.notifier != nil {
		c.notifier.OrderCompleted(recCtx, receipt, quantities)
	}

	return &Result{
		ReceiptID:     receipt.ID,
		Reference:     reference,
		Total:         total,
		NewQuantities: quantities,
	}, nil
}

func validateOrder(req OrderRequest) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return &ValidationError{Fields: validator.FieldMap(errs)}
	}
	return nil
}

// checkReplay refuses an order key that was already confirmed or that
// already deducted stock.
func (c *Coordinator) checkReplay(ctx context.Context, reference string) error {
	existing, err := c.receipts.FindByOrderKey(ctx, reference)
	switch {
	case err == nil && existing != nil:
		return &DuplicateOrderError{OrderKey: reference, ReceiptID: existing.ID}
	case err != nil && !errors.Is(err, ErrNotFound):
		return fmt.Errorf("check order key: %w", err)
	}
	used, err := c.ledger.HasReference(ctx, reference)
	if err != nil {
		return fmt.Errorf("check order key: %w", err)
	}
	if used {
		return &PartialFailureError{Reference: reference, Stage: StageReplay}
	}
	return nil
}

func (c *Coordinator) replayError(ctx context.Context, reference string) error {
	existing, err := c.receipts.FindByOrderKey(ctx, reference)
	switch {
	case err == nil && existing != nil:
		return &DuplicateOrderError{OrderKey: reference, ReceiptID: existing.ID}
	case err != nil && !errors.Is(err, ErrNotFound):
		return fmt.Errorf("check order key: %w", err)
	}
	return &PartialFailureError{Reference: reference, Stage: StageReplay}
}

// priceLines snapshots product names and line totals for the receipt.
func (c *Coordinator) priceLines(ctx context.Context, lines []OrderLine) ([]model.ReceiptLine, decimal.Decimal, error) {
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := c.catalog.FindByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[uint]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]model.ReceiptLine, 0, len(lines))
	total := decimal.Zero
	for i, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, decimal.Zero, newValidationError(fmt.Sprintf("lines[%d].product_id", i), "unknown product")
		}
		if p.Disabled {
			return nil, decimal.Zero, &ProductUnavailableError{ProductID: p.ID, Name: p.Name}
		}
		lineTotal := p.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(lineTotal)
		out = append(out, model.ReceiptLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			LineTotal:   lineTotal,
		})
	}
	if total.GreaterThan(maxOrderTotal) {
		return nil, decimal.Zero, newValidationError("lines", ErrOrderTooLarge.Error())
	}
	return out, total, nil
}

// partialFailure logs the inconsistency and tries to leave an audit trail for
// the operator. It never touches the ledger again.
func (c *Coordinator) partialFailure(ctx context.Context, pf *PartialFailureError) error {
	log.Error().
		Err(pf.Err).
		Str("reference", pf.Reference).
		Str("stage", pf.Stage).
		Msg("stock deducted but order not fully recorded; manual reconciliation required")

	desc := fmt.Sprintf("Reference: %s, failed stage: %s", pf.Reference, pf.Stage)
	if pf.ReceiptID != uuid.Nil {
		desc += fmt.Sprintf(", receipt id: %s", pf.ReceiptID)
	}
	if err := c.audit.Append(ctx, &model.AuditEntry{
		Title:       model.AuditReconcile,
		Description: desc,
		ActorID:     "system",
		CreatedAt:   c.now(),
	}); err != nil {
		log.Error().Err(err).Str("reference", pf.Reference).Msg("could not record reconciliation entry")
	}
	return pf
}

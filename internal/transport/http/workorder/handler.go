package workorder

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/orderdesk/internal/dto"
	"github.com/Additional-Code/orderdesk/internal/entity"
	"github.com/Additional-Code/orderdesk/internal/presentation/http/response"
	repo "github.com/Additional-Code/orderdesk/internal/repository/workorder"
	"github.com/Additional-Code/orderdesk/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/orderdesk/transport/http/workorder")

// Service is the subset of the work order service the handler depends on.
type Service interface {
	List(ctx context.Context) ([]repo.Record, error)
	Get(ctx context.Context, id string) (repo.Record, error)
	Create(ctx context.Context, order *entity.WorkOrder) (*entity.WorkOrder, error)
	Update(ctx context.Context, order *entity.WorkOrder) (*entity.WorkOrder, error)
	Delete(ctx context.Context, id string) error
}

// Handler exposes work order endpoints over HTTP.
type Handler struct {
	svc      Service
	validate *validator.Validate
}

// NewHandler constructs a work order Handler.
func NewHandler(svc Service) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{svc: svc, validate: v}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/work-orders")
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "workorders.list")
	defer span.End()

	records, err := h.svc.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	items := make([]dto.WorkOrderListItem, len(records))
	degraded := 0
	for i, rec := range records {
		items[i] = toListItem(rec)
		if rec.Degraded() || rec.Err != nil {
			degraded++
		}
	}

	return b.WithData(items).
		WithMeta("count", len(items)).
		WithMeta("degraded", degraded).
		Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := strings.TrimSpace(c.Param("id"))

	ctx, span := httpTracer.Start(c.Request().Context(), "workorders.getByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	rec, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	if rec.Degraded() {
		b.WithMeta("issues", toIssues(rec.Issues))
	}
	return b.WithData(toDTO(rec.Order)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	payload, err := h.bind(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	if payload.OrderID == "" {
		payload.OrderID = uuid.NewString()
	}
	order := fromRequest(payload)

	ctx, span := httpTracer.Start(c.Request().Context(), "workorders.create")
	span.SetAttributes(attribute.String("order.id", order.OrderID))
	defer span.End()

	created, err := h.svc.Create(ctx, order)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toDTO(created)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)
	id := strings.TrimSpace(c.Param("id"))

	payload, err := h.bind(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	if payload.OrderID != "" && payload.OrderID != id {
		return b.WithError(errorbank.BadRequest("order_id does not match path",
			errorbank.WithDetail("path", id),
			errorbank.WithDetail("body", payload.OrderID),
		)).Build()
	}
	payload.OrderID = id
	order := fromRequest(payload)

	ctx, span := httpTracer.Start(c.Request().Context(), "workorders.update", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	updated, err := h.svc.Update(ctx, order)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(updated)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)
	id := strings.TrimSpace(c.Param("id"))

	ctx, span := httpTracer.Start(c.Request().Context(), "workorders.delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]any{"order_id": id, "deleted": true}).Build()
}

func (h *Handler) bind(c echo.Context) (dto.WorkOrderRequest, error) {
	var payload dto.WorkOrderRequest
	if err := c.Bind(&payload); err != nil {
		return payload, errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	payload.OrderID = strings.TrimSpace(payload.OrderID)

	if err := h.validate.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return payload, errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
		}
		details := make(map[string]any, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		return payload, errorbank.BadRequest("validation failed", errorbank.WithDetails(details))
	}
	return payload, nil
}

func fromRequest(p dto.WorkOrderRequest) *entity.WorkOrder {
	order := &entity.WorkOrder{
		OrderID: p.OrderID,
		Size:    p.Size,
		Filled:  p.Filled,
		Status:  p.Status,
		Ticker:  p.Ticker,
		MIC:     p.MIC,
		Action:  p.Action,
	}
	if order.Filled == "" {
		order.Filled = "0"
	}
	if p.Timestamp != nil {
		order.Timestamp = *p.Timestamp
	}
	if p.LastModified != nil {
		order.LastModified = *p.LastModified
	}
	return order
}

func toDTO(order *entity.WorkOrder) dto.WorkOrderResponse {
	return dto.WorkOrderResponse{
		OrderID:      order.OrderID,
		Size:         order.Size,
		Filled:       order.Filled,
		Status:       order.Status,
		Ticker:       order.Ticker,
		MIC:          order.MIC,
		Action:       order.Action,
		Timestamp:    order.Timestamp,
		LastModified: order.LastModified,
	}
}

func toListItem(rec repo.Record) dto.WorkOrderListItem {
	if rec.Err != nil || rec.Order == nil {
		item := dto.WorkOrderListItem{Error: "unreadable record"}
		if rec.Err != nil {
			item.Error = rec.Err.Error()
		}
		return item
	}
	order := toDTO(rec.Order)
	return dto.WorkOrderListItem{Order: &order, Issues: toIssues(rec.Issues)}
}

func toIssues(issues []repo.FieldIssue) []dto.FieldIssueResponse {
	if len(issues) == 0 {
		return nil
	}
	out := make([]dto.FieldIssueResponse, len(issues))
	for i, issue := range issues {
		out[i] = dto.FieldIssueResponse{Field: issue.Field, State: issue.State.String()}
	}
	return out
}

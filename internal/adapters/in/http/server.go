// Package http exposes the dispatch engine over a thin REST surface. The
// handlers translate JSON to commands and queries and map domain errors to
// status codes; all business behavior lives in the application layer.
package http

import (
	"errors"
	"net/http"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/kitchen"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	createOrderHandler         commands.CreateOrderCommandHandler
	transitionOrderHandler     commands.TransitionOrderCommandHandler
	startPreparationHandler    commands.StartPreparationCommandHandler
	completePreparationHandler commands.CompletePreparationCommandHandler
	markPaymentHandler         commands.MarkPaymentCommandHandler
	createDriverHandler        commands.CreateDriverCommandHandler
	moveDriverHandler          commands.MoveDriverCommandHandler
	completeRouteHandler       commands.CompleteRouteCommandHandler

	getOrdersByStatusHandler  queries.GetOrdersByStatusQueryHandler
	getKitchenCapacityHandler queries.GetKitchenCapacityQueryHandler
	getActiveRouteHandler     queries.GetActiveRouteQueryHandler
}

// NewServer creates an HTTP server over the given command and query handlers.
func NewServer(
	createOrderHandler commands.CreateOrderCommandHandler,
	transitionOrderHandler commands.TransitionOrderCommandHandler,
	startPreparationHandler commands.StartPreparationCommandHandler,
	completePreparationHandler commands.CompletePreparationCommandHandler,
	markPaymentHandler commands.MarkPaymentCommandHandler,
	createDriverHandler commands.CreateDriverCommandHandler,
	moveDriverHandler commands.MoveDriverCommandHandler,
	completeRouteHandler commands.CompleteRouteCommandHandler,
	getOrdersByStatusHandler queries.GetOrdersByStatusQueryHandler,
	getKitchenCapacityHandler queries.GetKitchenCapacityQueryHandler,
	getActiveRouteHandler queries.GetActiveRouteQueryHandler,
) *Server {
	return &Server{
		createOrderHandler:         createOrderHandler,
		transitionOrderHandler:     transitionOrderHandler,
		startPreparationHandler:    startPreparationHandler,
		completePreparationHandler: completePreparationHandler,
		markPaymentHandler:         markPaymentHandler,
		createDriverHandler:        createDriverHandler,
		moveDriverHandler:          moveDriverHandler,
		completeRouteHandler:       completeRouteHandler,
		getOrdersByStatusHandler:   getOrdersByStatusHandler,
		getKitchenCapacityHandler:  getKitchenCapacityHandler,
		getActiveRouteHandler:      getActiveRouteHandler,
	}
}

// RegisterRoutes mounts all endpoints on the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)

	v1 := e.Group("/api/v1")
	v1.POST("/orders", s.CreateOrder)
	v1.GET("/orders", s.GetOrders)
	v1.POST("/orders/:id/transition", s.TransitionOrder)
	v1.POST("/orders/:id/payment", s.MarkPayment)
	v1.POST("/orders/:id/preparation/start", s.StartPreparation)
	v1.POST("/orders/:id/preparation/complete", s.CompletePreparation)
	v1.GET("/kitchens/:id/capacity", s.GetKitchenCapacity)
	v1.POST("/drivers", s.CreateDriver)
	v1.POST("/drivers/:id/location", s.MoveDriver)
	v1.POST("/drivers/:id/route/complete", s.CompleteRoute)
	v1.GET("/drivers/:id/route", s.GetActiveRoute)
}

// errorBody is the JSON error envelope of every failing response.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func fail(ctx echo.Context, code int, message string) error {
	return ctx.JSON(code, errorBody{Code: code, Message: message})
}

// domainError maps application errors to HTTP responses.
func domainError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return fail(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrConflictRetry),
		errors.Is(err, order.ErrAlreadyTerminal),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrPreparationAlreadyStarted),
		errors.Is(err, commands.ErrRouteHasUndeliveredOrders),
		errors.Is(err, kitchen.ErrCapacityExceeded):
		return fail(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, commands.ErrTargetHasDedicatedWorkflow):
		return fail(ctx, http.StatusBadRequest, err.Error())
	default:
		return fail(ctx, http.StatusInternalServerError, "internal error")
	}
}

func pathUUID(ctx echo.Context, name string) (kernel.UUID, error) {
	return kernel.UUIDFromString(ctx.Param(name))
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type addressRequest struct {
	Street       string  `json:"street"`
	City         string  `json:"city"`
	PostalCode   string  `json:"postal_code"`
	Instructions string  `json:"instructions"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
}

type itemRequest struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type createOrderRequest struct {
	CustomerID  string         `json:"customer_id"`
	KitchenID   string         `json:"kitchen_id"`
	ScheduledAt time.Time      `json:"scheduled_at"`
	Address     addressRequest `json:"address"`
	Items       []itemRequest  `json:"items"`
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var request createOrderRequest
	if err := ctx.Bind(&request); err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid request body")
	}

	customerID, err := kernel.UUIDFromString(request.CustomerID)
	if err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid customer_id")
	}
	kitchenID, err := kernel.UUIDFromString(request.KitchenID)
	if err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid kitchen_id")
	}

	location, err := kernel.NewGeoPoint(request.Address.Lat, request.Address.Lng)
	if err != nil {
		return domainError(ctx, err)
	}
	address, err := order.NewAddress(
		request.Address.Street,
		request.Address.City,
		request.Address.PostalCode,
		request.Address.Instructions,
		location,
	)
	if err != nil {
		return domainError(ctx, err)
	}

	items := make([]order.Item, 0, len(request.Items))
	for _, line := range request.Items {
		productID, itemErr := kernel.UUIDFromString(line.ProductID)
		if itemErr != nil {
			return fail(ctx, http.StatusBadRequest, "invalid product_id")
		}
		item, itemErr := order.NewItem(productID, line.Quantity, line.UnitPriceCents)
		if itemErr != nil {
			return domainError(ctx, itemErr)
		}
		items = append(items, item)
	}

	orderID := kernel.NewUUID()
	cmd, err := commands.NewCreateOrderCommand(orderID, customerID, kitchenID, items, address, request.ScheduledAt)
	if err != nil {
		return domainError(ctx, err)
	}

	if err = s.createOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return domainError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]string{"id": orderID.String()})
}

// GetOrders handles GET /api/v1/orders?status=.
func (s *Server) GetOrders(ctx echo.Context) error {
	status, err := order.ParseStatus(ctx.QueryParam("status"))
	if err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid status")
	}

	query, err := queries.NewGetOrdersByStatusQuery(status)
	if err != nil {
		return domainError(ctx, err)
	}

	orders, err := s.getOrdersByStatusHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return domainError(ctx, err)
	}

	type orderResponse struct {
		ID          string    `json:"id"`
		CustomerID  string    `json:"customer_id"`
		KitchenID   string    `json:"kitchen_id"`
		Status      string    `json:"status"`
		Lat         float64   `json:"lat"`
		Lng         float64   `json:"lng"`
		ScheduledAt time.Time `json:"scheduled_at"`
	}

	response := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, orderResponse{
			ID:          o.ID.String(),
			CustomerID:  o.CustomerID.String(),
			KitchenID:   o.KitchenID.String(),
			Status:      o.Status.String(),
			Lat:         o.Location.Lat(),
			Lng:         o.Location.Lng(),
			ScheduledAt: o.ScheduledAt,
		})
	}

	return ctx.JSON(http.StatusOK, response)
}

type transitionOrderRequest struct {
	Target string `json:"target"`
	Note   string `json:"note"`
}

// TransitionOrder handles POST /api/v1/orders/:id/transition.
func (s *Server) TransitionOrder(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "id")
	if err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid order id")
	}

	var request transitionOrderRequest
	if err = ctx.Bind(&request); err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid request body")
	}

	target, err := order.ParseStatus(request.Target)
	if err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid target status")
	}

	cmd, err := commands.NewTransitionOrderCommand(orderID, target, request.Note)
	if err != nil {
		return domainError(ctx, err)
	}

	if err = s.transitionOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return domainError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

type markPaymentRequest struct {
	Status string `json:"status"`
}

// MarkPayment handles POST /api/v1/orders/:id/payment.
func (s *Server) MarkPayment(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "id")
	if err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid order id")
	}

	var request markPaymentRequest
	if err = ctx.Bind(&request); err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid request body")
	}

	status, err := order.ParsePaymentStatus(request.Status)
	if err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid payment status")
	}

	cmd, err := commands.NewMarkPaymentCommand(orderID, status)
	if err != nil {
		return domainError(ctx, err)
	}

	if err = s.markPaymentHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return domainError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// StartPreparation handles POST /api/v1/orders/:id/preparation/start. The
// kitchen intake normally flows through the job queue; this endpoint exists
// for operators pushing a stuck order through by hand.
func (s *Server) StartPreparation(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "id")
	if err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid order id")
	}

	cmd, err := commands.NewStartPreparationCommand(orderID)
	if err != nil {
		return domainError(ctx, err)
	}

	if err = s.startPreparationHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return domainError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// CompletePreparation handles POST /api/v1/orders/:id/preparation/complete.
func (s *Server) CompletePreparation(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "id")
	if err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid order id")
	}

	cmd, err := commands.NewCompletePreparationCommand(orderID)
	if err != nil {
		return domainError(ctx, err)
	}

	if err = s.completePreparationHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return domainError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// GetKitchenCapacity handles GET /api/v1/kitchens/:id/capacity.
func (s *Server) GetKitchenCapacity(ctx echo.Context) error {
	kitchenID, err := pathUUID(ctx, "id")
	if err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid kitchen id")
	}

	query, err := queries.NewGetKitchenCapacityQuery(kitchenID)
	if err != nil {
		return domainError(ctx, err)
	}

	capacity, err := s.getKitchenCapacityHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return domainError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"kitchen_id":      capacity.KitchenID.String(),
		"name":            capacity.Name,
		"max_concurrent":  capacity.MaxConcurrent,
		"preparing_count": capacity.PreparingCount,
		"available":       capacity.Available,
	})
}

type createDriverRequest struct {
	Name  string   `json:"name"`
	Lat   float64  `json:"lat"`
	Lng   float64  `json:"lng"`
	Zones []string `json:"zones"`
}

// CreateDriver handles POST /api/v1/drivers.
func (s *Server) CreateDriver(ctx echo.Context) error {
	var request createDriverRequest
	if err := ctx.Bind(&request); err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid request body")
	}

	location, err := kernel.NewGeoPoint(request.Lat, request.Lng)
	if err != nil {
		return domainError(ctx, err)
	}

	driverID := kernel.NewUUID()
	cmd, err := commands.NewCreateDriverCommand(driverID, request.Name, location, request.Zones)
	if err != nil {
		return domainError(ctx, err)
	}

	if err = s.createDriverHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return domainError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]string{"id": driverID.String()})
}

type moveDriverRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MoveDriver handles POST /api/v1/drivers/:id/location.
func (s *Server) MoveDriver(ctx echo.Context) error {
	driverID, err := pathUUID(ctx, "id")
	if err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid driver id")
	}

	var request moveDriverRequest
	if err = ctx.Bind(&request); err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid request body")
	}

	location, err := kernel.NewGeoPoint(request.Lat, request.Lng)
	if err != nil {
		return domainError(ctx, err)
	}

	cmd, err := commands.NewMoveDriverCommand(driverID, location)
	if err != nil {
		return domainError(ctx, err)
	}

	if err = s.moveDriverHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return domainError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// CompleteRoute handles POST /api/v1/drivers/:id/route/complete.
func (s *Server) CompleteRoute(ctx echo.Context) error {
	driverID, err := pathUUID(ctx, "id")
	if err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid driver id")
	}

	cmd, err := commands.NewCompleteRouteCommand(driverID)
	if err != nil {
		return domainError(ctx, err)
	}

	if err = s.completeRouteHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return domainError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// GetActiveRoute handles GET /api/v1/drivers/:id/route.
func (s *Server) GetActiveRoute(ctx echo.Context) error {
	driverID, err := pathUUID(ctx, "id")
	if err != nil {
		return fail(ctx, http.StatusBadRequest, "invalid driver id")
	}

	query, err := queries.NewGetActiveRouteQuery(driverID)
	if err != nil {
		return domainError(ctx, err)
	}

	active, err := s.getActiveRouteHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return domainError(ctx, err)
	}

	type stopResponse struct {
		OrderID string  `json:"order_id"`
		Lat     float64 `json:"lat"`
		Lng     float64 `json:"lng"`
	}

	stops := make([]stopResponse, 0, len(active.Stops))
	for _, stop := range active.Stops {
		stops = append(stops, stopResponse{
			OrderID: stop.OrderID.String(),
			Lat:     stop.Location.Lat(),
			Lng:     stop.Location.Lng(),
		})
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"route_id":               active.RouteID.String(),
		"zone":                   active.Zone,
		"total_meters":           active.TotalMeters,
		"total_duration_seconds": int64(active.TotalDuration.Seconds()),
		"stops":                  stops,
	})
}

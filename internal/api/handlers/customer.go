package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"travel-crm/internal/api"
	"travel-crm/internal/identity"
	"travel-crm/internal/logger"
	"travel-crm/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CustomerFinder resolves identifiers to candidate and unified customers
type CustomerFinder interface {
	FindCustomerMatches(ctx context.Context, id identity.Identifier) []identity.CandidateMatch
	ResolveUnifiedCustomer(ctx context.Context, id identity.Identifier) (*service.UnifiedCustomer, error)
}

// BookingLinker persists identity resolutions onto bookings
type BookingLinker interface {
	LinkBookingsToCustomer(ctx context.Context, customerID uuid.UUID, bookingIDs []uuid.UUID) (int64, error)
}

// CustomerHandler handles customer identity HTTP requests
type CustomerHandler struct {
	customers CustomerFinder
	linker    BookingLinker
	validator *validator.Validate
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customers CustomerFinder, linker BookingLinker) *CustomerHandler {
	return &CustomerHandler{
		customers: customers,
		linker:    linker,
		validator: validator.New(),
	}
}

// IdentifierQuery holds the partial identifier accepted by lookup endpoints.
// Contact fields are not format-checked; a malformed value just matches fewer
// records.
type IdentifierQuery struct {
	Email     string `form:"email" validate:"omitempty,max=255"`
	Phone     string `form:"phone" validate:"omitempty,max=50"`
	Name      string `form:"name" validate:"omitempty,max=255"`
	PartnerID string `form:"partner_id" validate:"omitempty,uuid"`
}

// LinkBookingsRequest lists bookings to attach to a customer identity
type LinkBookingsRequest struct {
	BookingIDs []string `json:"booking_ids" validate:"required,min=1,max=100,dive,uuid"`
}

// LinkBookingsResponse reports how many bookings were linked
type LinkBookingsResponse struct {
	CustomerID string `json:"customer_id"`
	Requested  int    `json:"requested"`
	Linked     int64  `json:"linked"`
}

func (h *CustomerHandler) bindIdentifier(c *gin.Context) (identity.Identifier, bool) {
	var query IdentifierQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		api.SendValidationError(c, "Invalid query parameters", err.Error())
		return identity.Identifier{}, false
	}

	query.Email = strings.TrimSpace(query.Email)
	query.Phone = strings.TrimSpace(query.Phone)
	query.Name = strings.TrimSpace(query.Name)
	query.PartnerID = strings.TrimSpace(query.PartnerID)

	if err := h.validator.Struct(query); err != nil {
		api.SendValidationError(c, "Validation failed", err.Error())
		return identity.Identifier{}, false
	}

	id := identity.Identifier{
		Email: query.Email,
		Phone: query.Phone,
		Name:  query.Name,
	}
	if query.PartnerID != "" {
		partnerID := uuid.MustParse(query.PartnerID)
		id.PartnerID = &partnerID
	}

	if id.IsEmpty() {
		api.SendValidationError(c, "Validation failed", "at least one of email, phone or name is required")
		return identity.Identifier{}, false
	}

	return id, true
}

// FindMatches returns candidate customers for a partial identifier
// @Summary Find customer matches
// @Description Search partner customers and bookings for an email, phone and/or name
// @Tags customers
// @Produce json
// @Param email query string false "Email address"
// @Param phone query string false "Phone number"
// @Param name query string false "Customer name (searched only with email or phone)"
// @Param partner_id query string false "Restrict to one partner" format(uuid)
// @Success 200 {object} api.APIResponse{data=[]identity.CandidateMatch,meta=api.Meta}
// @Failure 400 {object} api.APIResponse{error=api.APIError}
// @Router /customers/matches [get]
func (h *CustomerHandler) FindMatches(c *gin.Context) {
	id, ok := h.bindIdentifier(c)
	if !ok {
		return
	}

	matches := h.customers.FindCustomerMatches(c.Request.Context(), id)
	api.SendSuccess(c, http.StatusOK, matches, api.NewMeta(c, len(matches)))
}

// GetUnified returns the unified profile of the best match
// @Summary Get unified customer
// @Description Aggregate partner records, booking history and stats for the best matching customer
// @Tags customers
// @Produce json
// @Param email query string false "Email address"
// @Param phone query string false "Phone number"
// @Param name query string false "Customer name"
// @Param partner_id query string false "Restrict to one partner" format(uuid)
// @Success 200 {object} api.APIResponse{data=service.UnifiedCustomer}
// @Failure 400 {object} api.APIResponse{error=api.APIError}
// @Failure 404 {object} api.APIResponse{error=api.APIError}
// @Failure 500 {object} api.APIResponse{error=api.APIError}
// @Router /customers/unified [get]
func (h *CustomerHandler) GetUnified(c *gin.Context) {
	id, ok := h.bindIdentifier(c)
	if !ok {
		return
	}

	profile, err := h.customers.ResolveUnifiedCustomer(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNoMatch) {
			api.SendNotFound(c, "Customer")
			return
		}
		logger.Error().Err(err).Str("identifier", id.Key()).Msg("failed to resolve unified customer")
		api.SendInternalError(c, "Failed to build customer profile")
		return
	}

	api.SendSuccess(c, http.StatusOK, profile, nil)
}

// LinkBookings attaches unlinked bookings to a customer identity
// @Summary Link bookings to customer
// @Tags customers
// @Accept json
// @Produce json
// @Param id path string true "Customer ID" format(uuid)
// @Param request body LinkBookingsRequest true "Bookings to link"
// @Success 200 {object} api.APIResponse{data=LinkBookingsResponse}
// @Failure 400 {object} api.APIResponse{error=api.APIError}
// @Failure 500 {object} api.APIResponse{error=api.APIError}
// @Router /customers/{id}/bookings/link [post]
func (h *CustomerHandler) LinkBookings(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		api.SendValidationError(c, "Invalid customer ID", "ID must be a valid UUID")
		return
	}

	var req LinkBookingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		api.SendValidationError(c, "Validation failed", err.Error())
		return
	}

	bookingIDs := make([]uuid.UUID, len(req.BookingIDs))
	for i, raw := range req.BookingIDs {
		bookingIDs[i] = uuid.MustParse(raw)
	}

	linked, err := h.linker.LinkBookingsToCustomer(c.Request.Context(), customerID, bookingIDs)
	if err != nil {
		logger.Error().Err(err).Str("customer_id", customerID.String()).Msg("failed to link bookings")
		api.SendInternalError(c, "Failed to link bookings")
		return
	}

	api.SendSuccess(c, http.StatusOK, LinkBookingsResponse{
		CustomerID: customerID.String(),
		Requested:  len(bookingIDs),
		Linked:     linked,
	}, nil)
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"guest-portal/portal/internal/controller"
	"guest-portal/portal/internal/middleware"
	"guest-portal/portal/internal/model"
	"guest-portal/portal/internal/repository"
	"guest-portal/portal/internal/service"
)

const (
	apiTitle   = "Guest Portal API"
	apiVersion = "1.0.0"
)

type GuestAuthorizer interface {
	Authorize(ctx context.Context, req service.GuestRequest) (service.Attempt, error)
}

type Deps struct {
	Repo        repository.Repository
	Authorizer  GuestAuthorizer
	DB          service.Pinger
	Controllers service.ControllerFactory
	Status      service.StatusControllerFactory
	AdminUser   string
	AdminPass   string
}

type Handler struct {
	deps Deps
}

func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// --- Request/Response types ---

type AuthorizeInput struct {
	Body struct {
		Email string `json:"email" required:"true"`
		MAC   string `json:"mac" required:"true"`
		IP    string `json:"ip,omitempty"`
		APMAC string `json:"ap_mac,omitempty"`
		SSID  string `json:"ssid,omitempty"`
	}
}

type AuthorizeOutput struct {
	Body struct {
		State   string `json:"state"`
		GuestID string `json:"guest_id"`
		MAC     string `json:"mac"`
		Minutes int    `json:"minutes"`
	}
}

type HealthOutput struct {
	Status int
	Body   service.HealthStatus
}

type Guest struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	MAC        string    `json:"mac"`
	IP         string    `json:"ip"`
	APMAC      string    `json:"ap_mac"`
	SSID       string    `json:"ssid"`
	Minutes    int       `json:"minutes"`
	Authorized bool      `json:"authorized"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListGuestsInput struct {
	Limit int    `query:"limit" default:"100" minimum:"1" maximum:"1000"`
	MAC   string `query:"mac" doc:"Only list records of this device"`
}

type GetGuestInput struct {
	ID string `path:"id"`
}

type GetGuestOutput struct {
	Body Guest
}

type ListGuestsOutput struct {
	Body struct {
		Total      int64   `json:"total"`
		Authorized int64   `json:"authorized"`
		Guests     []Guest `json:"guests"`
	}
}

type ControllerClientsOutput struct {
	Body struct {
		Clients []controller.ClientRecord `json:"clients"`
	}
}

type ControllerHealthOutput struct {
	Body controller.HealthSnapshot
}

// --- Register routes ---

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		api := humachi.New(r, huma.DefaultConfig(apiTitle, apiVersion))
		huma.Register(api, huma.Operation{
			OperationID: "authorize-guest",
			Method:      http.MethodPost,
			Path:        "/api/guests/authorize",
			Summary:     "Authorize a guest device on the controller",
		}, h.authorizeGuest)
		huma.Register(api, huma.Operation{
			OperationID: "health",
			Method:      http.MethodGet,
			Path:        "/health",
			Summary:     "Database and controller health",
		}, h.health)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BasicAuth(h.deps.AdminUser, h.deps.AdminPass))
		cfg := huma.DefaultConfig(apiTitle, apiVersion)
		cfg.OpenAPIPath = ""
		cfg.DocsPath = ""
		cfg.SchemasPath = ""
		api := humachi.New(r, cfg)
		huma.Register(api, huma.Operation{
			OperationID: "list-guests",
			Method:      http.MethodGet,
			Path:        "/api/admin/guests",
			Summary:     "List recent guests",
		}, h.listGuests)
		huma.Register(api, huma.Operation{
			OperationID: "get-guest",
			Method:      http.MethodGet,
			Path:        "/api/admin/guests/{id}",
			Summary:     "Get one guest record",
		}, h.getGuest)
		huma.Register(api, huma.Operation{
			OperationID: "controller-clients",
			Method:      http.MethodGet,
			Path:        "/api/admin/controller/clients",
			Summary:     "List stations known to the controller",
		}, h.controllerClients)
		huma.Register(api, huma.Operation{
			OperationID: "controller-health",
			Method:      http.MethodGet,
			Path:        "/api/admin/controller/health",
			Summary:     "Controller site health",
		}, h.controllerHealth)
	})
}

// --- Handlers ---

func (h *Handler) authorizeGuest(ctx context.Context, input *AuthorizeInput) (*AuthorizeOutput, error) {
	attempt, err := h.deps.Authorizer.Authorize(ctx, service.GuestRequest{
		Email: input.Body.Email,
		MAC:   input.Body.MAC,
		IP:    input.Body.IP,
		APMAC: input.Body.APMAC,
		SSID:  input.Body.SSID,
	})
	if err != nil {
		return nil, toHumaError(err)
	}
	switch attempt.Reason {
	case service.ReasonNone:
	case service.ReasonAuthorizationRejected:
		return nil, huma.Error403Forbidden(attempt.UserMessage())
	default:
		return nil, huma.Error503ServiceUnavailable(attempt.UserMessage())
	}

	resp := &AuthorizeOutput{}
	resp.Body.State = string(attempt.State)
	resp.Body.GuestID = attempt.Guest.ID
	resp.Body.MAC = attempt.Guest.MAC
	resp.Body.Minutes = attempt.Guest.Minutes
	return resp, nil
}

func (h *Handler) health(ctx context.Context, input *struct{}) (*HealthOutput, error) {
	status := service.CheckHealth(ctx, h.deps.DB, h.deps.Controllers)
	resp := &HealthOutput{Status: http.StatusOK, Body: status}
	if !status.OK() {
		resp.Status = http.StatusServiceUnavailable
	}
	return resp, nil
}

func (h *Handler) listGuests(ctx context.Context, input *ListGuestsInput) (*ListGuestsOutput, error) {
	data, err := h.deps.Repo.FetchAdminPageData(ctx, input.Limit)
	if err != nil {
		return nil, toHumaError(err)
	}
	if input.MAC != "" {
		data.Guests, err = h.deps.Repo.ListGuestsByMAC(ctx, controller.NormalizeMAC(input.MAC), input.Limit)
		if err != nil {
			return nil, toHumaError(err)
		}
	}
	resp := &ListGuestsOutput{}
	resp.Body.Total = data.TotalGuests
	resp.Body.Authorized = data.AuthorizedGuests
	resp.Body.Guests = make([]Guest, 0, len(data.Guests))
	for _, g := range data.Guests {
		resp.Body.Guests = append(resp.Body.Guests, toGuest(g))
	}
	return resp, nil
}

func (h *Handler) getGuest(ctx context.Context, input *GetGuestInput) (*GetGuestOutput, error) {
	g, err := h.deps.Repo.GetGuest(ctx, input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &GetGuestOutput{Body: toGuest(g)}, nil
}

func (h *Handler) controllerClients(ctx context.Context, input *struct{}) (*ControllerClientsOutput, error) {
	resp := &ControllerClientsOutput{}
	resp.Body.Clients = service.ControllerClients(ctx, h.deps.Status)
	return resp, nil
}

func (h *Handler) controllerHealth(ctx context.Context, input *struct{}) (*ControllerHealthOutput, error) {
	return &ControllerHealthOutput{Body: service.ControllerHealth(ctx, h.deps.Status)}, nil
}

func toGuest(g model.Guest) Guest {
	return Guest{
		ID:         g.ID,
		Email:      g.Email,
		MAC:        g.MAC,
		IP:         g.IP,
		APMAC:      g.APMAC,
		SSID:       g.SSID,
		Minutes:    g.Minutes,
		Authorized: g.Authorized,
		CreatedAt:  g.CreatedAt,
	}
}

func toHumaError(err error) error {
	if service.IsValidation(err) {
		return huma.Error400BadRequest(err.Error())
	}
	if service.IsNotFound(err) {
		return huma.Error404NotFound("not found")
	}
	return huma.Error500InternalServerError("internal error")
}

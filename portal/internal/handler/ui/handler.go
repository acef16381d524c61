package ui

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"guest-portal/portal/internal/repository"
	"guest-portal/portal/internal/service"
)

//go:embed templates/*.html
var templatesFS embed.FS

const adminGuestLimit = 100

// Message codes carried in the "msg" query parameter back to the login page.
const (
	msgInvalidEmail  = "invalid_email"
	msgMACRequired   = "mac_required"
	msgMACInvalid    = "mac_invalid"
	msgUnavailable   = "unavailable"
	msgAuthFailed    = "authorization_failed"
	msgUnexpected    = "unexpected"
	msgAdminLoadFail = "admin_load_failed"
)

var messages = map[string]string{
	msgInvalidEmail:  "Please enter a valid email address.",
	msgMACRequired:   "Device MAC address is required.",
	msgMACInvalid:    "Device MAC address is not valid.",
	msgUnavailable:   service.MessageUnavailable,
	msgAuthFailed:    service.MessageAuthorizationFailed,
	msgUnexpected:    "An unexpected error occurred. Please try again.",
	msgAdminLoadFail: "Error loading admin data.",
}

type GuestAuthorizer interface {
	Authorize(ctx context.Context, req service.GuestRequest) (service.Attempt, error)
}

type Handler struct {
	repo       repository.Repository
	authorizer GuestAuthorizer
	templates  *template.Template
	logger     *zap.Logger
}

func NewHandler(repo repository.Repository, authorizer GuestAuthorizer, logger *zap.Logger) (*Handler, error) {
	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, authorizer: authorizer, templates: tmpl, logger: logger}, nil
}

// portalParams are the captive-portal parameters the controller appends to the redirect.
type portalParams struct {
	MAC      string
	IP       string
	APMAC    string
	SSID     string
	Continue string
}

func (p portalParams) query(msg string) string {
	q := url.Values{}
	if p.MAC != "" {
		q.Set("id", p.MAC)
	}
	if p.IP != "" {
		q.Set("ip", p.IP)
	}
	if p.APMAC != "" {
		q.Set("ap", p.APMAC)
	}
	if p.SSID != "" {
		q.Set("ssid", p.SSID)
	}
	if p.Continue != "" {
		q.Set("url", p.Continue)
	}
	if msg != "" {
		q.Set("msg", msg)
	}
	return q.Encode()
}

type loginPage struct {
	portalParams
	Message string
}

type successPage struct {
	ContinueURL string
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.portalLogin)
	r.Post("/authenticate", h.authenticate)
	r.Get("/success", h.success)
	r.NotFound(h.notFound)
	return r
}

func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.admin)
	return r
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("render template", zap.String("template", name), zap.Error(err))
	}
}

func (h *Handler) portalLogin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := portalParams{
		MAC:      q.Get("id"),
		IP:       q.Get("ip"),
		APMAC:    q.Get("ap"),
		SSID:     q.Get("ssid"),
		Continue: q.Get("url"),
	}
	h.logger.Info("portal access",
		zap.String("mac", params.MAC),
		zap.String("ip", params.IP),
		zap.String("ssid", params.SSID))

	h.render(w, http.StatusOK, "login.html", loginPage{portalParams: params, Message: messages[q.Get("msg")]})
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) {
	params := portalParams{
		MAC:      r.FormValue("mac"),
		IP:       r.FormValue("ip"),
		APMAC:    r.FormValue("ap_mac"),
		SSID:     r.FormValue("ssid"),
		Continue: r.FormValue("url"),
	}
	email := r.FormValue("email")
	h.logger.Info("authentication attempt", zap.String("email", email), zap.String("mac", params.MAC))

	back := func(msg string) {
		http.Redirect(w, r, "/?"+params.query(msg), http.StatusSeeOther)
	}

	attempt, err := h.authorizer.Authorize(r.Context(), service.GuestRequest{
		Email: email,
		MAC:   params.MAC,
		IP:    params.IP,
		APMAC: params.APMAC,
		SSID:  params.SSID,
	})
	if err != nil {
		var verr service.ValidationError
		switch {
		case errors.As(err, &verr) && verr.Field == "mac" && strings.TrimSpace(params.MAC) == "":
			http.Redirect(w, r, "/?"+portalParams{}.query(msgMACRequired), http.StatusSeeOther)
		case errors.As(err, &verr) && verr.Field == "mac":
			back(msgMACInvalid)
		case errors.As(err, &verr):
			back(msgInvalidEmail)
		default:
			h.logger.Error("unexpected error during authentication", zap.Error(err))
			back(msgUnexpected)
		}
		return
	}

	switch attempt.Reason {
	case service.ReasonNone:
	case service.ReasonAuthorizationRejected:
		back(msgAuthFailed)
		return
	default:
		back(msgUnavailable)
		return
	}

	h.logger.Info("guest authorized", zap.String("email", email), zap.String("mac", attempt.Guest.MAC))
	target := "/success"
	if params.Continue != "" {
		target += "?" + url.Values{"url": {params.Continue}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) success(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "success.html", successPage{ContinueURL: safeContinueURL(r.URL.Query().Get("url"))})
}

// safeContinueURL only lets absolute http(s) URLs through to the page link.
func safeContinueURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}

type adminPage struct {
	repository.AdminPageData
	Message string
}

func (h *Handler) admin(w http.ResponseWriter, r *http.Request) {
	data, err := h.repo.FetchAdminPageData(r.Context(), adminGuestLimit)
	if err != nil {
		h.logger.Error("load admin data", zap.Error(err))
		h.render(w, http.StatusOK, "admin.html", adminPage{Message: messages[msgAdminLoadFail]})
		return
	}
	h.render(w, http.StatusOK, "admin.html", adminPage{AdminPageData: data})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusNotFound, "404.html", nil)
}

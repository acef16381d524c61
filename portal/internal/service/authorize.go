package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"guest-portal/portal/internal/controller"
	"guest-portal/portal/internal/model"
	"guest-portal/portal/internal/repository"
)

// Controller is the part of the controller client an authorization attempt needs.
type Controller interface {
	TestConnection(ctx context.Context) bool
	Login(ctx context.Context) bool
	AuthorizeGuest(ctx context.Context, mac string, minutes int) bool
}

// ControllerFactory returns a new controller client with its own session on every call.
type ControllerFactory func() Controller

// FromClientFactory adapts a controller.Factory.
func FromClientFactory(f controller.Factory) ControllerFactory {
	return func() Controller { return f() }
}

type State string

const (
	StateInit                State = "init"
	StateReachabilityChecked State = "reachability-checked"
	StateLoggedIn            State = "logged-in"
	StateAuthorized          State = "authorized"
	StateFailed              State = "failed"
)

type FailureReason string

const (
	ReasonNone                  FailureReason = ""
	ReasonUnreachable           FailureReason = "unreachable"
	ReasonAuthRejected          FailureReason = "auth-rejected"
	ReasonAuthorizationRejected FailureReason = "authorization-rejected"
)

// Messages shown to guests. Controller details never reach the page.
const (
	MessageUnavailable         = "System temporarily unavailable. Please try again later."
	MessageAuthorizationFailed = "Authorization failed. Please try again or contact support."
)

// GuestRequest is what the portal form submits.
type GuestRequest struct {
	Email string `validate:"required,email"`
	MAC   string `validate:"required,mac"`
	IP    string `validate:"omitempty,ip"`
	APMAC string
	SSID  string
}

// Attempt is the outcome of one authorization flow.
type Attempt struct {
	State  State
	Reason FailureReason
	Guest  model.Guest
}

func (a Attempt) Authorized() bool {
	return a.State == StateAuthorized
}

// UserMessage is the generic text for a failed attempt.
func (a Attempt) UserMessage() string {
	switch a.Reason {
	case ReasonNone:
		return ""
	case ReasonAuthorizationRejected:
		return MessageAuthorizationFailed
	default:
		return MessageUnavailable
	}
}

var validate = validator.New()

type Authorizer struct {
	repo          repository.Repository
	newController ControllerFactory
	minutes       int
	logger        *zap.Logger
}

func NewAuthorizer(repo repository.Repository, factory ControllerFactory, minutes int, logger *zap.Logger) *Authorizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authorizer{repo: repo, newController: factory, minutes: minutes, logger: logger}
}

// Authorize runs one guest through reachability check, controller login and
// authorization, each against a controller client built for this attempt only. A
// controller refusal is reported in the returned Attempt; errors are reserved for invalid
// input and storage failures.
func (a *Authorizer) Authorize(ctx context.Context, req GuestRequest) (Attempt, error) {
	req.MAC = controller.NormalizeMAC(req.MAC)
	if err := validateRequest(req); err != nil {
		return Attempt{}, err
	}

	log := a.logger.With(zap.String("mac", req.MAC), zap.String("email", req.Email))
	attempt := Attempt{State: StateInit}
	fail := func(reason FailureReason) (Attempt, error) {
		log.Warn("guest authorization failed",
			zap.String("state", string(attempt.State)),
			zap.String("reason", string(reason)))
		attempt.State = StateFailed
		attempt.Reason = reason
		return attempt, nil
	}

	ctrl := a.newController()

	if !ctrl.TestConnection(ctx) {
		return fail(ReasonUnreachable)
	}
	attempt.State = StateReachabilityChecked

	if !ctrl.Login(ctx) {
		return fail(ReasonAuthRejected)
	}
	attempt.State = StateLoggedIn

	log.Info("authorizing guest", zap.Int("minutes", a.minutes))
	if !ctrl.AuthorizeGuest(ctx, req.MAC, a.minutes) {
		return fail(ReasonAuthorizationRejected)
	}

	guest := model.NewGuest(req.Email, req.MAC, req.IP, req.APMAC, req.SSID, a.minutes)
	guest.Authorized = true
	if err := a.repo.CreateGuest(ctx, &guest); err != nil {
		return Attempt{}, fmt.Errorf("save guest: %w", err)
	}

	attempt.State = StateAuthorized
	attempt.Guest = guest
	log.Info("guest authorized", zap.String("guest_id", guest.ID))
	return attempt, nil
}

func validateRequest(req GuestRequest) error {
	if err := validate.Struct(req); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return validationMessage(verrs[0])
		}
		return ValidationError{Msg: err.Error()}
	}
	return nil
}

func validationMessage(fe validator.FieldError) ValidationError {
	switch fe.Field() {
	case "Email":
		return ValidationError{Field: "email", Msg: "Please enter a valid email address."}
	case "MAC":
		if fe.Tag() == "required" {
			return ValidationError{Field: "mac", Msg: "Device MAC address is required."}
		}
		return ValidationError{Field: "mac", Msg: "Device MAC address is not valid."}
	default:
		return ValidationError{Field: fe.Field(), Msg: fmt.Sprintf("invalid %s", fe.Field())}
	}
}

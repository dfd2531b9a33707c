package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/catalog"
	"github.com/xenking/kart-storefront/internal/domain/notice"
	"github.com/xenking/kart-storefront/internal/domain/promo"
	"github.com/xenking/kart-storefront/internal/domain/subscription"
	"github.com/xenking/kart-storefront/internal/domain/welcome"
)

// apiError is a domain error translated for the client.
type apiError struct {
	status  int
	message string
	notice  *notice.Notice
}

func failure(title, text string) *notice.Notice {
	n := notice.Failure(title, text)
	return &n
}

func internalError(msg string) apiError {
	return apiError{
		status:  http.StatusInternalServerError,
		message: msg,
		notice:  failure("Something went wrong", "Please try again in a moment."),
	}
}

// mapCartError converts cart, catalog and promo errors.
func mapCartError(err error) apiError {
	var pnf *catalog.ProductNotFoundError
	switch {
	case errors.Is(err, errBadRequest):
		return apiError{status: http.StatusBadRequest, message: err.Error()}
	case errors.As(err, &pnf):
		return apiError{status: http.StatusNotFound, message: pnf.Error()}
	case errors.Is(err, catalog.ErrNotFound):
		return apiError{status: http.StatusNotFound, message: "product not found"}
	case errors.Is(err, catalog.ErrInvalidPrice):
		return apiError{
			status:  http.StatusUnprocessableEntity,
			message: err.Error(),
			notice:  failure("Invalid price", "This product has no valid price and was not added."),
		}
	case errors.Is(err, cart.ErrInvalidItem):
		return apiError{status: http.StatusUnprocessableEntity, message: err.Error()}
	case errors.Is(err, promo.ErrExpired):
		return apiError{
			status:  http.StatusUnprocessableEntity,
			message: "promo code expired",
			notice:  failure("Code expired", "This promo code is no longer valid."),
		}
	case errors.Is(err, promo.ErrInvalidCode):
		return apiError{
			status:  http.StatusUnprocessableEntity,
			message: "invalid promo code",
			notice:  failure("Invalid code", "That promo code does not exist."),
		}
	default:
		e := internalError("cart update failed")
		e.notice = failure("Cart not saved", "Your cart could not be saved. Please try again.")
		return e
	}
}

func mapWelcomeError(err error) apiError {
	switch {
	case errors.Is(err, errBadRequest):
		return apiError{status: http.StatusBadRequest, message: err.Error()}
	case errors.Is(err, welcome.ErrInvalidEmail):
		return apiError{
			status:  http.StatusUnprocessableEntity,
			message: "invalid email address",
			notice:  failure("Invalid email", "Please enter a valid email address."),
		}
	default:
		return internalError("signup failed")
	}
}

func mapSubscriptionError(err error) apiError {
	var upe *subscription.UnknownPlanError
	switch {
	case errors.As(err, &upe):
		return apiError{status: http.StatusNotFound, message: upe.Error()}
	case errors.Is(err, subscription.ErrUnknownPlan):
		return apiError{status: http.StatusNotFound, message: "unknown plan"}
	default:
		return internalError("subscription failed")
	}
}

// fail logs server-side errors and writes the mapped client error.
func fail(w http.ResponseWriter, r *http.Request, err error, mapErr func(error) apiError) {
	e := mapErr(err)
	if e.status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	}
	writeError(w, e.status, e.message, e.notice)
}

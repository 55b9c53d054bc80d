package errors

import (
	stdErrors "errors"

	"github.com/ticketforge/foreman-bot/internal/account"
	"github.com/ticketforge/foreman-bot/internal/amount"
	"github.com/ticketforge/foreman-bot/internal/ledger"
	"github.com/ticketforge/foreman-bot/internal/order"
	"github.com/ticketforge/foreman-bot/internal/platform"
)

// Classify maps domain sentinel errors onto the AppError taxonomy so the
// handler can pick the right user message and severity. Errors that already
// carry an AppError pass through unchanged.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stdErrors.As(err, &appErr) && appErr != nil {
		return appErr
	}

	var transportErr *platform.TransportError

	switch {
	case stdErrors.Is(err, amount.ErrInvalidAmount):
		return NewValidationError("That amount is not valid. Use a plain number or a k/m suffix, e.g. 250k or 10m.", err)
	case stdErrors.Is(err, ledger.ErrInvalidField):
		return NewValidationError("Unknown ledger field.", err)
	case stdErrors.Is(err, ledger.ErrNotFound):
		return NewDatabaseError(err)
	case stdErrors.Is(err, order.ErrMalformedThreadName):
		return NewValidationError("Could not find a valid ticket number in the thread name.", err)
	case stdErrors.Is(err, order.ErrOrderChannelNotFound):
		return NewWorkflowError("Could not find the ticket channel for this order.", err)
	case stdErrors.Is(err, order.ErrNotAWorker):
		return NewWorkflowError("The nominated member does not hold the Worker role.", err)
	case stdErrors.Is(err, order.ErrNotAThread):
		return NewWorkflowError("This command can only be used inside an order thread.", err)
	case stdErrors.Is(err, account.ErrAccountLocked):
		return NewWorkflowError("Another operation on this account is in progress. Try again in a moment.", err)
	case stdErrors.Is(err, platform.ErrForbidden):
		return NewPlatformError("permission", err)
	case stdErrors.As(err, &transportErr):
		return NewPlatformError(transportErr.Op, err)
	default:
		return nil
	}
}

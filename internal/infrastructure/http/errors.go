package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appPayment "github.com/rcarvalho-pb/payment_workflow-go/internal/application/payment"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{payment.ErrInvalidAmount, http.StatusBadRequest},
	{payment.ErrPixLimitExceeded, http.StatusBadRequest},
	{payment.ErrUnsupportedMethod, http.StatusBadRequest},
	{payment.ErrInvalidStatus, http.StatusBadRequest},
	{payment.ErrInvalidCustomerID, http.StatusBadRequest},
	{payment.ErrMissingCustomer, http.StatusBadRequest},
	{payment.ErrMissingIdempotency, http.StatusBadRequest},
	{payment.ErrMethodImmutable, http.StatusBadRequest},
	{payment.ErrPaymentNotFound, http.StatusNotFound},
	{appPayment.ErrWorkflowNotFound, http.StatusNotFound},
	{payment.ErrStatusFinal, http.StatusConflict},
	{appPayment.ErrNotCancellable, http.StatusConflict},
	{appPayment.ErrBridgeTimeout, http.StatusGatewayTimeout},
}

func statusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}

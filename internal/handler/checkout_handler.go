package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"gatherlocal/internal/app/checkout"
	"gatherlocal/internal/app/hub"
	"gatherlocal/internal/pkg/errs"
	"gatherlocal/internal/pkg/req"
	"gatherlocal/internal/pkg/resp"
)

// CallbackInput is the payment widget's answer. The provider's own success
// handler fields are accepted as-is, in which case the kind is implied.
type CallbackInput struct {
	Kind      string `json:"kind"`
	PaymentID string `json:"paymentId"`
	Message   string `json:"message"`

	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// HandleCheckoutCallback delivers the widget's answer to the waiting checkout.
func HandleCheckoutCallback(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checkoutID := strings.TrimSpace(chi.URLParam(r, "id"))
		if checkoutID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input CallbackInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		kind, paymentID := input.Kind, input.PaymentID
		if input.RazorpayPaymentID != "" {
			if kind == "" {
				kind = string(checkout.ResultPaid)
			}
			if paymentID == "" {
				paymentID = input.RazorpayPaymentID
			}
		}

		result, err := hub.ParseResult(kind, paymentID, input.Message)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		if err := deps.Checkout.Resolve(checkoutID, result); err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, result)
	}
}

package payments

import "time"

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Order is a gateway order ready to be handed to the checkout widget.
// Amount is in paise.
type Order struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

type OrderRequest struct {
	Amount        float64 `json:"amount" validate:"gt=0"`
	AppointmentID string  `json:"appointment_id" validate:"required"`
}

// Verification is what the checkout widget returns after a payment.
type Verification struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

type VerifyResult struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Payment is one entry of the payment history.
type Payment struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	AppointmentID     string    `json:"appointment_id"`
	Amount            float64   `json:"amount"`
	RazorpayOrderID   *string   `json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID *string   `json:"razorpay_payment_id,omitempty"`
	Status            string    `json:"status"`
	PaymentMode       string    `json:"payment_mode"`
	CreatedAt         time.Time `json:"created_at"`
}

// Total sums completed payments.
func Total(payments []Payment) float64 {
	var sum float64
	for _, p := range payments {
		if p.Status == StatusCompleted {
			sum += p.Amount
		}
	}
	return sum
}

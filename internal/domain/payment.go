package domain

type PaymentStatus string

const (
	PaymentSuccess   PaymentStatus = "SUCCESS"
	PaymentPending   PaymentStatus = "PENDING"
	PaymentFailure   PaymentStatus = "FAILURE"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// PaymentResult is derived from a redirect or a status query and is never stored.
type PaymentResult struct {
	Status       PaymentStatus `json:"status"`
	PaymentID    string        `json:"paymentId,omitempty"`
	PreferenceID string        `json:"preferenceId,omitempty"`
	Message      string        `json:"message"`
}

type PaymentPreference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// CheckoutURL picks the sandbox URL for test credentials and falls back to
// whichever URL the gateway returned. Empty means neither was present.
func (p PaymentPreference) CheckoutURL(sandbox bool) string {
	if sandbox && p.SandboxInitPoint != "" {
		return p.SandboxInitPoint
	}
	if p.InitPoint != "" {
		return p.InitPoint
	}
	return p.SandboxInitPoint
}

type PreferenceItem struct {
	ID          string  `json:"id,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	PictureURL  string  `json:"picture_url,omitempty"`
	CategoryID  string  `json:"category_id,omitempty"`
	Quantity    int64   `json:"quantity"`
	CurrencyID  string  `json:"currency_id"`
	UnitPrice   float64 `json:"unit_price"`
}

type BackURLs struct {
	Success string `json:"success"`
	Pending string `json:"pending"`
	Failure string `json:"failure"`
}

type Payer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	Payer             *Payer           `json:"payer,omitempty"`
	BackURLs          *BackURLs        `json:"back_urls,omitempty"`
	AutoReturn        string           `json:"auto_return,omitempty"`
	ExternalReference string           `json:"external_reference"`
}

// Payment is the subset of the gateway payment resource the service reads.
type Payment struct {
	ID                int64  `json:"id"`
	Status            string `json:"status"`
	StatusDetail      string `json:"status_detail"`
	PaymentTypeID     string `json:"payment_type_id"`
	PaymentMethodID   string `json:"payment_method_id"`
	ExternalReference string `json:"external_reference"`
	DateCreated       string `json:"date_created"`
}

// PendingCheckout is the snapshot kept in settings storage between the
// preference call and the gateway redirect.
type PendingCheckout struct {
	PreferenceID      string     `json:"preferenceId"`
	ExternalReference string     `json:"externalReference"`
	CheckoutURL       string     `json:"checkoutUrl"`
	Customer          Customer   `json:"customer"`
	Items             []CartItem `json:"items"`
}

package services

import (
	"net/url"
	"strings"

	"checkout-service/internal/domain"
)

var redirectStatuses = map[string]domain.PaymentStatus{
	"approved":     domain.PaymentSuccess,
	"aprobado":     domain.PaymentSuccess,
	"pending":      domain.PaymentPending,
	"pendiente":    domain.PaymentPending,
	"in_process":   domain.PaymentPending,
	"in_mediation": domain.PaymentPending,
	"rejected":     domain.PaymentFailure,
	"rechazado":    domain.PaymentFailure,
	"cancelled":    domain.PaymentFailure,
	"cancelado":    domain.PaymentFailure,
	"refunded":     domain.PaymentFailure,
	"reembolsado":  domain.PaymentFailure,
}

var gatewayStatuses = map[string]domain.PaymentStatus{
	"approved":     domain.PaymentSuccess,
	"authorized":   domain.PaymentPending,
	"pending":      domain.PaymentPending,
	"in_process":   domain.PaymentPending,
	"in_mediation": domain.PaymentPending,
	"rejected":     domain.PaymentFailure,
	"cancelled":    domain.PaymentFailure,
	"refunded":     domain.PaymentFailure,
	"charged_back": domain.PaymentFailure,
}

// Path markers, checked in this order.
var pathMarkers = []struct {
	marker string
	status domain.PaymentStatus
}{
	{"success", domain.PaymentSuccess},
	{"pending", domain.PaymentPending},
	{"failure", domain.PaymentFailure},
}

var rejectionMessages = map[string]string{
	"cc_rejected_insufficient_amount":     "Tu tarjeta no tiene fondos suficientes para completar la compra.",
	"cc_rejected_bad_filled_security_code": "El código de seguridad de la tarjeta es incorrecto.",
	"cc_rejected_bad_filled_date":          "La fecha de vencimiento de la tarjeta es incorrecta.",
	"cc_rejected_bad_filled_card_number":   "El número de la tarjeta es incorrecto.",
	"cc_rejected_call_for_authorize":       "Debes autorizar el pago con tu banco antes de intentarlo de nuevo.",
	"cc_rejected_duplicated_payment":       "Ya realizaste un pago por este mismo valor. Si necesitas pagar de nuevo, usa otra tarjeta u otro medio de pago.",
}

const (
	msgApproved        = "¡Pago aprobado! Tu pedido fue registrado."
	msgPending         = "Tu pago está pendiente de confirmación. Te avisaremos cuando se acredite."
	msgPendingOffline  = "Tu pago está pendiente. Completa el pago en un punto físico autorizado (efectivo o cajero) para confirmar tu pedido."
	msgPendingTransfer = "Tu transferencia bancaria está en proceso. Te avisaremos cuando se acredite."
	msgRejected        = "El pago fue rechazado. Intenta de nuevo con otro medio de pago."
	msgUndetermined    = "No se pudo determinar el resultado del pago. Si realizaste el pago, consulta su estado en unos minutos."
	msgNotCompleted    = "El pago no se completó"
)

// ClassifyResult maps the deep link the gateway fires at the end of checkout
// to an outcome. It never fails: anything it cannot read becomes CANCELLED.
func ClassifyResult(uri string) domain.PaymentResult {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return domain.PaymentResult{Status: domain.PaymentCancelled, Message: msgUndetermined}
	}
	q := u.Query()

	res := domain.PaymentResult{
		PaymentID:    param(q, "payment_id", "collection_id"),
		PreferenceID: param(q, "preference_id"),
	}

	rawStatus := strings.ToLower(param(q, "status", "collection_status"))
	status, known := redirectStatuses[rawStatus]
	if !known {
		status, known = statusFromPath(u)
	}

	switch {
	case known:
		res.Status = status
	case rawStatus != "":
		res.Status = domain.PaymentCancelled
		res.Message = msgNotCompleted + " (estado: " + rawStatus + ")."
		return res
	default:
		res.Status = domain.PaymentCancelled
		res.Message = msgUndetermined
		return res
	}

	res.Message = BuildPaymentMessage(res.Status, param(q, "payment_type_id"), param(q, "error", "status_detail"), param(q, "error_description"))
	return res
}

// OutcomeForGatewayStatus maps a payment resource status; unknown → CANCELLED.
func OutcomeForGatewayStatus(status string) domain.PaymentStatus {
	if s, ok := gatewayStatuses[strings.ToLower(status)]; ok {
		return s
	}
	return domain.PaymentCancelled
}

// BuildPaymentMessage produces the user-facing explanation for an outcome.
// Unknown payment types and error codes fall back to the generic text.
func BuildPaymentMessage(status domain.PaymentStatus, paymentType, errorCode, errorDescription string) string {
	switch status {
	case domain.PaymentSuccess:
		return msgApproved
	case domain.PaymentPending:
		switch strings.ToLower(paymentType) {
		case "ticket", "atm":
			return msgPendingOffline
		case "bank_transfer":
			return msgPendingTransfer
		}
		return msgPending
	case domain.PaymentFailure:
		if m, ok := rejectionMessages[strings.ToLower(errorCode)]; ok {
			return m
		}
		if errorDescription != "" {
			return msgRejected + " Detalle: " + errorDescription
		}
		return msgRejected
	default:
		return msgNotCompleted + "."
	}
}

func statusFromPath(u *url.URL) (domain.PaymentStatus, bool) {
	// Custom-scheme links put the first segment in Host ("app://payment-pending").
	p := strings.ToLower(u.Host + u.Path + u.Opaque)
	for _, m := range pathMarkers {
		if strings.Contains(p, m.marker) {
			return m.status, true
		}
	}
	return "", false
}

// param returns the first non-empty value among keys; "null" counts as empty.
func param(q url.Values, keys ...string) string {
	for _, k := range keys {
		v := strings.TrimSpace(q.Get(k))
		if v != "" && !strings.EqualFold(v, "null") {
			return v
		}
	}
	return ""
}

package enums

import "fmt"

// PaymentMethod captures how a dispensary pays for a wholesale order.
type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodACH        PaymentMethod = "ach"
	PaymentMethodCheck      PaymentMethod = "check"
	PaymentMethodOther      PaymentMethod = "other"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodACH,
	PaymentMethodCheck,
	PaymentMethodOther,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}

// PaymentTerms captures the agreed settlement window for an order.
type PaymentTerms string

const (
	PaymentTermsNet15        PaymentTerms = "net_15"
	PaymentTermsNet30        PaymentTerms = "net_30"
	PaymentTermsNet60        PaymentTerms = "net_60"
	PaymentTermsDueOnReceipt PaymentTerms = "due_on_receipt"
	PaymentTermsPrepaid      PaymentTerms = "prepaid"
)

var validPaymentTerms = []PaymentTerms{
	PaymentTermsNet15,
	PaymentTermsNet30,
	PaymentTermsNet60,
	PaymentTermsDueOnReceipt,
	PaymentTermsPrepaid,
}

// String implements fmt.Stringer.
func (p PaymentTerms) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentTerms.
func (p PaymentTerms) IsValid() bool {
	for _, candidate := range validPaymentTerms {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentTerms converts raw input into a PaymentTerms.
func ParsePaymentTerms(value string) (PaymentTerms, error) {
	for _, candidate := range validPaymentTerms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment terms %q", value)
}

// PaymentStatus tracks the settlement lifecycle of a wholesale order.
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusOverdue       PaymentStatus = "overdue"
	PaymentStatusCancelled     PaymentStatus = "cancelled"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusPartiallyPaid,
	PaymentStatusOverdue,
	PaymentStatusCancelled,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// CanTransitionTo reports whether an order's payment status may move to target.
// Orders start Pending; Paid and Cancelled are terminal.
func (p PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	if !target.IsValid() || p == target {
		return false
	}
	switch p {
	case PaymentStatusPending:
		return true
	case PaymentStatusPartiallyPaid, PaymentStatusOverdue:
		return target != PaymentStatusPending
	default:
		return false
	}
}

package domain

// Flag codes attached to assessments. Stored verbatim on the order row
// so operators can read them back without a lookup table.
const (
	FlagNewUser24h            = "NEW_USER_24H"
	FlagNewUser7d             = "NEW_USER_7D"
	FlagEmailNotVerified      = "EMAIL_NOT_VERIFIED"
	FlagFirstOrder            = "FIRST_ORDER"
	FlagPriorPaymentFailures  = "PRIOR_PAYMENT_FAILURES"
	FlagFrequentCancellations = "FREQUENT_CANCELLATIONS"
	FlagHighOrderValue        = "HIGH_ORDER_VALUE"
	FlagElevatedOrderValue    = "ELEVATED_ORDER_VALUE"
	FlagAboveCustomerAverage  = "VALUE_ABOVE_CUSTOMER_AVERAGE"
	FlagAboveCustomerMax      = "VALUE_ABOVE_CUSTOMER_MAX"
	FlagHighFrequencyHour     = "HIGH_FREQUENCY_1H"
	FlagElevatedFrequencyHour = "ELEVATED_FREQUENCY_1H"
	FlagHighFrequencyDay      = "HIGH_FREQUENCY_24H"
	FlagElevatedFrequencyDay  = "ELEVATED_FREQUENCY_24H"
	FlagPaymentFailed         = "PAYMENT_FAILED"
	FlagPaymentPending        = "PAYMENT_PENDING"
	FlagPaymentUnknown        = "PAYMENT_STATUS_UNKNOWN"
	FlagLargeItemQuantity     = "LARGE_ITEM_QUANTITY"
	FlagElevatedItemQuantity  = "ELEVATED_ITEM_QUANTITY"
	FlagPriceInconsistency    = "PRICE_INCONSISTENCY"
	FlagRapidRepeatOrders     = "RAPID_REPEAT_ORDERS"
	FlagDuplicatePattern      = "DUPLICATE_ORDER_PATTERN"

	FlagAccountCheckError   = "ACCOUNT_CHECK_ERROR"
	FlagHistoryCheckError   = "HISTORY_CHECK_ERROR"
	FlagValueCheckError     = "VALUE_CHECK_ERROR"
	FlagFrequencyCheckError = "FREQUENCY_CHECK_ERROR"
	FlagPatternCheckError   = "PATTERN_CHECK_ERROR"
	FlagVerificationError   = "VERIFICATION_ERROR"
)

// Recommendation codes derived deterministically from fired flags.
const (
	RecommendEmailVerification   = "REQUIRE_EMAIL_VERIFICATION"
	RecommendAccountVerification = "REQUIRE_ACCOUNT_VERIFICATION"
	RecommendRateLimit           = "RATE_LIMIT_CUSTOMER"
	RecommendManualReview        = "HOLD_FOR_MANUAL_REVIEW"
)

// LineItem is the scoring view of one order line.
type LineItem struct {
	ProductID string
	Quantity  int
	UnitPrice float64
}

// Snapshot is the immutable order view handed to the scoring engine at
// creation time. Evaluators never mutate it.
type Snapshot struct {
	OrderID       string
	CustomerID    string
	Total         float64
	PaymentStatus string
	Items         []LineItem
}

// ItemCount sums line quantities.
func (s Snapshot) ItemCount() int {
	total := 0
	for _, item := range s.Items {
		total += item.Quantity
	}
	return total
}

// Assessment is the scored, flagged, classified verdict for one order.
type Assessment struct {
	OrderID         string
	Score           int
	Flags           []string
	AutoApprove     bool
	Valid           bool
	Recommendations []string
}

// HasFlag reports whether the given code fired.
func (a Assessment) HasFlag(code string) bool {
	for _, flag := range a.Flags {
		if flag == code {
			return true
		}
	}
	return false
}

// ClampScore bounds a raw evaluator sum to the [0,100] scale.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

package application

// Config carries the scoring policy. It is an immutable value passed
// into the engine so tests can vary thresholds without process-wide
// side effects. The 30/70 classification cut-offs and the evaluator
// weights are operational policy, not derived domain truths.
type Config struct {
	// AutoApproveMax is the highest score still auto-approved.
	AutoApproveMax int
	// ReviewThreshold is the lowest score held for manual review.
	ReviewThreshold int
	// CheckErrorPenalty is added when an evaluator cannot read its
	// dependency.
	CheckErrorPenalty int
	// BatchChunkSize bounds concurrent assessments per batch chunk.
	BatchChunkSize int

	Weights Weights
}

// Weights are the per-signal score contributions.
type Weights struct {
	NewAccount24h         int
	NewAccount7d          int
	UnverifiedEmail       int
	FirstOrder            int
	PerPaymentFailure     int
	FrequentCancellations int

	HighValue            int
	ElevatedValue        int
	AboveCustomerAverage int
	AboveCustomerMax     int

	HourlyBurst    int
	HourlyElevated int
	DailyBurst     int
	DailyElevated  int

	PaymentFailed  int
	PaymentPending int
	PaymentUnknown int

	LargeQuantity      int
	ElevatedQuantity   int
	PriceInconsistency int

	RapidRepeat      int
	DuplicatePattern int
}

// DefaultConfig returns the production policy.
func DefaultConfig() Config {
	return Config{
		AutoApproveMax:    30,
		ReviewThreshold:   70,
		CheckErrorPenalty: 10,
		BatchChunkSize:    50,
		Weights: Weights{
			NewAccount24h:         20,
			NewAccount7d:          10,
			UnverifiedEmail:       15,
			FirstOrder:            10,
			PerPaymentFailure:     5,
			FrequentCancellations: 10,

			HighValue:            20,
			ElevatedValue:        10,
			AboveCustomerAverage: 15,
			AboveCustomerMax:     10,

			HourlyBurst:    30,
			HourlyElevated: 15,
			DailyBurst:     25,
			DailyElevated:  10,

			PaymentFailed:  40,
			PaymentPending: 5,
			PaymentUnknown: 20,

			LargeQuantity:      15,
			ElevatedQuantity:   5,
			PriceInconsistency: 10,

			RapidRepeat:      25,
			DuplicatePattern: 20,
		},
	}
}

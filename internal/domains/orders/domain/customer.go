package domain

import "time"

// Customer is a read model sourced from the account system. The engine
// only ever reads it for risk evaluation.
type Customer struct {
	ID            string
	Email         string
	EmailVerified bool
	CreatedAt     time.Time
}

// AccountAge reports how long the account has existed at the given instant.
func (c *Customer) AccountAge(now time.Time) time.Duration {
	return now.Sub(c.CreatedAt)
}

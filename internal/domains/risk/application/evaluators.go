package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/domain"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/ports"
)

// Trigger thresholds for the individual signals.
const (
	newAccountWindow  = 24 * time.Hour
	youngAccountWindow = 7 * 24 * time.Hour

	highValueTotal     = 1000.0
	elevatedValueTotal = 500.0
	averageMultiplier  = 3.0
	maximumMultiplier  = 2.0

	hourlyBurstCount    = 10
	hourlyElevatedCount = 5
	dailyBurstCount     = 20
	dailyElevatedCount  = 10

	cancellationLimit = 2

	largeQuantity      = 50
	elevatedQuantity   = 20
	priceVariationLimit = 0.5

	patternWindow     = 10 * time.Minute
	patternOrderLimit = 3
)

// contribution is one evaluator's non-negative score plus fired flags.
type contribution struct {
	score int
	flags []string
}

func (c *contribution) add(score int, flag string) {
	c.score += score
	c.flags = append(c.flags, flag)
}

// evaluator turns one facet of the snapshot into a contribution. A
// returned error means the signal's dependency was unreadable; the
// engine substitutes a fixed penalty plus errFlag.
type evaluator struct {
	name    string
	errFlag string
	run     func(ctx context.Context, snap domain.Snapshot) (contribution, error)
}

func (e *Engine) evaluators() []evaluator {
	return []evaluator{
		{name: "account", errFlag: domain.FlagAccountCheckError, run: e.evaluateAccount},
		{name: "history", errFlag: domain.FlagHistoryCheckError, run: e.evaluateHistory},
		{name: "order_value", errFlag: domain.FlagValueCheckError, run: e.evaluateOrderValue},
		{name: "frequency", errFlag: domain.FlagFrequencyCheckError, run: e.evaluateFrequency},
		{name: "payment_state", errFlag: "", run: e.evaluatePaymentState},
		{name: "product_mix", errFlag: "", run: e.evaluateProductMix},
		{name: "pattern", errFlag: domain.FlagPatternCheckError, run: e.evaluatePattern},
	}
}

// evaluateAccount scores account age and email verification.
func (e *Engine) evaluateAccount(ctx context.Context, snap domain.Snapshot) (contribution, error) {
	var c contribution
	customer, err := e.customers.GetCustomer(ctx, snap.CustomerID)
	if err != nil {
		return c, fmt.Errorf("load customer %s: %w", snap.CustomerID, err)
	}
	age := e.now().Sub(customer.CreatedAt)
	switch {
	case age < newAccountWindow:
		c.add(e.cfg.Weights.NewAccount24h, domain.FlagNewUser24h)
	case age < youngAccountWindow:
		c.add(e.cfg.Weights.NewAccount7d, domain.FlagNewUser7d)
	}
	if !customer.EmailVerified {
		c.add(e.cfg.Weights.UnverifiedEmail, domain.FlagEmailNotVerified)
	}
	return c, nil
}

// evaluateHistory scores the customer's own order track record.
func (e *Engine) evaluateHistory(ctx context.Context, snap domain.Snapshot) (contribution, error) {
	var c contribution
	prior, err := e.priorOrders(ctx, snap)
	if err != nil {
		return c, err
	}
	if len(prior) == 0 {
		c.add(e.cfg.Weights.FirstOrder, domain.FlagFirstOrder)
		return c, nil
	}
	failures := 0
	cancellations := 0
	for _, digest := range prior {
		if digest.PaymentStatus == "failed" {
			failures++
		}
		if digest.OrderStatus == "cancelled" {
			cancellations++
		}
	}
	if failures > 0 {
		c.add(failures*e.cfg.Weights.PerPaymentFailure, domain.FlagPriorPaymentFailures)
	}
	if cancellations > cancellationLimit {
		c.add(e.cfg.Weights.FrequentCancellations, domain.FlagFrequentCancellations)
	}
	return c, nil
}

// evaluateOrderValue scores the absolute total and its deviation from
// the customer's paid history.
func (e *Engine) evaluateOrderValue(ctx context.Context, snap domain.Snapshot) (contribution, error) {
	var c contribution
	switch {
	case snap.Total > highValueTotal:
		c.add(e.cfg.Weights.HighValue, domain.FlagHighOrderValue)
	case snap.Total > elevatedValueTotal:
		c.add(e.cfg.Weights.ElevatedValue, domain.FlagElevatedOrderValue)
	}

	prior, err := e.priorOrders(ctx, snap)
	if err != nil {
		return c, err
	}
	var paidSum, paidMax float64
	paidCount := 0
	for _, digest := range prior {
		if digest.PaymentStatus != "paid" {
			continue
		}
		paidCount++
		paidSum += digest.Total
		if digest.Total > paidMax {
			paidMax = digest.Total
		}
	}
	if paidCount == 0 {
		return c, nil
	}
	if average := paidSum / float64(paidCount); snap.Total > average*averageMultiplier {
		c.add(e.cfg.Weights.AboveCustomerAverage, domain.FlagAboveCustomerAverage)
	}
	if snap.Total > paidMax*maximumMultiplier {
		c.add(e.cfg.Weights.AboveCustomerMax, domain.FlagAboveCustomerMax)
	}
	return c, nil
}

// evaluateFrequency scores hourly and daily order rates.
func (e *Engine) evaluateFrequency(ctx context.Context, snap domain.Snapshot) (contribution, error) {
	var c contribution
	prior, err := e.priorOrders(ctx, snap)
	if err != nil {
		return c, err
	}
	now := e.now()
	lastHour := 0
	lastDay := 0
	for _, digest := range prior {
		age := now.Sub(digest.CreatedAt)
		if age <= time.Hour {
			lastHour++
		}
		if age <= 24*time.Hour {
			lastDay++
		}
	}
	switch {
	case lastHour >= hourlyBurstCount:
		c.add(e.cfg.Weights.HourlyBurst, domain.FlagHighFrequencyHour)
	case lastHour >= hourlyElevatedCount:
		c.add(e.cfg.Weights.HourlyElevated, domain.FlagElevatedFrequencyHour)
	}
	switch {
	case lastDay >= dailyBurstCount:
		c.add(e.cfg.Weights.DailyBurst, domain.FlagHighFrequencyDay)
	case lastDay >= dailyElevatedCount:
		c.add(e.cfg.Weights.DailyElevated, domain.FlagElevatedFrequencyDay)
	}
	return c, nil
}

// evaluatePaymentState scores the payment status captured in the
// snapshot. Pure; cannot fail.
func (e *Engine) evaluatePaymentState(_ context.Context, snap domain.Snapshot) (contribution, error) {
	var c contribution
	switch snap.PaymentStatus {
	case "paid":
	case "failed":
		c.add(e.cfg.Weights.PaymentFailed, domain.FlagPaymentFailed)
	case "pending":
		c.add(e.cfg.Weights.PaymentPending, domain.FlagPaymentPending)
	default:
		c.add(e.cfg.Weights.PaymentUnknown, domain.FlagPaymentUnknown)
	}
	return c, nil
}

// evaluateProductMix scores line quantity and unit-price spread. Pure.
func (e *Engine) evaluateProductMix(_ context.Context, snap domain.Snapshot) (contribution, error) {
	var c contribution
	switch quantity := snap.ItemCount(); {
	case quantity > largeQuantity:
		c.add(e.cfg.Weights.LargeQuantity, domain.FlagLargeItemQuantity)
	case quantity > elevatedQuantity:
		c.add(e.cfg.Weights.ElevatedQuantity, domain.FlagElevatedItemQuantity)
	}
	if priceVariation(snap.Items) > priceVariationLimit {
		c.add(e.cfg.Weights.PriceInconsistency, domain.FlagPriceInconsistency)
	}
	return c, nil
}

// evaluatePattern scores rapid repeats and duplicate order signatures
// within the trailing window.
func (e *Engine) evaluatePattern(ctx context.Context, snap domain.Snapshot) (contribution, error) {
	var c contribution
	prior, err := e.priorOrders(ctx, snap)
	if err != nil {
		return c, err
	}
	now := e.now()
	signatures := map[string]int{signature(snap.Total, snap.ItemCount()): 1}
	recent := 0
	duplicate := false
	for _, digest := range prior {
		if now.Sub(digest.CreatedAt) > patternWindow {
			continue
		}
		recent++
		key := signature(digest.Total, digest.ItemCount)
		signatures[key]++
		if signatures[key] > 1 {
			duplicate = true
		}
	}
	if recent > patternOrderLimit {
		c.add(e.cfg.Weights.RapidRepeat, domain.FlagRapidRepeatOrders)
	}
	if recent > 0 && duplicate {
		c.add(e.cfg.Weights.DuplicatePattern, domain.FlagDuplicatePattern)
	}
	return c, nil
}

// priorOrders loads the customer's order history excluding the order
// under assessment, which may already be visible to the data layer.
func (e *Engine) priorOrders(ctx context.Context, snap domain.Snapshot) ([]ports.OrderDigest, error) {
	orders, err := e.history.CustomerOrders(ctx, snap.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load order history for %s: %w", snap.CustomerID, err)
	}
	prior := orders[:0:0]
	for _, digest := range orders {
		if digest.ID != snap.OrderID {
			prior = append(prior, digest)
		}
	}
	return prior, nil
}

// priceVariation is the coefficient of variation of line unit prices.
// Needs at least two lines and a positive mean to be meaningful.
func priceVariation(items []domain.LineItem) float64 {
	if len(items) < 2 {
		return 0
	}
	var sum float64
	for _, item := range items {
		sum += item.UnitPrice
	}
	mean := sum / float64(len(items))
	if mean <= 0 {
		return 0
	}
	var variance float64
	for _, item := range items {
		diff := item.UnitPrice - mean
		variance += diff * diff
	}
	variance /= float64(len(items))
	return math.Sqrt(variance) / mean
}

func signature(total float64, itemCount int) string {
	return fmt.Sprintf("%.2f|%d", total, itemCount)
}

// Package provider adapts the label provider's HTTP client to the
// fulfillment orchestrator's vocabulary.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/clients/http/shippo"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/domain"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/ports"
)

var _ ports.Provider = (*ShippoProvider)(nil)

// ShippoProvider maps provider objects onto the domain vocabulary.
type ShippoProvider struct {
	client *shippo.Client
}

func NewShippoProvider(client *shippo.Client) *ShippoProvider {
	return &ShippoProvider{client: client}
}

func (p *ShippoProvider) ValidateAddress(ctx context.Context, addr domain.Address) (domain.Address, error) {
	resp, err := p.client.ValidateAddress(ctx, toClientAddress(addr))
	if err != nil {
		return domain.Address{}, mapClientError(err)
	}
	if resp.ValidationResult != nil && !resp.ValidationResult.IsValid {
		return domain.Address{}, fmt.Errorf("%w: %s", ports.ErrInvalidAddress, validationMessages(resp.ValidationResult))
	}
	return toDomainAddress(*resp), nil
}

func (p *ShippoProvider) CreateShipment(ctx context.Context, from, to domain.Address, parcel domain.Parcel) (ports.Shipment, error) {
	resp, err := p.client.CreateShipment(ctx, toClientAddress(from), toClientAddress(to), toClientParcel(parcel))
	if err != nil {
		return ports.Shipment{}, mapClientError(err)
	}
	rates := make([]domain.Rate, 0, len(resp.Rates))
	for _, rate := range resp.Rates {
		rates = append(rates, toDomainRate(rate))
	}
	return ports.Shipment{ID: resp.ObjectID, Rates: rates}, nil
}

func (p *ShippoProvider) PurchaseLabel(ctx context.Context, rateID string) (domain.Transaction, error) {
	resp, err := p.client.PurchaseLabel(ctx, rateID)
	if err != nil {
		return domain.Transaction{}, mapClientError(err)
	}
	return toDomainTransaction(*resp), nil
}

func (p *ShippoProvider) GetTransaction(ctx context.Context, transactionID string) (domain.Transaction, error) {
	resp, err := p.client.GetTransaction(ctx, transactionID)
	if err != nil {
		return domain.Transaction{}, mapClientError(err)
	}
	return toDomainTransaction(*resp), nil
}

func toClientAddress(addr domain.Address) shippo.Address {
	return shippo.Address{
		Name:    addr.Name,
		Street1: addr.Street1,
		Street2: addr.Street2,
		City:    addr.City,
		State:   addr.State,
		Zip:     addr.Zip,
		Country: addr.Country,
		Email:   addr.Email,
		Phone:   addr.Phone,
	}
}

func toDomainAddress(addr shippo.Address) domain.Address {
	return domain.Address{
		Name:    addr.Name,
		Street1: addr.Street1,
		Street2: addr.Street2,
		City:    addr.City,
		State:   addr.State,
		Zip:     addr.Zip,
		Country: addr.Country,
		Email:   addr.Email,
		Phone:   addr.Phone,
	}
}

func toClientParcel(parcel domain.Parcel) shippo.Parcel {
	return shippo.Parcel{
		Length:       formatMeasure(parcel.Length),
		Width:        formatMeasure(parcel.Width),
		Height:       formatMeasure(parcel.Height),
		DistanceUnit: "in",
		Weight:       formatMeasure(parcel.Weight),
		MassUnit:     "oz",
	}
}

func toDomainRate(rate shippo.Rate) domain.Rate {
	amount, _ := strconv.ParseFloat(rate.Amount, 64)
	return domain.Rate{
		ID:            rate.ObjectID,
		Carrier:       rate.Provider,
		ServiceLevel:  rate.ServiceLevel.Name,
		Amount:        amount,
		Currency:      rate.Currency,
		EstimatedDays: rate.EstimatedDays,
	}
}

func toDomainTransaction(tx shippo.Transaction) domain.Transaction {
	messages := make([]string, 0, len(tx.Messages))
	for _, m := range tx.Messages {
		if m.Text != "" {
			messages = append(messages, m.Text)
		}
	}
	return domain.Transaction{
		ID:             tx.ObjectID,
		Status:         mapTransactionStatus(tx.Status),
		TrackingNumber: tx.TrackingNumber,
		TrackingURL:    tx.TrackingURL,
		LabelURL:       tx.LabelURL,
		ShipmentID:     tx.ShipmentID,
		Rate:           toDomainRate(tx.Rate),
		Messages:       messages,
	}
}

func mapTransactionStatus(status string) domain.TransactionStatus {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "SUCCESS":
		return domain.TransactionSuccess
	case "ERROR":
		return domain.TransactionError
	default:
		return domain.TransactionQueued
	}
}

func validationMessages(result *shippo.ValidationResult) string {
	parts := make([]string, 0, len(result.Messages))
	for _, m := range result.Messages {
		if m.Text != "" {
			parts = append(parts, m.Text)
		}
	}
	if len(parts) == 0 {
		return "address rejected by provider"
	}
	return strings.Join(parts, "; ")
}

func mapClientError(err error) error {
	if errors.Is(err, shippo.ErrNotFound) {
		return ports.ErrShipmentNotFound
	}
	return err
}

func formatMeasure(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package server

import (
	"context"
	"errors"

	"gymdesk/internal/apperr"
	"gymdesk/internal/member"
	"gymdesk/internal/payment"
)

// memberDirectory lets the payment ledger look up payers and renew their
// sessions without importing the member package's service directly.
type memberDirectory struct {
	members member.Service
}

func (d memberDirectory) FindMember(ctx context.Context, id string) (*payment.Payer, error) {
	m, err := d.members.Get(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment.Payer{ID: m.ID, Name: m.Name, ImageURL: m.ImageURL, Email: m.Email}, nil
}

func (d memberDirectory) ResetSessions(ctx context.Context, id string) (apperr.Warnings, error) {
	_, warnings, err := d.members.ResetSessions(ctx, id)
	return warnings, err
}

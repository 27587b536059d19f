package service

import "errors"

var (
	ErrInvalidPayload      = errors.New("invalid webhook payload")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrMissingReference    = errors.New("provider payment has no external_reference")
	ErrPayoutsExist        = errors.New("payouts already exist for order")
	ErrMalformedItems      = errors.New("order has malformed line items")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrTrackingRequired    = errors.New("tracking number required to ship")
	ErrNotOrderSeller      = errors.New("seller has no items in order")
)

package service

import (
	"beautypro-payments/internal/model"
	"beautypro-payments/internal/repository"
	"slices"
)

const providerStatusApproved = "approved"

// MapProviderStatus maps a provider payment status to the local order and payment states.
func MapProviderStatus(providerStatus string) (model.OrderStatus, model.PaymentStatus) {
	switch providerStatus {
	case "approved":
		return model.OrderConfirmed, model.PaymentCompleted
	case "pending", "in_process":
		return model.OrderPending, model.PaymentPending
	case "rejected", "cancelled":
		return model.OrderCancelled, model.PaymentFailed
	default:
		return model.OrderPending, model.PaymentPending
	}
}

// webhookSources lists the states from which a payment webhook may move an order to to.
// Orders that already progressed are never moved back by a late delivery.
func webhookSources(to model.OrderStatus) []model.OrderStatus {
	switch to {
	case model.OrderConfirmed:
		return []model.OrderStatus{model.OrderPending, model.OrderCancelled}
	case model.OrderCancelled, model.OrderPending:
		return []model.OrderStatus{model.OrderPending}
	}
	return nil
}

// resolvePaymentStatus keeps a completed payment completed.
func resolvePaymentStatus(current *model.Payment, next model.PaymentStatus) model.PaymentStatus {
	if current != nil && current.Status == model.PaymentCompleted {
		return model.PaymentCompleted
	}
	return next
}

var fulfillmentSources = map[model.OrderStatus][]model.OrderStatus{
	model.OrderProcessing: {model.OrderConfirmed},
	model.OrderShipped:    {model.OrderProcessing},
	model.OrderDelivered:  {model.OrderShipped},
}

func isPaid(status model.OrderStatus) bool {
	return slices.Contains(repository.PaidOrderStatuses, status)
}

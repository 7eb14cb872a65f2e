package pubsub

// DropRate returns the overall drop rate as a fraction (0.0 to 1.0).
// Returns 0.0 if nothing has been delivered or dropped yet.
func DropRate(stats Stats) float64 {
	total := stats.TotalDelivered + stats.TotalDropped
	if total == 0 {
		return 0.0
	}
	return float64(stats.TotalDropped) / float64(total)
}

// SubscriptionDropRate returns the drop rate for a single subscription.
// Returns 0.0 if the subscription is unknown or has no activity yet.
func SubscriptionDropRate(stats Stats, subscriptionID string) float64 {
	sub, exists := stats.Subscriptions[subscriptionID]
	if !exists {
		return 0.0
	}

	total := sub.Delivered + sub.Dropped
	if total == 0 {
		return 0.0
	}
	return float64(sub.Dropped) / float64(total)
}

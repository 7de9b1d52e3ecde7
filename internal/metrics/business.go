package metrics

// SlotRejected records a team slot change refused by quota or cooldown.
func SlotRejected(reason string) {
	TeamSlotRejections.WithLabelValues(reason).Inc()
}

// CreditAttempt records the outcome of a credit consumption.
func CreditAttempt(debited bool) {
	status := "denied"
	if debited {
		status = "debited"
	}
	CreditsConsumed.WithLabelValues(status).Inc()
}

// RoleChanged records a role transition.
func RoleChanged(from, to string) {
	RoleChanges.WithLabelValues(from, to).Inc()
}

// AccountDeleted records how an account deletion ended.
func AccountDeleted(status string) {
	AccountsDeleted.WithLabelValues(status).Inc()
}

// CacheLookup records a sports data cache lookup.
func CacheLookup(result string) {
	SportsCacheLookups.WithLabelValues(result).Inc()
}

// EventPublished records a published (or dropped) domain event.
func EventPublished(event string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EventsPublished.WithLabelValues(event, status).Inc()
}

package health

import "time"

func NewHealthy(component, message string) Status {
	return newStatus(component, "healthy", message)
}

func NewUnhealthy(component, message string) Status {
	return newStatus(component, "unhealthy", message)
}

func NewDegraded(component, message string) Status {
	return newStatus(component, "degraded", message)
}

func newStatus(component, status, message string) Status {
	return Status{
		Component: component,
		Healthy:   status == "healthy",
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Aggregate folds sub-statuses into one: unhealthy wins over degraded, which
// wins over healthy. No sub-statuses is healthy.
func Aggregate(component string, subStatuses []Status) Status {
	if len(subStatuses) == 0 {
		return NewHealthy(component, "No sub-components to aggregate")
	}

	hasUnhealthy := false
	hasDegraded := false
	for _, sub := range subStatuses {
		switch {
		case sub.IsUnhealthy():
			hasUnhealthy = true
		case sub.IsDegraded():
			hasDegraded = true
		}
	}

	var status Status
	switch {
	case hasUnhealthy:
		status = NewUnhealthy(component, "One or more sub-components are unhealthy")
	case hasDegraded:
		status = NewDegraded(component, "One or more sub-components are degraded")
	default:
		status = NewHealthy(component, "All sub-components are healthy")
	}

	status.SubStatuses = make([]Status, len(subStatuses))
	copy(status.SubStatuses, subStatuses)
	return status
}

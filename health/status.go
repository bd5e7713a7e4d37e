package health

import "time"

// Well-known status values.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Status is the reported health of one subsystem.
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
}

// NewHealthy builds a healthy status.
func NewHealthy(component, message string) Status {
	return Status{
		Component: component,
		Healthy:   true,
		Status:    StatusHealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewDegraded builds a degraded status.
func NewDegraded(component, message string) Status {
	return Status{
		Component: component,
		Status:    StatusDegraded,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewUnhealthy builds an unhealthy status.
func NewUnhealthy(component, message string) Status {
	return Status{
		Component: component,
		Status:    StatusUnhealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// IsHealthy reports whether the status is healthy.
func (s Status) IsHealthy() bool {
	return s.Status == StatusHealthy
}

// IsDegraded reports whether the status is degraded.
func (s Status) IsDegraded() bool {
	return s.Status == StatusDegraded
}

// IsUnhealthy reports whether the status is unhealthy.
func (s Status) IsUnhealthy() bool {
	return s.Status == StatusUnhealthy
}

// Aggregate folds member statuses into one system status. Unhealthy
// dominates degraded, which dominates healthy. No members means
// healthy.
func Aggregate(systemName string, members []Status) Status {
	agg := NewHealthy(systemName, "all components healthy")
	agg.SubStatuses = members

	degraded := 0
	unhealthy := 0
	for _, m := range members {
		switch {
		case m.IsUnhealthy():
			unhealthy++
		case m.IsDegraded():
			degraded++
		}
	}
	switch {
	case unhealthy > 0:
		agg.Healthy = false
		agg.Status = StatusUnhealthy
		agg.Message = "one or more components unhealthy"
	case degraded > 0:
		agg.Healthy = false
		agg.Status = StatusDegraded
		agg.Message = "one or more components degraded"
	}
	return agg
}

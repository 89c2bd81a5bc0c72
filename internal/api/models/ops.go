package models

import (
	"github.com/airpulse/airpulse/internal/featureflags"
	"github.com/airpulse/airpulse/internal/provider/resilience"
)

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status     HealthStatus      `json:"status"`
	Time       Timestamp         `json:"time"`
	Subsystems []SubsystemStatus `json:"subsystems"`
	Providers  []ProviderStatus  `json:"providers"`
}

// SubsystemStatus represents the status of a subsystem.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}

// ProviderStatus represents the status of an upstream provider.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	Message       *string      `json:"message,omitempty"`
}

// NewProviderStatus converts a registry health snapshot.
func NewProviderStatus(h *resilience.ProviderHealth) ProviderStatus {
	status := ProviderStatus{
		Provider:     h.Name,
		Status:       HealthStatusOK,
		CircuitState: h.CircuitState.String(),
	}
	switch {
	case h.IsUnhealthy():
		status.Status = HealthStatusFail
	case h.IsDegraded():
		status.Status = HealthStatusDegraded
	}
	if h.LastSuccessAt != nil {
		status.LastSuccessAt = timestampPtr(*h.LastSuccessAt)
	}
	if h.LastFailureAt != nil {
		status.LastFailureAt = timestampPtr(*h.LastFailureAt)
	}
	if h.LastError != "" {
		msg := h.LastError
		status.Message = &msg
	}
	return status
}

// FeatureFlag is a flag as listed by GET /api/ops/flags.
type FeatureFlag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt *Timestamp  `json:"updatedAt,omitempty"`
}

// FeatureFlags is the response of GET /api/ops/flags.
type FeatureFlags struct {
	Flags map[string]FeatureFlag `json:"flags"`
}

// NewFeatureFlags converts the service's flag set.
func NewFeatureFlags(flags map[string]*featureflags.Flag) FeatureFlags {
	out := FeatureFlags{Flags: make(map[string]FeatureFlag, len(flags))}
	for key, f := range flags {
		if f == nil {
			continue
		}
		out.Flags[key] = FeatureFlag{Key: key, Value: f.Value, UpdatedAt: timestampPtr(f.UpdatedAt)}
	}
	return out
}

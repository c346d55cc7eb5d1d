package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestCapabilityString(t *testing.T) {
	assert.Equal(t, "unknown", CapabilityUnknown.String())
	assert.Equal(t, "supported", CapabilitySupported.String())
	assert.Equal(t, "unsupported", CapabilityUnsupported.String())
}

func TestTelemetryGateResolvesOnce(t *testing.T) {
	gate := NewTelemetryGate()
	calls := 0

	probe := func() (bool, error) {
		calls++
		return true, nil
	}

	assert.Equal(t, CapabilityUnknown, gate.State())
	assert.Equal(t, CapabilitySupported, gate.Resolve(probe))
	assert.Equal(t, CapabilitySupported, gate.Resolve(probe))
	assert.Equal(t, 1, calls)
	assert.Equal(t, CapabilitySupported, gate.State())
}

func TestTelemetryGateProbeFailureMeansUnsupported(t *testing.T) {
	gate := NewTelemetryGate()

	resolved := gate.Resolve(func() (bool, error) {
		return false, errors.New("no database")
	})
	assert.Equal(t, CapabilityUnsupported, resolved)

	// The failed probe result is cached like any other.
	resolved = gate.Resolve(func() (bool, error) {
		t.Fatal("probe must not run again")
		return true, nil
	})
	assert.Equal(t, CapabilityUnsupported, resolved)
}

func TestTelemetryGateDowngradeIsSticky(t *testing.T) {
	gate := NewTelemetryGate()
	gate.Resolve(func() (bool, error) { return true, nil })

	gate.Downgrade()
	assert.Equal(t, CapabilityUnsupported, gate.State())

	// Resolve must not re-probe upward after a downgrade.
	resolved := gate.Resolve(func() (bool, error) { return true, nil })
	assert.Equal(t, CapabilityUnsupported, resolved)
}

func TestTelemetryGateConcurrentFirstCallersConverge(t *testing.T) {
	gate := NewTelemetryGate()

	var wg sync.WaitGroup
	results := make([]Capability, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = gate.Resolve(func() (bool, error) { return true, nil })
		}(i)
	}
	wg.Wait()

	for _, result := range results {
		assert.Equal(t, CapabilitySupported, result)
	}
	assert.Equal(t, CapabilitySupported, gate.State())
}

func TestIsUndefinedColumn(t *testing.T) {
	undefined := &pgconn.PgError{Code: "42703"}
	assert.True(t, IsUndefinedColumn(undefined))
	assert.True(t, IsUndefinedColumn(fmt.Errorf("finalize login: %w", undefined)))

	assert.False(t, IsUndefinedColumn(nil))
	assert.False(t, IsUndefinedColumn(errors.New("column missing")))
	assert.False(t, IsUndefinedColumn(&pgconn.PgError{Code: "23505"}))
}

package services

import (
	"errors"
	"log"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgconn"
)

// Capability records whether the users table carries the login telemetry
// columns. Resolved lazily on the first login of the process lifetime and
// cached for the rest of it.
type Capability int32

const (
	CapabilityUnknown Capability = iota
	CapabilitySupported
	CapabilityUnsupported
)

func (c Capability) String() string {
	switch c {
	case CapabilitySupported:
		return "supported"
	case CapabilityUnsupported:
		return "unsupported"
	}
	return "unknown"
}

// TelemetryGate memoizes the schema capability. Concurrent first callers
// may all run the probe; it is a pure read, so whichever result lands last
// wins and they all converge to the same value. The only transition after
// resolution is Supported -> Unsupported (Downgrade) when a telemetry write
// hits a missing column; the gate never re-probes upward.
type TelemetryGate struct {
	state atomic.Int32
}

func NewTelemetryGate() *TelemetryGate {
	return &TelemetryGate{}
}

// Resolve returns the cached capability, running probe once if it is still
// unknown. A probe failure resolves to Unsupported with a warning and is
// never surfaced to the caller.
func (g *TelemetryGate) Resolve(probe func() (bool, error)) Capability {
	if state := Capability(g.state.Load()); state != CapabilityUnknown {
		return state
	}

	supported, err := probe()
	if err != nil {
		log.Printf("Warning: unable to detect login telemetry support, falling back to legacy login flow: %v", err)
		g.state.Store(int32(CapabilityUnsupported))
		return CapabilityUnsupported
	}

	resolved := CapabilityUnsupported
	if supported {
		resolved = CapabilitySupported
	}
	g.state.Store(int32(resolved))
	return resolved
}

// Downgrade forces the capability to Unsupported for the remainder of the
// process. Called when a cached Supported turns out to be wrong.
func (g *TelemetryGate) Downgrade() {
	g.state.Store(int32(CapabilityUnsupported))
}

// State returns the current capability without resolving it.
func (g *TelemetryGate) State() Capability {
	return Capability(g.state.Load())
}

// Postgres SQLSTATE for undefined_column
const undefinedColumnCode = "42703"

// IsUndefinedColumn reports whether err is Postgres complaining about a
// column that does not exist. This is the signal that a Supported
// capability was cached against a schema that has since drifted.
func IsUndefinedColumn(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedColumnCode
}

package instrument

import "github.com/fluxbind-dev/fluxbind/pkg/fluxbind"

// multi fans build hooks out to several backends in order.
type multi struct {
	backends []fluxbind.Instrumentation
}

// Multi combines several instrumentation backends into one.
// Nil entries are skipped.
func Multi(backends ...fluxbind.Instrumentation) fluxbind.Instrumentation {
	kept := make([]fluxbind.Instrumentation, 0, len(backends))
	for _, b := range backends {
		if b != nil {
			kept = append(kept, b)
		}
	}
	return &multi{backends: kept}
}

func (m *multi) BeginBuildState() {
	for _, b := range m.backends {
		b.BeginBuildState()
	}
}

func (m *multi) EndBuildState(ownerKind string) {
	for _, b := range m.backends {
		b.EndBuildState(ownerKind)
	}
}

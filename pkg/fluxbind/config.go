package fluxbind

// =============================================================================
// Development Mode
// =============================================================================

// DevMode enables development-time behavior.
// When true:
//   - Output panics suppressed by CatchOutputErrors are rethrown instead,
//     so bugs surface immediately
//   - Debug logging honors the Debug configuration
//
// Set this at application startup:
//
//	func main() {
//	    fluxbind.DevMode = os.Getenv("FLUXBIND_DEV") == "1"
//	    // ...
//	}
var DevMode = false

// CatchOutputErrors controls whether panics raised while producing an
// owner's visible output are suppressed. Output production is a separate
// phase from the build; a panic there never leaves subscriptions
// half-reconciled, so suppressing it guards the host application from
// becoming permanently unusable because of one failing owner.
//
// When true (production default), Binding.Output recovers the panic and
// substitutes an empty result. When false, or when DevMode is true, the
// panic propagates.
//
// Build panics are never caught: masking them would leave the registry
// half-reconciled with no safe recovery state, so they always propagate to
// the caller of Mount/PropsChanged.
var CatchOutputErrors = true

// =============================================================================
// Update Comparison Policy
// =============================================================================

// Equal is the pluggable comparison used for the prop-change decision in
// Rebuild and for the host's update-skip decision in ShouldUpdate.
//
// The default is deep structural equality with fast paths for common
// comparable types. Replace it for custom semantics, e.g. identity-only
// comparison:
//
//	fluxbind.Equal = func(a, b any) bool { return a == b }
var Equal func(a, b any) bool = defaultEquals

// DebugConfig controls debugging features for development.
type DebugConfig struct {
	// LogBuilds logs each reconciled build with the owner kind and the
	// resulting subscription count.
	// Default: false.
	LogBuilds bool

	// LogSweeps logs every subscription removed by the sweep step.
	// Useful for tracing unexpected dependency churn.
	// Default: false.
	LogSweeps bool
}

// DefaultDebugConfig returns a DebugConfig with all debugging disabled.
func DefaultDebugConfig() DebugConfig {
	return DebugConfig{}
}

// Debug is the global debug configuration.
// Modify this at application startup to enable debugging features.
var Debug = DefaultDebugConfig()

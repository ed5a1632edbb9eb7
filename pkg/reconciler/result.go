package reconciler

// Report is the outcome of a reconciliation.
type Report struct {
	// Missing lists declared services without a definition file, in declaration order.
	Missing []string

	// Restored lists the services whose definition files were written, in write order.
	// It is empty for dry runs.
	Restored []string

	// DryRun indicates that nothing was written.
	DryRun bool
}

// HasMissing returns true if any declared service had no definition file.
func (r *Report) HasMissing() bool {
	return r != nil && len(r.Missing) > 0
}

// HasRestored returns true if any definition file was written.
func (r *Report) HasRestored() bool {
	return r != nil && len(r.Restored) > 0
}

// outcome names the report for metrics.
func (r *Report) outcome() string {
	switch {
	case r.HasRestored():
		return OutcomeRestored
	case r.HasMissing():
		return OutcomeMissing
	default:
		return OutcomeClean
	}
}

package domain

// ForwardOutcome records the result of one downstream call. The three
// forwarders (ledger, courier, conversion) all report through this shape so the
// response composer can treat them uniformly.
type ForwardOutcome struct {
	Attempted   bool
	Succeeded   bool
	ErrorDetail string
}

// OutcomeOK marks a successful downstream call.
func OutcomeOK() ForwardOutcome {
	return ForwardOutcome{Attempted: true, Succeeded: true}
}

// OutcomeFailed marks an attempted downstream call that did not succeed.
func OutcomeFailed(detail string) ForwardOutcome {
	return ForwardOutcome{Attempted: true, ErrorDetail: detail}
}

// StatusText renders the outcome as a client-facing status string.
func (o ForwardOutcome) StatusText() string {
	switch {
	case !o.Attempted:
		return "skipped"
	case o.Succeeded:
		return "ok"
	case o.ErrorDetail != "":
		return o.ErrorDetail
	default:
		return "failed"
	}
}

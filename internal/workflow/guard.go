// Package workflow contains the pure business logic of the review engine.
// Guards are pure functions that evaluate preconditions without side effects;
// the service layer loads state, asks a guard, and persists the outcome.
package workflow

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Kind    Kind // defaults to InvalidState when empty
}

func allow() GuardResult {
	return GuardResult{Allowed: true}
}

func deny(kind Kind, reason string) GuardResult {
	return GuardResult{Allowed: false, Reason: reason, Kind: kind}
}

// Err converts the guard result to an engine error if not allowed.
func (r GuardResult) Err() *Error {
	if r.Allowed {
		return nil
	}
	kind := r.Kind
	if kind == "" {
		kind = KindInvalidState
	}
	return &Error{Kind: kind, Message: r.Reason}
}

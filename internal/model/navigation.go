package model

// Verdict is the outcome of a navigation check
type Verdict string

const (
	VerdictAllow Verdict = "allow"
	VerdictBlock Verdict = "block"
)

// NavigationDecision is computed per navigation event and never persisted
type NavigationDecision struct {
	Verdict    Verdict `json:"verdict"`
	Reason     string  `json:"reason,omitempty"`
	RedirectTo string  `json:"redirect_to,omitempty"` // Local block page, set only on block
}

// Allow returns an allow decision
func Allow() NavigationDecision {
	return NavigationDecision{Verdict: VerdictAllow}
}

// Block returns a block decision redirecting to the given page
func Block(reason, redirectTo string) NavigationDecision {
	return NavigationDecision{Verdict: VerdictBlock, Reason: reason, RedirectTo: redirectTo}
}

// Blocked reports whether navigation must be stopped
func (d NavigationDecision) Blocked() bool {
	return d.Verdict == VerdictBlock
}

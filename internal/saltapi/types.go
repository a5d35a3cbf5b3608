package saltapi

import "slices"

// Token is a salt-api session token as returned by /login.
type Token struct {
	Token  string  `json:"token"`
	Expire float64 `json:"expire"`
	Start  float64 `json:"start"`
	User   string  `json:"user"`
	EAuth  string  `json:"eauth"`
	Perms  []any   `json:"perms"`
}

type LoginResponse struct {
	Return []Token `json:"return"`
}

// Keys mirrors the key lists reported by the salt-key wheel.
type Keys struct {
	Local    []string `json:"local"`
	Accepted []string `json:"minions"`
	Pending  []string `json:"minions_pre"`
	Rejected []string `json:"minions_rejected"`
	Denied   []string `json:"minions_denied"`
}

type KeysResponse struct {
	Return Keys `json:"return"`
}

type KeyStatus int

const (
	NONEXISTENT KeyStatus = iota + 1
	ACCEPTED
	UNACCEPTED
	REJECTED
	DENIED
)

func (s KeyStatus) String() string {
	return [...]string{"nonexistent", "accepted", "unaccepted", "rejected", "denied"}[s-1]
}

// EnumIndex returns the enum index of a KeyStatus.
func (s KeyStatus) EnumIndex() int {
	return int(s)
}

// Status returns the status of the given minion id.
// Accepted takes precedence over pending.
func (k Keys) Status(minion string) KeyStatus {
	switch {
	case slices.Contains(k.Accepted, minion):
		return ACCEPTED
	case slices.Contains(k.Pending, minion):
		return UNACCEPTED
	case slices.Contains(k.Rejected, minion):
		return REJECTED
	case slices.Contains(k.Denied, minion):
		return DENIED
	default:
		return NONEXISTENT
	}
}

// OrchestrationRequest is the body of the run_heat and run_vra hooks.
// WaitURL and WaitToken are only sent to run_heat.
type OrchestrationRequest struct {
	Environment   string  `json:"environment"`
	Automation    *string `json:"automation"`
	Orchestration *string `json:"orchestration"`
	Pillar        any     `json:"pillar"`
	WaitURL       *string `json:"wait_url,omitempty"`
	WaitToken     *string `json:"token,omitempty"`
	StackID       string  `json:"stack_id"`
}

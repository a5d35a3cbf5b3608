package workflow

import "github.com/salt-ha/salt-ha/internal/saltapi"

// Kind selects the orchestration hook and the steps that precede it.
type Kind int

const (
	HEAT Kind = iota + 1
	VRA
)

func (k Kind) String() string {
	return [...]string{"orchestrate_heat", "orchestrate_vra"}[k-1]
}

// Endpoint returns the salt-api hook that runs the orchestration.
func (k Kind) Endpoint() string {
	return [...]string{saltapi.RunHeatEndpoint, saltapi.RunVRAEndpoint}[k-1]
}

// InjectsSysState reports whether the sys state is injected before the run.
// Only Heat stacks get it; vRA deployments never called add_sys_state.
func (k Kind) InjectsSysState() bool {
	return k == HEAT
}

// SendsWaitCondition reports whether the Heat WaitCondition is forwarded.
func (k Kind) SendsWaitCondition() bool {
	return k == HEAT
}

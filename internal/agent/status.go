package agent

// RegistrationState tracks the one-time REG chain.
type RegistrationState string

const (
	RegistrationNotStarted RegistrationState = "NOT_STARTED"
	RegistrationRunning    RegistrationState = "RUNNING"
	Registered             RegistrationState = "REGISTERED"
	RegistrationFailed     RegistrationState = "FAILED"
)

// ClientState tracks the CLIENT chain driver.
type ClientState string

const (
	ClientIdle    ClientState = "IDLE"
	ClientRunOnce ClientState = "RUN_ONCE"
	ClientLooping ClientState = "LOOPING"
	ClientStopped ClientState = "STOPPED"
)

// Status is a point-in-time snapshot of an agent, served by the health
// endpoint.
type Status struct {
	Name         string            `json:"name"`
	RunID        string            `json:"run_id"`
	Mode         string            `json:"mode"`
	Registration RegistrationState `json:"registration"`
	Client       ClientState       `json:"client"`
	Iterations   int               `json:"iterations"`
	Done         bool              `json:"done"`
	Cancelled    bool              `json:"cancelled,omitempty"`
	Success      *bool             `json:"success,omitempty"`
}

// Status returns a snapshot of the agent's progress.
func (a *Agent) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.status
	if s.Success != nil {
		v := *s.Success
		s.Success = &v
	}
	return s
}

func (a *Agent) setRegistration(s RegistrationState) {
	a.mu.Lock()
	a.status.Registration = s
	a.mu.Unlock()
}

func (a *Agent) setClient(s ClientState) {
	a.mu.Lock()
	a.status.Client = s
	a.mu.Unlock()
}

func (a *Agent) countIteration() {
	a.mu.Lock()
	a.status.Iterations++
	a.mu.Unlock()
}

func (a *Agent) finish(success *bool) {
	a.mu.Lock()
	a.status.Done = true
	a.status.Success = success
	a.status.Cancelled = success == nil
	a.mu.Unlock()
}

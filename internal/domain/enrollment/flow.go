package enrollment

import "fmt"

// Stage is the position of the client-side enrollment wizard.
type Stage string

const (
	StageNone   Stage = "none"
	StageLogin  Stage = "login"
	StageVerify Stage = "verify"
	StageEnroll Stage = "enroll"
)

// Session is the auth state the wizard reacts to.
type Session struct {
	Authenticated bool
	Verified      bool
}

// Derive returns the stage a wizard for s should be showing.
func Derive(s Session) Stage {
	switch {
	case !s.Authenticated:
		return StageLogin
	case !s.Verified:
		return StageVerify
	default:
		return StageEnroll
	}
}

// Flow tracks one wizard run for a target turma. It holds no persistent state;
// callers reconcile it against the server snapshot after every step.
type Flow struct {
	Stage   Stage
	TurmaID string
}

func NewFlow() *Flow {
	return &Flow{Stage: StageNone}
}

// Start opens the wizard for turmaID at the stage the session allows.
func (f *Flow) Start(turmaID string, s Session) Stage {
	f.TurmaID = turmaID
	f.Stage = Derive(s)
	return f.Stage
}

// Observe advances the wizard after an auth state change. Stages never move backwards.
func (f *Flow) Observe(s Session) Stage {
	if f.Stage == StageLogin && s.Authenticated {
		f.Stage = StageVerify
	}
	if f.Stage == StageVerify && s.Authenticated && s.Verified {
		f.Stage = StageEnroll
	}
	return f.Stage
}

// Complete finishes a successful submission and resets the wizard.
func (f *Flow) Complete() error {
	if f.Stage != StageEnroll {
		return fmt.Errorf("enrollment flow: cannot complete from stage %s", f.Stage)
	}
	f.reset()
	return nil
}

// Close abandons the wizard and discards the pending request.
func (f *Flow) Close() {
	f.reset()
}

func (f *Flow) reset() {
	f.Stage = StageNone
	f.TurmaID = ""
}

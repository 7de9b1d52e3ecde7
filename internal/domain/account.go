package domain

import (
	"github.com/google/uuid"
)

// Account deletion steps, in execution order. Identity removal always runs
// last; it is the only step whose failure fails the whole deletion.
const (
	DeleteStepTeamSlots          = "team_slots"
	DeleteStepCreditTransactions = "credit_transactions"
	DeleteStepCredits            = "credits"
	DeleteStepTemplates          = "templates"
	DeleteStepRole               = "role"
	DeleteStepProfile            = "profile"
	DeleteStepFiles              = "files"
	DeleteStepIdentity           = "identity"
)

// DeletionStep is the outcome of one step of an account deletion.
type DeletionStep struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Rows  int64  `json:"rows,omitempty"`
	Error string `json:"error,omitempty"`
}

// DeletionResult reports what an account deletion did.
type DeletionResult struct {
	UserID          uuid.UUID      `json:"user_id"`
	Steps           []DeletionStep `json:"steps"`
	IdentityRemoved bool           `json:"identity_removed"`
}

// Failed returns the names of the steps that did not succeed.
func (r *DeletionResult) Failed() []string {
	var failed []string
	for _, s := range r.Steps {
		if !s.OK {
			failed = append(failed, s.Name)
		}
	}
	return failed
}

// Record appends a step outcome.
func (r *DeletionResult) Record(name string, rows int64, err error) {
	step := DeletionStep{Name: name, OK: err == nil, Rows: rows}
	if err != nil {
		step.Error = err.Error()
	}
	r.Steps = append(r.Steps, step)
}

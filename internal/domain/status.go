// internal/domain/status.go
package domain

// AppStatus enumerates the lifecycle states of an App.
type AppStatus string

const (
	AppStatusDraft    AppStatus = "DRAFT"
	AppStatusRunning  AppStatus = "RUNNING"
	AppStatusStopped  AppStatus = "STOPPED"
	AppStatusError    AppStatus = "ERROR"
	AppStatusDeleting AppStatus = "DELETING"
)

// JobStatus enumerates the lifecycle states of a GenerationJob.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusFailed    JobStatus = "FAILED"
)

// ValidationStatus records the validation verdict stored with a blueprint.
type ValidationStatus string

const (
	ValidationValid   ValidationStatus = "VALID"
	ValidationInvalid ValidationStatus = "INVALID"
)

// CanTransitionTo reports whether an App may legally move to the target
// status. DELETING is reachable from anywhere and terminal; ERROR is
// reachable from any non-terminal state.
func (s AppStatus) CanTransitionTo(target AppStatus) bool {
	if s == target {
		return false
	}
	if s == AppStatusDeleting {
		return false
	}
	switch target {
	case AppStatusDeleting:
		return true
	case AppStatusError:
		return true
	case AppStatusRunning:
		return s == AppStatusDraft || s == AppStatusStopped || s == AppStatusError
	case AppStatusStopped:
		return s == AppStatusRunning
	}
	return false
}

// CanTransitionTo reports whether a Job may legally move to the target
// status. SUCCEEDED and FAILED are terminal; a job never moves backward.
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobStatusQueued:
		return target == JobStatusRunning || target == JobStatusFailed
	case JobStatusRunning:
		return target == JobStatusSucceeded || target == JobStatusFailed
	}
	return false
}

// Terminal reports whether no further job transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

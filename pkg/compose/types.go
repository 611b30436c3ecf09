// Package compose runs the four-stage note composition pipeline: analyzing
// the raw note and transcript, enhancing structure, beautifying language
// (offline-first with a remote fallback), and a final review that produces
// the patient summary, code justifications, and a validation outcome.
package compose

import "github.com/revpilot/gateway/pkg/validator"

// Stage identifies one of the four pipeline stages, in execution order.
type Stage string

const (
	StageAnalyzing           Stage = "analyzing"
	StageEnhancingStructure  Stage = "enhancing_structure"
	StageBeautifyingLanguage Stage = "beautifying_language"
	StageFinalReview         Stage = "final_review"
)

// StageSequence is the fixed stage execution order.
var StageSequence = []Stage{StageAnalyzing, StageEnhancingStructure, StageBeautifyingLanguage, StageFinalReview}

// StageProgress gives the completion fraction reported once a stage
// finishes.
var StageProgress = map[Stage]float64{
	StageAnalyzing:           0.15,
	StageEnhancingStructure:  0.35,
	StageBeautifyingLanguage: 0.85,
	StageFinalReview:         1.00,
}

// Status is the terminal or in-flight state of a Job.
type Status string

const (
	StatusInProgress Status = "inProgress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
)

const stepStatusPending = "pending"
const stepStatusInProgress = "in_progress"
const stepStatusCompleted = "completed"
const stepStatusBlocked = "blocked"
const stepStatusFailed = "failed"
const stepStatusCancelled = "cancelled"

// CodeEntry is one billing/diagnosis code candidate carried into the
// composition job, with whatever supporting text the upstream suggestion
// flow attached to it.
type CodeEntry struct {
	Code        string
	Title       string
	ID          string
	DocSupport  string
	Details     string
	Description string
	AIReasoning string
	Evidence    []string
	Gaps        []string
}

// TranscriptEntry is one turn of the encounter transcript.
type TranscriptEntry struct {
	Speaker string
	Text    string
}

// JobPayload is the input to a single composition run.
type JobPayload struct {
	ComposeID      string
	Note           string
	Metadata       map[string]any
	Codes          []CodeEntry
	Transcript     []TranscriptEntry
	Lang           string
	Specialty      string
	Payer          string
	Offline        bool
	UseLocalModels bool
	BeautifyModel  string
	SessionID      string
	EncounterID    string
	NoteID         string
	Username       string
	PatientName    string
}

// Step is the progress record for a single pipeline stage.
type Step struct {
	ID       string
	Stage    Stage
	Status   string
	Progress float64
}

func initialSteps() []Step {
	steps := make([]Step, len(StageSequence))
	for i, stage := range StageSequence {
		steps[i] = Step{ID: string(stage), Stage: stage, Status: stepStatusPending, Progress: 0}
	}
	return steps
}

// Analysis is the analyzing stage's recorded sub-state: the sanitized and
// normalized note plus metadata derived from the raw job payload.
type Analysis struct {
	NormalizedNote       string
	Metadata             map[string]any
	CodeCount            int
	TranscriptHighlights []string
}

// Validation is the final review stage's recorded outcome.
type Validation struct {
	OK     bool
	Issues []validator.Issue
	Detail map[string]any
}

// Result is the final artifact of a completed composition job.
type Result struct {
	Analysis           *Analysis
	Note               string
	PatientSummary     string
	CodeJustifications []string
	BeautifyMode       string
	Degraded           bool
}

// JobState is the full, emittable state of a composition job at any point
// during its run.
type JobState struct {
	ComposeID  string
	Status     Status
	Stage      Stage
	Progress   float64
	Steps      []Step
	Result     *Result
	Validation *Validation
	Message    string
}

func newJobState(composeID string) JobState {
	return JobState{
		ComposeID: composeID,
		Status:    StatusInProgress,
		Stage:     StageAnalyzing,
		Progress:  0,
		Steps:     initialSteps(),
	}
}

// Reporter receives a copy of the job's state after every stage transition.
// A Reporter that panics is recovered and logged and does not interrupt the
// run.
type Reporter func(JobState)

package compose

import (
	"context"
	"log/slog"
	"time"

	"github.com/revpilot/gateway/pkg/llm"
	"github.com/revpilot/gateway/pkg/validator"
)

// Pipeline runs composition jobs through the four fixed stages.
type Pipeline struct {
	Client    llm.Client
	Local     LocalBeautifier
	Validator validator.Validator
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewPipeline constructs a Pipeline. A nil logger defaults to slog's
// default logger; a nil Now defaults to time.Now; a nil val always reports
// canFinalize, since without a real collaborator there is nothing to block
// on.
func NewPipeline(client llm.Client, local LocalBeautifier, val validator.Validator, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if val == nil {
		val = alwaysFinalizeValidator{}
	}
	return &Pipeline{Client: client, Local: local, Validator: val, Logger: logger, Now: time.Now}
}

// alwaysFinalizeValidator is the Pipeline's default Validator: it never
// blocks, so a Pipeline built without a real validator behaves exactly as
// one with no final-review gate at all.
type alwaysFinalizeValidator struct{}

func (alwaysFinalizeValidator) Validate(payload map[string]any) validator.Outcome {
	return validator.Outcome{CanFinalize: true, Detail: payload}
}

// Run executes every stage in sequence, invoking report after each stage
// transition. A cancelled or deadline-exceeded ctx ends the run with
// Status cancelled, marking the in-flight step cancelled; an unrecovered
// panic from a stage is recovered and reported as Status failed.
func (p *Pipeline) Run(ctx context.Context, payload JobPayload, report Reporter) (result JobState) {
	state := newJobState(payload.ComposeID)
	now := p.now()

	note := payload.Note

	emit := func() {
		p.emit(report, state)
	}

	stageIndex := 0
	defer func() {
		if r := recover(); r != nil {
			p.finishOnFailure(&state, stageIndex, panicError(r))
			emit()
			result = state
		}
	}()

	for i, stage := range StageSequence {
		stageIndex = i
		if err := ctx.Err(); err != nil {
			p.finishOnCancellation(&state, i)
			emit()
			return state
		}

		state.Stage = stage
		state.Steps[i].Status = stepStatusInProgress
		emit()

		switch stage {
		case StageAnalyzing:
			note = p.runAnalyzing(payload, note, &state, now)
		case StageEnhancingStructure:
			structured := formatNoteForEnhancement(note)
			if structured == "" {
				structured = note
			}
			note = structured
		case StageBeautifyingLanguage:
			note, state.Result = p.runBeautify(ctx, payload, note, state.Result)
		case StageFinalReview:
			p.runFinalReview(payload, note, &state, now)
		}

		stepStatus := stepStatusCompleted
		if stage == StageFinalReview && state.Status == StatusBlocked {
			stepStatus = stepStatusBlocked
		}
		state.Steps[i].Status = stepStatus
		state.Steps[i].Progress = StageProgress[stage]
		state.Progress = StageProgress[stage]
		emit()
	}

	if state.Status == StatusInProgress {
		state.Status = StatusCompleted
	}
	emit()
	return state
}

type panicErr struct{ value any }

func (p panicErr) Error() string {
	return "compose stage panicked"
}

func panicError(r any) error {
	return panicErr{value: r}
}

// runAnalyzing normalizes job metadata (dropping null values), sanitizes
// the raw note by stripping HTML, and substitutes a default chest-pain
// template when nothing usable remains. It records the analysis sub-state
// and returns the note the later stages operate on.
func (p *Pipeline) runAnalyzing(payload JobPayload, note string, state *JobState, now time.Time) string {
	metadata := dropNilValues(payload.Metadata)

	sanitized := sanitizeText(note)
	if normalizeWhitespace(sanitized) == "" {
		sanitized = defaultNoteContent(patientNameOrDefault(payload.PatientName), now)
	}

	state.Result = &Result{
		Analysis: &Analysis{
			NormalizedNote:       sanitized,
			Metadata:             metadata,
			CodeCount:            len(payload.Codes),
			TranscriptHighlights: deriveTranscriptHighlights(payload.Transcript),
		},
	}
	return sanitized
}

func dropNilValues(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

func (p *Pipeline) runBeautify(ctx context.Context, payload JobPayload, note string, result *Result) (string, *Result) {
	modelID := payload.BeautifyModel
	if modelID == "" {
		modelID = "gpt-4o"
	}
	text, mode, degraded := beautify(ctx, p.Client, p.Local, note, modelID, payload.Offline || payload.UseLocalModels)
	if result == nil {
		result = &Result{}
	}
	result.Note = text
	result.BeautifyMode = mode
	result.Degraded = degraded
	return text, result
}

// runFinalReview derives the patient summary and code justifications, then
// invokes the configured Validator; the outcome decides whether the job
// reaches a completed or blocked terminal state. The prevention, diagnoses,
// differentials and compliance keys are left out of the validator payload
// when the metadata carries no list for them.
func (p *Pipeline) runFinalReview(payload JobPayload, note string, state *JobState, now time.Time) {
	highlights := deriveTranscriptHighlights(payload.Transcript)
	justifications := buildCodeJustifications(payload.Codes, payload.PatientName)
	summary := buildPatientSummary(payload.PatientName, note, highlights, justifications, now)

	if state.Result == nil {
		state.Result = &Result{Note: note}
	}
	state.Result.Note = note
	state.Result.PatientSummary = summary
	state.Result.CodeJustifications = justifications

	metadata := dropNilValues(payload.Metadata)
	codes := make([]string, 0, len(payload.Codes))
	for _, c := range payload.Codes {
		codes = append(codes, c.Code)
	}
	request := map[string]any{"content": note, "codes": codes}
	for field, key := range map[string]string{
		"prevention":    "preventionItems",
		"diagnoses":     "diagnoses",
		"differentials": "differentials",
		"compliance":    "complianceChecks",
	} {
		if list := metadataList(metadata, key); list != nil {
			request[field] = list
		}
	}
	outcome := p.Validator.Validate(request)
	state.Validation = &Validation{OK: outcome.CanFinalize, Issues: outcome.Issues, Detail: outcome.Detail}

	if outcome.CanFinalize {
		state.Status = StatusCompleted
	} else {
		state.Status = StatusBlocked
		state.Message = "Validation identified blocking issues."
	}
}

// metadataList reads a []any/[]string value at key from metadata and
// returns it as a []string, or nil if the key is absent or not a list.
func metadataList(metadata map[string]any, key string) []string {
	switch v := metadata[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// finishOnCancellation maps a cancelled/deadline-exceeded context onto a
// terminal cancelled state, marking the in-flight step cancelled.
func (p *Pipeline) finishOnCancellation(state *JobState, stageIndex int) {
	state.Status = StatusCancelled
	state.Stage = StageFinalReview
	state.Message = "Compose job cancelled"
	if stageIndex >= 0 && stageIndex < len(state.Steps) {
		state.Steps[stageIndex].Status = stepStatusCancelled
	}
}

// finishOnFailure marks the step at the failing stage (or the first step,
// if the failing stage is unknown) failed.
func (p *Pipeline) finishOnFailure(state *JobState, stageIndex int, err error) {
	state.Status = StatusFailed
	state.Message = err.Error()
	idx := stageIndex
	if idx < 0 || idx >= len(state.Steps) {
		idx = 0
	}
	state.Steps[idx].Status = stepStatusFailed
}

func (p *Pipeline) emit(report Reporter, state JobState) {
	if report == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Error("compose reporter panicked", "recover", r)
		}
	}()
	report(cloneState(state))
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func cloneState(state JobState) JobState {
	cloned := state
	cloned.Steps = append([]Step(nil), state.Steps...)
	return cloned
}

package gate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"strings"
	"sync"

	"github.com/revpilot/gateway/pkg/embedding"
	"github.com/revpilot/gateway/pkg/textdiff"
)

// Gate is a per-(clinician, note) admission controller. A single Gate
// serializes evaluations for each NoteKey via a per-key mutex; different
// NoteKeys are evaluated fully in parallel. The embedding client is
// constructed lazily on first use and cached until Reset.
type Gate struct {
	cfg Config

	mu        sync.Mutex
	states    map[NoteKey]*lockedState
	embedOnce sync.Once
	embedNew  func() embedding.Client
	embedder  embedding.Client
}

type lockedState struct {
	mu    sync.Mutex
	state State
}

// New constructs a Gate. embedNew lazily constructs the embedding client on
// first use; it is invoked at most once until Reset clears the cache.
func New(cfg Config, embedNew func() embedding.Client) *Gate {
	return &Gate{
		cfg:      cfg,
		states:   make(map[NoteKey]*lockedState),
		embedNew: embedNew,
	}
}

// Reset clears all per-note state and the cached embedding client.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.states = make(map[NoteKey]*lockedState)
	g.embedOnce = sync.Once{}
	g.embedder = nil
}

func (g *Gate) stateFor(key NoteKey) *lockedState {
	g.mu.Lock()
	defer g.mu.Unlock()
	ls, ok := g.states[key]
	if !ok {
		ls = &lockedState{}
		g.states[key] = ls
	}
	return ls
}

func (g *Gate) embeddingClient() embedding.Client {
	g.embedOnce.Do(func() {
		g.embedder = g.embedNew()
	})
	return g.embedder
}

// Evaluate decides whether req warrants a model call, mutating the State
// bound to the derived NoteKey regardless of outcome.
func (g *Gate) Evaluate(ctx context.Context, req Request) (Decision, error) {
	key := DeriveNoteKey(req.NoteID, req.ClinicianID)
	ls := g.stateFor(key)

	ls.mu.Lock()
	defer ls.mu.Unlock()

	normalized := textdiff.Normalize(req.Text)
	hash := sha256Hex(normalized)
	length := len([]rune(normalized))

	autoThreshold := maxInt(g.cfg.AutoThresholdChars, ceilPct(g.cfg.AutoThresholdPct, length))
	manualThreshold := maxInt(g.cfg.ManualThresholdChars, ceilPct(g.cfg.ManualThresholdPct, length))

	detail := Detail{
		NormalizedLen:   length,
		AutoThreshold:   autoThreshold,
		ManualThreshold: manualThreshold,
	}

	if !textdiff.HasBoundary(req.Text) {
		g.updateState(&ls.state, normalized, hash, req)
		return deny(ReasonNoSentenceBoundary, detail), nil
	}

	if ls.state.LastAdmittedNoteHash == hash {
		g.updateState(&ls.state, normalized, hash, req)
		return deny(ReasonDuplicateState, detail), nil
	}

	oldSpan, newSpan, _ := textdiff.ChangedSpans(ls.state.LastSentText, normalized)
	delta := maxInt(len([]rune(oldSpan)), len([]rune(newSpan)))
	dice := textdiff.TrigramDice(oldSpan, newSpan)
	distance, err := embedding.Distance(ctx, g.embeddingClient(), oldSpan, newSpan)
	if err != nil {
		return Decision{}, err
	}
	salient := hasSalience(oldSpan, newSpan)

	detail.DeltaChars = delta
	detail.TrigramDice = dice
	detail.EmbeddingCosineDistance = distance
	detail.Salient = salient

	intent := normalizeIntent(req.Intent)

	if !ls.state.ColdStartCompleted {
		if length < g.cfg.ColdStartChars {
			g.updateState(&ls.state, normalized, hash, req)
			return deny(ReasonBelowThreshold, detail), nil
		}
		ls.state.ColdStartCompleted = true
	}

	if !salient {
		lexicalTrigger := delta < 40 || dice > 0.90
		distanceThreshold := g.cfg.SemanticDistanceAutoMin
		if intent == "manual" {
			distanceThreshold = g.cfg.SemanticDistanceManualMin
		}
		if distance < distanceThreshold && (lexicalTrigger || delta < length) {
			g.updateState(&ls.state, normalized, hash, req)
			return deny(ReasonNotMeaningful, detail), nil
		}

		threshold := autoThreshold
		if intent == "manual" {
			threshold = manualThreshold
		}
		if delta < threshold {
			g.updateState(&ls.state, normalized, hash, req)
			return deny(ReasonBelowThreshold, detail), nil
		}
	}

	ls.state.LastAdmittedNoteHash = hash
	g.updateState(&ls.state, normalized, hash, req)

	return Decision{
		Allowed:    true,
		ModelID:    g.cfg.modelFor(intent),
		Detail:     detail,
		StatusCode: 200,
	}, nil
}

func (g *Gate) updateState(state *State, normalized, hash string, req Request) {
	state.LastSentText = normalized
	state.LastNoteHash = hash
	if req.TranscriptCursor != "" {
		state.LastTranscriptCursor = req.TranscriptCursor
	}
	if req.AcceptedDisposition != nil {
		state.LastAcceptedDispositionHash = hashMapping(req.AcceptedDisposition)
	}
}

func deny(reason ReasonCode, detail Detail) Decision {
	return Decision{
		Allowed:    false,
		ReasonCode: reason,
		Detail:     detail,
		StatusCode: 409,
	}
}

func normalizeIntent(intent string) string {
	if intent == "" {
		return "auto"
	}
	return strings.ToLower(strings.TrimSpace(intent))
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// hashMapping hashes m as canonical JSON. encoding/json sorts map keys
// alphabetically when marshaling, giving deterministic output regardless of
// insertion order.
func hashMapping(m map[string]any) string {
	payload, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return sha256Hex(string(payload))
}

func ceilPct(pct float64, length int) int {
	return int(math.Ceil(pct * float64(length)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

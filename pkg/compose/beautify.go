package compose

import (
	"context"
	"strings"
	"unicode"

	"github.com/revpilot/gateway/pkg/llm"
)

// LocalBeautifier performs note beautification without a remote model call,
// used for payload.Offline/UseLocalModels jobs.
type LocalBeautifier interface {
	Beautify(ctx context.Context, note string) (string, error)
}

const beautifyModeOffline = "offline"
const beautifyModeRemote = "remote"

// beautify rewrites note into clinician-ready prose. When offline or
// use-local-models is requested it tries the local beautifier first; any
// local failure downgrades the attempt to the remote path. The remote path
// calls the model and falls back to mechanical sentence recasing on
// failure, without changing the reported mode back to offline: the
// pipeline is reporting that it attempted a remote call, not that the
// recasing output came from a model.
func beautify(ctx context.Context, client llm.Client, local LocalBeautifier, note, modelID string, offline bool) (text, mode string, degraded bool) {
	if offline && local != nil {
		if result, err := local.Beautify(ctx, note); err == nil {
			return result, beautifyModeOffline, false
		}
	}

	prompt := buildBeautifyPrompt(note)
	result, err := client.Reply(ctx, prompt, modelID, 0.2)
	if err != nil {
		return recaseSentences(note), beautifyModeRemote, true
	}
	return strings.TrimSpace(result), beautifyModeRemote, false
}

func buildBeautifyPrompt(note string) []llm.Message {
	return []llm.Message{
		{Role: "system", Content: "Rewrite the following clinical note in clear, professional prose. " +
			"Preserve every clinical fact; do not add or remove findings."},
		{Role: "user", Content: note},
	}
}

// recaseSentences is the last-resort fallback when the remote beautify
// call fails: split on ". ", capitalize the first letter of each sentence,
// and rejoin with ". ".
func recaseSentences(note string) string {
	sentences := strings.Split(note, ". ")
	for i, s := range sentences {
		sentences[i] = capitalizeFirst(strings.TrimSpace(s))
	}
	return strings.Join(sentences, ". ")
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

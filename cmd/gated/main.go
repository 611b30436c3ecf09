// Command gated runs a single meaningful-change gate evaluation plus the
// compose pipeline against a note supplied on stdin (identifiers via flags),
// demonstrating how the gate, prompt, compose, and stream-hub packages
// wire together.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/revpilot/gateway/pkg/compose"
	"github.com/revpilot/gateway/pkg/config"
	"github.com/revpilot/gateway/pkg/embedding"
	"github.com/revpilot/gateway/pkg/gate"
	"github.com/revpilot/gateway/pkg/guidelines"
	"github.com/revpilot/gateway/pkg/llm"
	"github.com/revpilot/gateway/pkg/prompt"
	"github.com/revpilot/gateway/pkg/scrub"
	"github.com/revpilot/gateway/pkg/streamhub"
)

// passthroughClient stands in for a real model backend in this demo
// binary: it returns the last user message unchanged, so the compose
// pipeline's beautify stage has something deterministic to chain through
// without requiring network access or credentials.
type passthroughClient struct{}

func (passthroughClient) Reply(_ context.Context, messages []llm.Message, _ string, _ float64) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content, nil
		}
	}
	return "", nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	noteID := flag.String("note-id", "demo-note", "note identifier for gate evaluation")
	clinicianID := flag.String("clinician-id", "", "clinician identifier, used when note-id is absent")
	intent := flag.String("intent", "auto", "suggestion intent: auto, manual, finalize, beautify, patient_summary, plan_assist")
	encounterID := flag.String("encounter-id", "demo-encounter", "encounter identifier for the delta stream hub")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("could not load %s: %v; continuing with existing environment", envPath, err)
	}

	cfg, err := config.Load(filepath.Join(*configDir, "gated.yaml"))
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	text, err := readNote()
	if err != nil {
		log.Fatalf("failed to read note text: %v", err)
	}

	g := gate.New(cfg.Gate, func() embedding.Client {
		return embedding.NewHashingEmbedder(128)
	})

	decision, err := g.Evaluate(context.Background(), gate.Request{
		NoteID:      *noteID,
		ClinicianID: *clinicianID,
		Text:        text,
		Intent:      *intent,
	})
	if err != nil {
		log.Fatalf("gate evaluation failed: %v", err)
	}

	fmt.Printf("gate decision: allowed=%v reason=%s model=%s status=%d\n",
		decision.Allowed, decision.ReasonCode, decision.ModelID, decision.StatusCode)

	if !decision.Allowed {
		return
	}

	scrubber := scrub.New(cfg.Scrub)
	builder := prompt.NewBuilder(cfg.Prompt.StableCacheSize, scrubber)

	stable, cacheState, tokens := builder.BuildStableBlock(decision.ModelID, cfg.Prompt.SchemaVersion, cfg.Prompt.PolicyVersion)
	fmt.Printf("stable block: cache=%s estimated_tokens=%d messages=%d\n", cacheState, tokens, len(stable))

	dynamic := builder.BuildDynamicBlock(prompt.DynamicContext{
		RawNote:        text,
		NoteID:         *noteID,
		EncounterID:    *encounterID,
		GuidelineLooks: guidelines.NewStaticSource(),
	})
	fmt.Println("dynamic block:")
	fmt.Println(dynamic.Content)

	hub := streamhub.NewHub("compose", cfg.Stream.MinInterval, logger)
	hub.Publish(*encounterID, map[string]any{"stage": "gate_admitted", "noteId": *noteID})

	pipeline := compose.NewPipeline(passthroughClient{}, nil, nil, logger)
	state := pipeline.Run(context.Background(), compose.JobPayload{
		ComposeID: *noteID,
		Note:      text,
	}, func(s compose.JobState) {
		hub.Publish(*encounterID, map[string]any{"stage": string(s.Stage), "status": string(s.Status)})
	})

	fmt.Printf("compose status: %s\n", state.Status)
	if state.Result != nil {
		fmt.Println("patient summary:")
		fmt.Println(state.Result.PatientSummary)
	}
}

func readNote() (string, error) {
	info, err := os.Stdin.Stat()
	if err == nil && (info.Mode()&os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			return "", err
		}
		if len(data) > 0 {
			return string(data), nil
		}
	}
	return "", nil
}

// Package prompt builds the two-block suggestion prompt: a stable block
// (rubric + schema + policy, cached by model/schema version) and a dynamic
// block (diff context, state summary, disposition, transcript, PMH,
// guidelines), with PHI scrubbing applied to the note, previous note,
// transcript and diff span of the dynamic block.
package prompt

import (
	"container/list"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Message is a single chat-style prompt message.
type Message struct {
	Role    string
	Content string
}

// CacheState reports whether BuildStableBlock served from cache.
type CacheState string

const (
	CacheHit  CacheState = "hit"
	CacheMiss CacheState = "miss"
)

// StableBlockKey identifies a cached stable block.
type StableBlockKey struct {
	ModelID       string
	SchemaVersion string
}

const defaultStableCacheSize = 32

const systemRubric = "You are an expert medical coder, compliance officer and clinical decision " +
	"support assistant. Review the supplied, de-identified clinical material and return only valid " +
	"JSON for the clinician. Do not invent or hallucinate content. Respect any clinician-provided " +
	"rules and focus on documentation that affects coding, compliance risk and public health follow-up."

const policyTemplate = "Policy safeguards (%s):\n" +
	"- Never include PHI or other direct identifiers.\n" +
	"- Obey clinician supplied rules and highlight compliance risks.\n" +
	"- Return valid JSON only; omit commentary or markdown."

// ResponseSchema is the canonical JSON schema for the suggestion response,
// serialized with sorted keys and stable indentation.
var ResponseSchema = map[string]any{
	"title":    "Suggestion Response",
	"type":     "object",
	"required": []string{"codes", "compliance", "public_health", "differentials"},
	"properties": map[string]any{
		"codes":         map[string]any{"type": "array"},
		"compliance":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"public_health": map[string]any{"type": "array"},
		"differentials": map[string]any{"type": "array"},
		"questions":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"confidence":    map[string]any{"type": []string{"number", "null"}},
	},
	"additionalProperties": true,
}

type stableEntry struct {
	key           StableBlockKey
	messages      []Message
	tokenEstimate int
}

// stableCache is a small LRU cache keyed by (modelID, schemaVersion),
// move-to-front on hit, evicting the least-recently-used entry once over
// capacity.
type stableCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	index    map[StableBlockKey]*list.Element
}

func newStableCache(capacity int) *stableCache {
	if capacity <= 0 {
		capacity = defaultStableCacheSize
	}
	return &stableCache{
		capacity: capacity,
		ll:       list.New(),
		index:    make(map[StableBlockKey]*list.Element),
	}
}

func (c *stableCache) get(key StableBlockKey, build func() []Message) ([]Message, CacheState, int) {
	c.mu.Lock()
	if el, ok := c.index[key]; ok {
		c.ll.MoveToFront(el)
		entry := el.Value.(*stableEntry)
		messages := cloneMessages(entry.messages)
		tokenEstimate := entry.tokenEstimate
		c.mu.Unlock()
		return messages, CacheHit, tokenEstimate
	}
	c.mu.Unlock()

	built := build()
	cloned := cloneMessages(built)
	tokenEstimate := estimateTokens(cloned)

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		// Another caller populated this key concurrently; prefer its entry.
		c.ll.MoveToFront(el)
		entry := el.Value.(*stableEntry)
		return cloneMessages(entry.messages), CacheHit, entry.tokenEstimate
	}
	el := c.ll.PushFront(&stableEntry{key: key, messages: cloned, tokenEstimate: tokenEstimate})
	c.index[key] = el
	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.index, oldest.Value.(*stableEntry).key)
	}
	return cloneMessages(cloned), CacheMiss, tokenEstimate
}

func cloneMessages(messages []Message) []Message {
	cloned := make([]Message, len(messages))
	copy(cloned, messages)
	return cloned
}

func estimateTokens(messages []Message) int {
	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
	}
	estimate := chars / 4
	if estimate < 0 {
		return 0
	}
	return estimate
}

// Builder builds stable and dynamic prompt blocks. Thread-safe; the stable
// block cache is the only mutable state.
type Builder struct {
	cache    *stableCache
	scrubber Scrubber
}

// Scrubber is the capability this package needs from the PHI scrubber.
type Scrubber interface {
	Scrub(text string) string
}

// NewBuilder constructs a Builder with the given stable-block cache
// capacity (0 uses the default of 32) and PHI scrubber.
func NewBuilder(cacheCapacity int, scrubber Scrubber) *Builder {
	return &Builder{cache: newStableCache(cacheCapacity), scrubber: scrubber}
}

// BuildStableBlock returns the cached (or freshly built) stable block for
// modelID and schemaVersion, built with policyVersion on a cache miss. The
// cache key does not include policyVersion, so a hit returns the block as
// first built. Returned messages are defensively copied.
func (b *Builder) BuildStableBlock(modelID, schemaVersion, policyVersion string) ([]Message, CacheState, int) {
	normalizedModel := strings.ToLower(strings.TrimSpace(modelID))
	if normalizedModel == "" {
		normalizedModel = "default"
	}
	key := StableBlockKey{ModelID: normalizedModel, SchemaVersion: strings.TrimSpace(schemaVersion)}

	return b.cache.get(key, func() []Message {
		schemaJSON, _ := json.MarshalIndent(ResponseSchema, "", "  ")
		if policyVersion == "" {
			policyVersion = "unspecified"
		}
		return []Message{
			{Role: "system", Content: systemRubric},
			{Role: "system", Content: fmt.Sprintf("Respond with JSON matching schema version %s:\n%s", schemaVersion, schemaJSON)},
			{Role: "system", Content: fmt.Sprintf(policyTemplate, policyVersion)},
		}
	})
}

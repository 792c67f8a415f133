// Package recommend splits assistant output into prose and the embedded
// job-recommendation payload the generator is instructed to append.
package recommend

import (
	"encoding/json"
	"strings"
)

// Marker is the literal token the generator emits before the JSON job list.
// The prompt assembler and this extractor must agree on it exactly.
const Marker = "JOB_RECOMMENDATIONS:"

// Item is one recommended job surfaced to the consumer
type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	URL      string `json:"url"`
}

// valid requires every field to be non-empty; partial items are dropped
func (i Item) valid() bool {
	return strings.TrimSpace(i.ID) != "" &&
		strings.TrimSpace(i.Title) != "" &&
		strings.TrimSpace(i.Company) != "" &&
		strings.TrimSpace(i.Location) != "" &&
		strings.TrimSpace(i.URL) != ""
}

// Result is the parsed assistant response
type Result struct {
	Prose string `json:"prose"`
	Jobs  []Item `json:"jobs"`
}

// Extract splits raw assistant text at the first marker occurrence and parses
// the trailing payload as a JSON job array. The input is model output, so
// nothing about it is trusted: a missing marker returns the whole text as
// prose, and an unparseable payload degrades to an empty job list with the
// prose preserved. It never fails.
func Extract(raw string) Result {
	idx := strings.Index(raw, Marker)
	if idx < 0 {
		return Result{Prose: raw}
	}

	prose := strings.TrimSpace(raw[:idx])
	payload := strings.TrimSpace(raw[idx+len(Marker):])
	payload = stripCodeFence(payload)

	var items []Item
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return Result{Prose: prose}
	}

	jobs := make([]Item, 0, len(items))
	for _, item := range items {
		if item.valid() {
			jobs = append(jobs, item)
		}
	}

	return Result{Prose: prose, Jobs: jobs}
}

// stripCodeFence extracts the interior of a leading ``` block, if present.
// Payloads without a fence are returned trimmed and untouched.
func stripCodeFence(payload string) string {
	if !strings.HasPrefix(payload, "```") {
		return payload
	}

	// Drop the opening fence line ("```" or "```json")
	rest := payload[3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		rest = strings.TrimPrefix(rest, "json")
	}

	// Cut at the closing fence when the model bothered to close it
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}

	return strings.TrimSpace(rest)
}

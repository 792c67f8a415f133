package chatsrv

import (
	"fmt"
	"strings"

	"github.com/adi-uchiha/jems/chat/recommend"
	"github.com/adi-uchiha/jems/resume"
	"github.com/adi-uchiha/jems/retrieval"
)

// AssembleSystemPrompt builds the grounding system prompt for one turn from
// the résumé snapshot and the retrieved postings. Pure function: same inputs,
// same prompt.
//
// Policy invariant: when postings are empty the prompt falls back to generic
// career advice and never mentions the recommendation marker, so the
// generator is never invited to fabricate a machine-readable job block
// without grounding context.
func AssembleSystemPrompt(snapshot *resume.Snapshot, postings []retrieval.RetrievedPosting) string {
	var sb strings.Builder

	sb.WriteString("You are Jems, an AI career assistant. You help the user explore job ")
	sb.WriteString("opportunities and give practical, honest career advice grounded in ")
	sb.WriteString("their background.\n\n")

	sb.WriteString("Rules:\n")
	sb.WriteString("- Be conversational and concrete; avoid generic filler.\n")
	sb.WriteString("- Only reference skills and experience the user actually has.\n")
	sb.WriteString("- Never invent job openings, companies, or URLs.\n\n")

	if snapshot.IsEmpty() {
		sb.WriteString("The user has no résumé on file. Do not assume anything about ")
		sb.WriteString("their background; ask clarifying questions when their experience matters.\n\n")
	} else {
		sb.WriteString("=== USER RESUME ===\n")
		sb.WriteString(snapshot.FormatForPrompt())
		sb.WriteString("\n\n")
	}

	if len(postings) == 0 {
		sb.WriteString("No relevant job postings were found for the user's request. ")
		sb.WriteString("Give helpful general career advice instead, and do not present ")
		sb.WriteString("any specific job opening as if it were real.\n")
		return sb.String()
	}

	sb.WriteString("=== MATCHED JOB POSTINGS ===\n")
	for _, p := range postings {
		fmt.Fprintf(&sb, "- [%s] %s at %s (%s) %s", p.ID, p.Title, p.Company, p.Location, p.URL)
		if p.Source != "" {
			fmt.Fprintf(&sb, " via %s", p.Source)
		}
		fmt.Fprintf(&sb, " (relevance %.2f)\n", p.Score)
	}
	sb.WriteString("\n")

	sb.WriteString("Response format:\n")
	sb.WriteString("1. Write a conversational recommendation explaining which of these ")
	sb.WriteString("postings fit the user and why, referencing concrete skills and ")
	sb.WriteString("experience from their résumé.\n")
	fmt.Fprintf(&sb, "2. Then, on a new line, append the literal text %s immediately ", recommend.Marker)
	sb.WriteString("followed by a JSON array of the postings above, each object with ")
	sb.WriteString(`exactly the keys "id", "title", "company", "location" and "url". `)
	sb.WriteString("Emit the marker exactly once and nothing after the JSON array.\n")

	return sb.String()
}

package guard

import (
	"encoding/json"
	"fmt"
	"strings"
)

const maxQuotedOutputRunes = 12000

// reaskPrompt builds the repair prompt for a re-ask round: the output
// contract, the model's previous output, and the validation issues it
// must address.
func reaskPrompt(schema json.RawMessage, lastOutput string, issues []string) string {
	lastOutput = strings.TrimSpace(lastOutput)
	if runes := []rune(lastOutput); len(runes) > maxQuotedOutputRunes {
		lastOutput = string(runes[:maxQuotedOutputRunes]) + "\n...[truncated]"
	}

	var b strings.Builder
	b.WriteString("Your previous answer failed validation. ")
	b.WriteString("Return ONLY valid JSON (no markdown, no commentary) that strictly conforms to this schema.\n\n")
	fmt.Fprintf(&b, "Schema:\n%s\n\n", string(schema))
	fmt.Fprintf(&b, "Your previous output:\n%s\n\n", lastOutput)
	b.WriteString("Validation issues:\n")
	for _, issue := range issues {
		b.WriteString("- ")
		b.WriteString(issue)
		b.WriteString("\n")
	}
	return b.String()
}

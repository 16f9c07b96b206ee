package llm

import (
	"fmt"
	"strings"

	"github.com/dgallion1/bookrag/internal/retrieve"
)

const maxContextChunkLen = 500

// FormatContext renders retrieval results as a context block. Indentation
// mirrors the hierarchy level, so the model sees document structure, not a
// flat pile of passages. Parent context is suppressed for structural and
// overview queries: those already retrieve the coarse chunks themselves.
func FormatContext(results []retrieve.Result, intent retrieve.Intent) string {
	if len(results) == 0 {
		return "No relevant context found."
	}

	var parts []string
	for i, r := range results {
		indent := ""
		if r.Meta.Level > 1 {
			indent = strings.Repeat("  ", r.Meta.Level-1)
		}

		if r.ParentText != "" && intent != retrieve.IntentStructural && intent != retrieve.IntentOverview {
			parts = append(parts, indent+"Context from parent: "+r.ParentText)
		}

		text := r.Text
		if len(text) > maxContextChunkLen {
			text = text[:maxContextChunkLen] + "... [truncated]"
		}

		parts = append(parts, fmt.Sprintf("%s[Level %d: %s]", indent, r.Meta.Level, r.Meta.Type))
		parts = append(parts, indent+text)

		if i < len(results)-1 {
			parts = append(parts, strings.Repeat("-", 40))
		}
	}
	return strings.Join(parts, "\n")
}

// instructionFor maps an intent to the answer-shaping instruction.
func instructionFor(intent retrieve.Intent) string {
	switch intent {
	case retrieve.IntentOverview:
		return "Provide a comprehensive overview. Focus on main themes and key points."
	case retrieve.IntentDetail:
		return "Provide specific, detailed information. Include exact events and descriptions."
	case retrieve.IntentCharacter:
		return "Focus on character traits, actions, and significance in the story."
	case retrieve.IntentStructural:
		return "Focus on the structure, organization, and key sections."
	default:
		return "Provide a clear, accurate answer based on the context."
	}
}

// BuildPrompt assembles the full generation prompt for a question and its
// formatted context.
func BuildPrompt(context, question string, intent retrieve.Intent) string {
	var sb strings.Builder
	sb.WriteString("You are an expert on Homer's Odyssey. Answer the question based on the provided context.\n\n")
	sb.WriteString("Context (organized by document structure - indentation shows hierarchy):\n")
	sb.WriteString(context)
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n\n")
	sb.WriteString(instructionFor(intent))
	sb.WriteString("\n\nGuidelines:\n")
	sb.WriteString("1. Base your answer primarily on the context provided.\n")
	sb.WriteString("2. If the context doesn't fully answer, you may supplement with general knowledge.\n")
	sb.WriteString("3. Be specific about characters, events, and locations when possible.\n")
	sb.WriteString("4. Do not invent or hallucinate details not present in the context.\n")
	sb.WriteString("5. If unsure, acknowledge the limitations of the available information.\n\n")
	sb.WriteString("Answer in clear, concise English:")
	return sb.String()
}

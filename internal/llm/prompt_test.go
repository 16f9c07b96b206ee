package llm

import (
	"strings"
	"testing"

	"github.com/dgallion1/bookrag/internal/chunk"
	"github.com/dgallion1/bookrag/internal/retrieve"
)

func TestFormatContext_Empty(t *testing.T) {
	got := FormatContext(nil, retrieve.IntentGeneral)
	if got != "No relevant context found." {
		t.Errorf("unexpected empty-context text: %q", got)
	}
}

func TestFormatContext_IndentationFollowsLevel(t *testing.T) {
	results := []retrieve.Result{
		{ChunkID: "book_0", Text: "BOOK I", Meta: chunk.Meta{Level: 1, Type: chunk.TypeBookOverview}},
		{ChunkID: "para_1", Text: "Odysseus sails home", Meta: chunk.Meta{Level: 4, Type: chunk.TypeParagraph}},
	}
	got := FormatContext(results, retrieve.IntentGeneral)

	if !strings.Contains(got, "[Level 1: book_overview]\nBOOK I") {
		t.Errorf("level-1 chunk must not be indented:\n%s", got)
	}
	if !strings.Contains(got, "      [Level 4: paragraph]\n      Odysseus sails home") {
		t.Errorf("level-4 chunk must be indented three stops:\n%s", got)
	}
	if !strings.Contains(got, strings.Repeat("-", 40)) {
		t.Errorf("expected separator between results:\n%s", got)
	}
}

func TestFormatContext_ParentSuppressedForStructuralAndOverview(t *testing.T) {
	results := []retrieve.Result{
		{ChunkID: "para_1", Text: "Odysseus sails home", ParentText: "BOOK I", Meta: chunk.Meta{Level: 4, Type: chunk.TypeParagraph}},
	}

	for _, intent := range []retrieve.Intent{retrieve.IntentStructural, retrieve.IntentOverview} {
		if got := FormatContext(results, intent); strings.Contains(got, "Context from parent") {
			t.Errorf("%s: parent context must be suppressed:\n%s", intent, got)
		}
	}
	if got := FormatContext(results, retrieve.IntentDetail); !strings.Contains(got, "Context from parent: BOOK I") {
		t.Errorf("detail: parent context must be shown:\n%s", got)
	}
}

func TestFormatContext_TruncatesLongChunks(t *testing.T) {
	results := []retrieve.Result{
		{ChunkID: "para_1", Text: strings.Repeat("x", 600), Meta: chunk.Meta{Level: 4, Type: chunk.TypeParagraph}},
	}
	got := FormatContext(results, retrieve.IntentGeneral)
	if !strings.Contains(got, "... [truncated]") {
		t.Error("expected truncation marker for oversized chunk")
	}
	if strings.Contains(got, strings.Repeat("x", 501)) {
		t.Error("chunk text not truncated at the limit")
	}
}

func TestBuildPrompt_CarriesQuestionContextAndInstruction(t *testing.T) {
	prompt := BuildPrompt("some context", "Who waits for Odysseus?", retrieve.IntentCharacter)

	for _, want := range []string{
		"some context",
		"Question: Who waits for Odysseus?",
		"character traits",
		"Do not invent or hallucinate",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_InstructionVariesByIntent(t *testing.T) {
	overview := BuildPrompt("c", "q", retrieve.IntentOverview)
	structural := BuildPrompt("c", "q", retrieve.IntentStructural)
	if !strings.Contains(overview, "comprehensive overview") {
		t.Error("overview instruction missing")
	}
	if !strings.Contains(structural, "structure, organization") {
		t.Error("structural instruction missing")
	}
}

package retrieve

import "testing"

func TestClassify_Precedence(t *testing.T) {
	cases := []struct {
		query string
		want  Intent
	}{
		// Character names win over everything else.
		{"Who is Athena?", IntentCharacter},
		{"Summarize what Odysseus did in Book 9", IntentCharacter},
		// Overview phrases are checked before structural keywords.
		{"Summarize Book 1", IntentOverview},
		{"Tell me about the suitors", IntentOverview},
		// No topical awareness: "what is" matches regardless of subject.
		{"What is the capital of France", IntentOverview},
		{"How did the crew escape the cave?", IntentDetail},
		{"Specifically, what weapon was used?", IntentDetail},
		{"Which chapter covers the storm?", IntentStructural},
		{"the wanderings across the sea", IntentGeneral},
	}

	for _, tc := range cases {
		if got := Classify(tc.query); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.query, got, tc.want)
		}
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	if got := Classify("WHO IS ATHENA"); got != IntentCharacter {
		t.Errorf("expected character for uppercase query, got %s", got)
	}
}

func TestParamsFor_Table(t *testing.T) {
	const k, threshold = 5, 0.25

	cases := []struct {
		intent Intent
		want   Params
	}{
		{IntentOverview, Params{K: 3, Threshold: 0.225, IncludeParent: true, IncludeChildren: false}},
		{IntentDetail, Params{K: 5, Threshold: 0.25, IncludeParent: true, IncludeChildren: true}},
		{IntentCharacter, Params{K: 5, Threshold: 0.25, IncludeParent: true, IncludeChildren: false}},
		{IntentStructural, Params{K: 5, Threshold: 0.2, IncludeParent: false, IncludeChildren: true}},
		{IntentGeneral, Params{K: 5, Threshold: 0.25, IncludeParent: true, IncludeChildren: false}},
	}

	for _, tc := range cases {
		got := ParamsFor(tc.intent, k, threshold)
		if got.K != tc.want.K {
			t.Errorf("%s: K = %d, want %d", tc.intent, got.K, tc.want.K)
		}
		if diff := got.Threshold - tc.want.Threshold; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("%s: Threshold = %f, want %f", tc.intent, got.Threshold, tc.want.Threshold)
		}
		if got.IncludeParent != tc.want.IncludeParent {
			t.Errorf("%s: IncludeParent = %v, want %v", tc.intent, got.IncludeParent, tc.want.IncludeParent)
		}
		if got.IncludeChildren != tc.want.IncludeChildren {
			t.Errorf("%s: IncludeChildren = %v, want %v", tc.intent, got.IncludeChildren, tc.want.IncludeChildren)
		}
	}
}

func TestParamsFor_KCaps(t *testing.T) {
	if got := ParamsFor(IntentOverview, 2, 0.3); got.K != 2 {
		t.Errorf("overview must not raise k: got %d", got.K)
	}
	if got := ParamsFor(IntentDetail, 10, 0.3); got.K != 7 {
		t.Errorf("detail caps k at 7: got %d", got.K)
	}
}

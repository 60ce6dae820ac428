package entity

import (
	"strings"
	"testing"
)

func TestBuildPromptSubstitutesFields(t *testing.T) {
	tests := []struct {
		name   string
		mode   Mode
		fields map[string]string
	}{
		{
			name:   "problem generation",
			mode:   ModeProblemGeneration,
			fields: map[string]string{FieldNiche: "pet grooming"},
		},
		{
			name:   "product build",
			mode:   ModeProductBuild,
			fields: map[string]string{FieldNiche: "home baking", FieldExperience: "5 years as a pastry chef"},
		},
		{
			name:   "monetization tips",
			mode:   ModeMonetizationTips,
			fields: map[string]string{FieldNiche: "fitness", FieldProduct: "12-week kettlebell course"},
		},
		{
			name:   "full product",
			mode:   ModeFullProduct,
			fields: map[string]string{FieldIdea: "budget planner for freelancers"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := BuildPrompt(NewGenerationRequest(tt.mode, tt.fields))
			if !ok {
				t.Fatalf("BuildPrompt(%q) reported unknown mode", tt.mode)
			}
			if p.Text == "" {
				t.Fatal("prompt text is empty")
			}
			if p.System == "" {
				t.Fatal("system instruction is empty")
			}
			if p.ID != tt.mode {
				t.Errorf("ID = %q, want %q", p.ID, tt.mode)
			}
			for name, value := range tt.fields {
				if !strings.Contains(p.Text, value) {
					t.Errorf("prompt does not contain %s value %q:\n%s", name, value, p.Text)
				}
			}
		})
	}
}

func TestBuildPromptDefaults(t *testing.T) {
	p, ok := BuildPrompt(NewGenerationRequest(ModeProblemGeneration, nil))
	if !ok {
		t.Fatal("problem_generation should be known")
	}
	if !strings.Contains(p.Text, "'general'") {
		t.Errorf("expected default niche in prompt, got: %s", p.Text)
	}

	p, _ = BuildPrompt(NewGenerationRequest(ModeProductBuild, map[string]string{FieldNiche: "chess"}))
	if !strings.Contains(p.Text, "user experience: ''") {
		t.Errorf("expected empty experience in prompt, got: %s", p.Text)
	}
}

func TestBuildPromptFullProductUsesExpertSettings(t *testing.T) {
	p, _ := BuildPrompt(NewGenerationRequest(ModeFullProduct, map[string]string{FieldIdea: "x"}))
	if p.System != astraExpertSystemPrompt {
		t.Errorf("full_product should use the expert system instruction")
	}
	if p.MaxTokens != fullProductMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", p.MaxTokens, fullProductMaxTokens)
	}

	p, _ = BuildPrompt(NewGenerationRequest(ModeProblemGeneration, nil))
	if p.MaxTokens != 0 {
		t.Errorf("problem_generation should not override MaxTokens, got %d", p.MaxTokens)
	}
}

func TestBuildPromptUnknownMode(t *testing.T) {
	if _, ok := BuildPrompt(NewGenerationRequest(Mode("haiku"), nil)); ok {
		t.Fatal("expected unknown mode to be rejected")
	}
}

func TestUnknownModeResult(t *testing.T) {
	res := UnknownModeResult(Mode("haiku"))
	if !res.OK {
		t.Error("unknown mode result should be ok")
	}
	if res.Text != "Unknown mode: haiku" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Parsed != nil {
		t.Error("unknown mode result should not carry parsed output")
	}
}

func TestNicheOrIdea(t *testing.T) {
	r := NewGenerationRequest(ModeFullProduct, map[string]string{FieldNiche: "ignored", FieldIdea: "meal kits"})
	if got := r.NicheOrIdea(); got != "meal kits" {
		t.Errorf("NicheOrIdea() = %q, want idea", got)
	}
	r = NewGenerationRequest(ModeMonetizationTips, map[string]string{FieldNiche: "gardening"})
	if got := r.NicheOrIdea(); got != "gardening" {
		t.Errorf("NicheOrIdea() = %q, want niche", got)
	}
}

func TestModeKnown(t *testing.T) {
	for _, m := range Modes {
		if !m.Known() {
			t.Errorf("%q should be known", m)
		}
	}
	if Mode("PROBLEM_GENERATION").Known() {
		t.Error("mode matching is exact")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in    string
		want  Mode
		known bool
	}{
		{"problem_generation", ModeProblemGeneration, true},
		{"  Full_Product ", ModeFullProduct, true},
		{"MONETIZATION_TIPS", ModeMonetizationTips, true},
		{"Haiku", Mode("Haiku"), false},
		{"", Mode(""), false},
	}

	for _, tt := range tests {
		got, known := ParseMode(tt.in)
		if got != tt.want || known != tt.known {
			t.Errorf("ParseMode(%q) = %q, %v; want %q, %v", tt.in, got, known, tt.want, tt.known)
		}
	}
}

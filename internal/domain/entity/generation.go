package entity

import (
	"encoding/json"
	"fmt"
)

// Request field names shared by the HTTP layer and the prompt templates.
const (
	FieldNiche      = "niche"
	FieldExperience = "experience"
	FieldProduct    = "product"
	FieldIdea       = "idea"
)

// fieldDefaults is the single place request defaults live.
// Any field not listed here defaults to the empty string.
var fieldDefaults = map[string]string{
	FieldNiche: "general",
	FieldIdea:  "general",
}

// GenerationRequest is one caller request, alive for a single HTTP call.
type GenerationRequest struct {
	Mode   Mode              `json:"mode"`
	Fields map[string]string `json:"inputs"`
}

func NewGenerationRequest(mode Mode, fields map[string]string) GenerationRequest {
	if fields == nil {
		fields = map[string]string{}
	}
	return GenerationRequest{Mode: mode, Fields: fields}
}

// Field returns the caller supplied value, or the field default when the
// caller left it out or sent an empty string.
func (r GenerationRequest) Field(name string) string {
	if v, ok := r.Fields[name]; ok && v != "" {
		return v
	}
	return fieldDefaults[name]
}

// NicheOrIdea is the subject of the request: the idea for full_product,
// the niche for every other mode.
func (r GenerationRequest) NicheOrIdea() string {
	if r.Mode == ModeFullProduct {
		return r.Field(FieldIdea)
	}
	return r.Field(FieldNiche)
}

// GenerationResult is what the relay hands back to the HTTP layer.
// OK=false means Text holds an error description. Parsed is set only when
// the provider output was valid JSON.
type GenerationResult struct {
	OK     bool
	Text   string
	Parsed json.RawMessage
}

func ResultFromShape(s Shaped) GenerationResult {
	return GenerationResult{
		OK:     true,
		Text:   s.Text(),
		Parsed: s.Value(),
	}
}

// UnknownModeResult is returned for unrecognized modes. It is a successful
// result carrying a fixed message, not an error.
func UnknownModeResult(mode Mode) GenerationResult {
	return GenerationResult{
		OK:   true,
		Text: fmt.Sprintf("Unknown mode: %s", mode),
	}
}

func FailedResult(err error) GenerationResult {
	return GenerationResult{
		OK:   false,
		Text: err.Error(),
	}
}

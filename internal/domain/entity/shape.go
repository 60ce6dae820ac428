package entity

import (
	"bytes"
	"encoding/json"
	"strings"
)

type ShapeKind int

const (
	ShapeRaw ShapeKind = iota
	ShapeStructured
)

func (k ShapeKind) String() string {
	if k == ShapeStructured {
		return "structured"
	}
	return "raw"
}

// Shaped is provider output after the best-effort JSON pass: either
// Structured (valid JSON, re-indented) or Raw (original text untouched).
type Shaped struct {
	kind  ShapeKind
	text  string
	value json.RawMessage
}

func Raw(text string) Shaped {
	return Shaped{kind: ShapeRaw, text: text}
}

func Structured(value json.RawMessage) Shaped {
	return Shaped{kind: ShapeStructured, text: string(value), value: value}
}

func (s Shaped) Kind() ShapeKind { return s.kind }

func (s Shaped) Text() string { return s.text }

// Value is nil for Raw output.
func (s Shaped) Value() json.RawMessage { return s.value }

// Shape tries to read raw as JSON. Valid JSON is re-encoded with two-space
// indentation, keeping key order and number literals; anything else comes
// back as Raw with the exact input.
func Shape(raw string) Shaped {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return Raw(raw)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return Raw(raw)
	}
	return Structured(buf.Bytes())
}

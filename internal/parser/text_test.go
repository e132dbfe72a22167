package parser

import (
	"strings"
	"testing"
)

func TestTextParser_KeepsLineStructure(t *testing.T) {
	input := "FINDINGS:\nHeart size is normal.\nNo pleural effusion."
	p := &TextParser{}
	text, err := p.Parse(strings.NewReader(input), "report.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != input {
		t.Errorf("expected %q, got %q", input, text)
	}
}

func TestTextParser_NormalizesCRLF(t *testing.T) {
	input := "FINDINGS:\r\nHeart size is normal.\r\n"
	p := &TextParser{}
	text, err := p.Parse(strings.NewReader(input), "report.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "FINDINGS:\nHeart size is normal."
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	text, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty output, got %q", text)
	}
}

func TestTextParser_KeepsBlankLines(t *testing.T) {
	// Blank lines separate sections in many dictated reports and must
	// survive for the segmenter.
	input := "FINDINGS: Clear lungs.\n\nIMPRESSION: No acute disease."
	p := &TextParser{}
	text, err := p.Parse(strings.NewReader(input), "report.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != input {
		t.Errorf("expected %q, got %q", input, text)
	}
}

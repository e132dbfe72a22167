package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingsBecomeLines(t *testing.T) {
	input := `## Findings

Heart size is normal.
No pleural effusion.

## Impression

No acute disease.
`
	p := &MarkdownParser{}
	text, err := p.Parse(strings.NewReader(input), "report.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Findings\nHeart size is normal.\nNo pleural effusion.\nImpression\nNo acute disease."
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := `Just some plain text.

Another paragraph here.`

	p := &MarkdownParser{}
	text, err := p.Parse(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Just some plain text.\nAnother paragraph here."
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestMarkdownParser_InlineFormattingStripped(t *testing.T) {
	input := "The **cardiac silhouette** is *normal*.\n"
	p := &MarkdownParser{}
	text, err := p.Parse(strings.NewReader(input), "report.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "The cardiac silhouette is normal."
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestMarkdownParser_ListItemsKeepOwnLines(t *testing.T) {
	input := "FINDINGS\n\n- No pleural effusion.\n- Heart size normal.\n"
	p := &MarkdownParser{}
	text, err := p.Parse(strings.NewReader(input), "report.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "FINDINGS\nNo pleural effusion.\nHeart size normal."
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestMarkdownParser_CodeBlockContentKept(t *testing.T) {
	input := "Technique:\n\n```\nAP upright view\n```\n"
	p := &MarkdownParser{}
	text, err := p.Parse(strings.NewReader(input), "report.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "AP upright view") {
		t.Errorf("expected code block content in output, got %q", text)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	text, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty output, got %q", text)
	}
}

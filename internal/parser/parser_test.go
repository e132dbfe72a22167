package parser

import (
	"fmt"
	"testing"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"report.txt", "*parser.TextParser"},
		{"report.md", "*parser.MarkdownParser"},
		{"report.markdown", "*parser.MarkdownParser"},
		{"report.html", "*parser.HTMLParser"},
		{"report.htm", "*parser.HTMLParser"},
		{"report.pdf", "*parser.PDFParser"},
		{"report.docx", "*parser.DOCXParser"},
		{"REPORT.TXT", "*parser.TextParser"},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.filename)
		if err != nil {
			t.Errorf("ForFile(%q): unexpected error: %v", tt.filename, err)
			continue
		}
		if got := fmt.Sprintf("%T", p); got != tt.want {
			t.Errorf("ForFile(%q) = %s, want %s", tt.filename, got, tt.want)
		}
	}
}

func TestForFile_Unsupported(t *testing.T) {
	for _, filename := range []string{"report.csv", "report.xlsx", "report", "report.exe"} {
		if _, err := ForFile(filename); err == nil {
			t.Errorf("ForFile(%q): expected error, got nil", filename)
		}
	}
}

func TestIsSupportedExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"report.txt", true},
		{"report.PDF", true},
		{"report.docx", true},
		{"report.csv", false},
		{"report", false},
	}
	for _, tt := range tests {
		if got := IsSupportedExtension(tt.filename); got != tt.want {
			t.Errorf("IsSupportedExtension(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

package lsp

import "testing"

func TestApplyChanges(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		changes []textDocumentContentChangeEvent
		want    string
	}{
		{
			name:    "full replace",
			text:    "old",
			changes: []textDocumentContentChangeEvent{{Text: "new"}},
			want:    "new",
		},
		{
			name: "insert at start",
			text: "one\ntwo\n",
			changes: []textDocumentContentChangeEvent{{
				Range: &lspRange{Start: position{Line: 1, Character: 0}, End: position{Line: 1, Character: 0}},
				Text:  "// ",
			}},
			want: "one\n// two\n",
		},
		{
			name: "surrogate pair counts twice",
			text: "a😀b\n",
			changes: []textDocumentContentChangeEvent{{
				Range: &lspRange{Start: position{Line: 0, Character: 3}, End: position{Line: 0, Character: 4}},
				Text:  "c",
			}},
			want: "a😀c\n",
		},
		{
			name: "sequential edits see earlier ones",
			text: "fn a()\n",
			changes: []textDocumentContentChangeEvent{
				{Range: &lspRange{Start: position{Line: 0, Character: 3}, End: position{Line: 0, Character: 4}}, Text: "main"},
				{Range: &lspRange{Start: position{Line: 0, Character: 0}, End: position{Line: 0, Character: 0}}, Text: "pub "},
			},
			want: "pub fn main()\n",
		},
		{
			name: "range past the end clamps",
			text: "x",
			changes: []textDocumentContentChangeEvent{{
				Range: &lspRange{Start: position{Line: 5, Character: 0}, End: position{Line: 9, Character: 9}},
				Text:  "y",
			}},
			want: "xy",
		},
		{
			name: "reversed range inserts",
			text: "abc",
			changes: []textDocumentContentChangeEvent{{
				Range: &lspRange{Start: position{Line: 0, Character: 2}, End: position{Line: 0, Character: 1}},
				Text:  "-",
			}},
			want: "ab-c",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := applyChanges(tt.text, tt.changes); got != tt.want {
				t.Fatalf("applyChanges() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestURIRoundTrip(t *testing.T) {
	path := "/tmp/project with space/src/app.sg"
	uri := pathToURI(path)
	if uri != "file:///tmp/project%20with%20space/src/app.sg" {
		t.Fatalf("unexpected uri %q", uri)
	}
	if got := uriToPath(uri); got != path {
		t.Fatalf("uriToPath(%q) = %q", uri, got)
	}
	if got := uriToPath("untitled:Untitled-1"); got != "" {
		t.Fatalf("expected non-file scheme to be ignored, got %q", got)
	}
}

func TestCanonicalURI(t *testing.T) {
	want := "file:///tmp/project/src/app.sg"
	for _, uri := range []string{
		want,
		"file:///tmp/project/src/../src/./app.sg",
		"file:///tmp/project/src/%61pp.sg",
		"/tmp/project/src/app.sg",
	} {
		if got := canonicalURI(uri); got != want {
			t.Fatalf("canonicalURI(%q) = %q, want %q", uri, got, want)
		}
	}
	if got := canonicalURI("untitled:Untitled-1"); got != "" {
		t.Fatalf("expected no key for a non-file uri, got %q", got)
	}
}

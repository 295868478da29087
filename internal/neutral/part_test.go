package neutral

import "testing"

func TestKind(t *testing.T) {
	cases := []struct {
		name string
		part Part
		want string
	}{
		{"text", TextPart{Text: "hi"}, "text"},
		{"reasoning", ReasoningPart{Text: "because"}, "reasoning"},
		{"file", FilePart{URL: "https://example.com/a.png"}, "file"},
		{"tool_call", ToolCallPart{CallID: "c1", ToolName: "lookup"}, "tool_call"},
		{"tool_result", ToolResultPart{CallID: "c1", Output: TextOutput{Text: "ok"}}, "tool_result"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Kind(tc.part); got != tc.want {
				t.Fatalf("Kind() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsError(t *testing.T) {
	cases := []struct {
		name string
		out  ToolResultOutput
		want bool
	}{
		{"text", TextOutput{Text: "ok"}, false},
		{"json", JSONOutput{Value: map[string]any{"a": 1}}, false},
		{"error_text", ErrorTextOutput{Text: "boom"}, true},
		{"error_json", ErrorJSONOutput{Value: map[string]any{"code": 1}}, true},
		{"content", ContentOutput{Parts: []ContentItem{}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsError(tc.out); got != tc.want {
				t.Fatalf("IsError() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := NewError(KindDriverUpstream, "upstream 500")
	wrapped := WrapError(KindDriverStream, "decode failed", cause)

	if wrapped.Unwrap() != cause {
		t.Fatalf("Unwrap() did not return the wrapped cause")
	}
	if wrapped.Error() == "" {
		t.Fatalf("Error() returned empty string")
	}
}

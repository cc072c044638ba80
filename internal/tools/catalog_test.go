package tools

import (
	"errors"
	"testing"
)

func TestCatalogValidate(t *testing.T) {
	catalog := DefaultCatalog()

	tests := []struct {
		name       string
		call       *FunctionCall
		wantReason string
	}{
		{
			name: "valid calendar call",
			call: &FunctionCall{
				Name: "get_google_calendar_events",
				Args: map[string]any{"date": "tomorrow"},
			},
		},
		{
			name: "valid search call",
			call: &FunctionCall{
				Name: "search_the_web",
				Args: map[string]any{"query": "latest space missions"},
			},
		},
		{
			name:       "unknown tool rejected",
			call:       &FunctionCall{Name: "delete_all_files", Args: map[string]any{}},
			wantReason: "tool is not declared in the catalog",
		},
		{
			name:       "missing required argument rejected",
			call:       &FunctionCall{Name: "get_google_calendar_events", Args: map[string]any{}},
			wantReason: "required argument 'date' is missing",
		},
		{
			name: "undeclared argument rejected",
			call: &FunctionCall{
				Name: "search_the_web",
				Args: map[string]any{"query": "x", "limit": float64(5)},
			},
			wantReason: "argument 'limit' is not declared for this tool",
		},
		{
			name: "wrong argument type rejected",
			call: &FunctionCall{
				Name: "get_google_calendar_events",
				Args: map[string]any{"date": float64(20260823)},
			},
			wantReason: "argument 'date' must be of type string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := catalog.Validate(tt.call)
			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var malformed *MalformedCallError
			if !errors.As(err, &malformed) {
				t.Fatalf("Validate() = %v, want *MalformedCallError", err)
			}
			if malformed.Reason != tt.wantReason {
				t.Fatalf("reason = %q, want %q", malformed.Reason, tt.wantReason)
			}
		})
	}
}

func TestCatalogDefinitionsSorted(t *testing.T) {
	catalog := DefaultCatalog()
	defs := catalog.Definitions()
	if len(defs) != catalog.Count() {
		t.Fatalf("definitions len = %d, count = %d", len(defs), catalog.Count())
	}
	for i := 1; i < len(defs); i++ {
		if defs[i-1].Name >= defs[i].Name {
			t.Fatalf("definitions not sorted: %q before %q", defs[i-1].Name, defs[i].Name)
		}
	}
}

func TestCatalogRegisterReplaces(t *testing.T) {
	catalog := NewCatalog()
	catalog.Register(NewFunctionTool("echo", "first", JSONSchema{Type: "object"}))
	catalog.Register(NewFunctionTool("echo", "second", JSONSchema{Type: "object"}))
	if catalog.Count() != 1 {
		t.Fatalf("count = %d, want 1", catalog.Count())
	}
	if got := catalog.Definitions()[0].Description; got != "second" {
		t.Fatalf("description = %q, want %q", got, "second")
	}
}

package messagequeue

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		data    string
		wantErr string
	}{
		{"generated", SubjectStoryMapGenerated, `{"id":"m1","title":"Map","saved":true,"epics":2,"stories":5,"updated_at":"2025-01-01T00:00:00Z"}`, ""},
		{"refined", SubjectStoryMapRefined, `{"id":"m1","source":"local-rule","intent":"delete"}`, ""},
		{"deleted", SubjectStoryMapDeleted, `{"id":"m1"}`, ""},
		{"imported", SubjectStoryMapImported, `{"imported":3,"migrated":1,"skipped":0}`, ""},
		{"unknown subject", "other.subject", `{"foo":"bar"}`, ""},
		{"invalid json", SubjectStoryMapSaved, `{not valid`, "invalid JSON"},
		{"missing id", SubjectStoryMapSaved, `{"title":"x"}`, "missing id"},
		{"wrong shape", SubjectStoryMapRefined, `"just a string"`, "schema validation failed"},
		{"wrong import shape", SubjectStoryMapImported, `{"imported":"many"}`, "schema validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.subject, []byte(tt.data))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q in error, got: %v", tt.wantErr, err)
			}
		})
	}
}

package infra

import "testing"

func TestExtractMarker(t *testing.T) {
	query := "--sql 0b8f1f2e-52a4-4a53-9a57-3c1f2a1d9e10\nselect 1;"
	marker, body, err := ExtractMarker(query)
	if err != nil {
		t.Fatalf("ExtractMarker error: %v", err)
	}
	if marker != "0b8f1f2e-52a4-4a53-9a57-3c1f2a1d9e10" {
		t.Fatalf("marker = %q", marker)
	}
	if body != "select 1;" {
		t.Fatalf("body = %q", body)
	}
}

func TestExtractMarkerRejectsUntaggedQuery(t *testing.T) {
	for _, query := range []string{"", "select 1;", "--sql not-a-uuid\nselect 1;"} {
		if _, _, err := ExtractMarker(query); err == nil {
			t.Fatalf("expected error for %q", query)
		}
	}
}

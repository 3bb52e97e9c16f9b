package backend

import "testing"

func TestParsePortsBuildsExposedAndBindings(t *testing.T) {
	exposed, bindings, err := parsePorts(map[string]any{
		"ports": []string{"8080:80", "9000:90/udp"},
	})
	if err != nil {
		t.Fatalf("parsePorts: %v", err)
	}
	if len(exposed) != 2 {
		t.Fatalf("expected 2 exposed ports, got %d", len(exposed))
	}
	if len(bindings) != 2 {
		t.Fatalf("expected 2 port bindings, got %d", len(bindings))
	}
}

func TestParsePortsWithNoPortsIsNoop(t *testing.T) {
	exposed, bindings, err := parsePorts(map[string]any{})
	if err != nil {
		t.Fatalf("parsePorts: %v", err)
	}
	if exposed != nil || bindings != nil {
		t.Fatalf("expected nil exposed/bindings when no ports are configured")
	}
}

func TestParsePortsRejectsInvalidSpec(t *testing.T) {
	_, _, err := parsePorts(map[string]any{
		"ports": []string{"not-a-port-spec"},
	})
	if err == nil {
		t.Fatalf("expected an error for an invalid port spec")
	}
}

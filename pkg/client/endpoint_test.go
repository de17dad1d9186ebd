package client

import (
	"testing"
)

func TestParseEndpointDefault(t *testing.T) {
	e, err := ParseEndpoint("")
	if err != nil {
		t.Fatal(err)
	}
	if e.String() != "http://localhost:3010" {
		t.Fatalf("http://localhost:3010 != %s", e.String())
	}
}

func TestParseEndpointTrimsVersion(t *testing.T) {
	for _, raw := range []string{
		"http://10.0.0.1:3010",
		"http://10.0.0.1:3010/",
		"http://10.0.0.1:3010/v1",
		"http://10.0.0.1:3010/v1/",
	} {
		e, err := ParseEndpoint(raw)
		if err != nil {
			t.Fatalf("%s: %v", raw, err)
		}
		if got := e.Resolve("nodes"); got != "http://10.0.0.1:3010/v1/nodes" {
			t.Fatalf("%s: http://10.0.0.1:3010/v1/nodes != %s", raw, got)
		}
	}
}

func TestParseEndpointKeepsHostEndingInV1(t *testing.T) {
	e, err := ParseEndpoint("http://xcat-v1")
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Resolve("/nodes/info"); got != "http://xcat-v1/v1/nodes/info" {
		t.Fatalf("http://xcat-v1/v1/nodes/info != %s", got)
	}
}

func TestParseEndpointInvalid(t *testing.T) {
	for _, raw := range []string{"ftp://host", "localhost:3010", "http://"} {
		if _, err := ParseEndpoint(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestHostPort(t *testing.T) {
	e, _ := ParseEndpoint("")
	h, p := e.HostPort()
	if !(h == "localhost" && p == 3010) {
		t.Fatalf("localhost, 3010 != %s, %d", h, p)
	}

	e, _ = ParseEndpoint("http://127.0.0.1")
	h, p = e.HostPort()
	if !(h == "127.0.0.1" && p == 80) {
		t.Fatalf("127.0.0.1, 80 != %s, %d", h, p)
	}

	e, _ = ParseEndpoint("https://xcat.example.com/v1")
	h, p = e.HostPort()
	if !(h == "xcat.example.com" && p == 443) {
		t.Fatalf("xcat.example.com, 443 != %s, %d", h, p)
	}
}

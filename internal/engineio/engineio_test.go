package engineio

import "testing"

// TestSpawnEchoRoundTrip uses /bin/cat as a stand-in "engine": anything
// written to its stdin comes back unchanged on stdout, which is enough to
// exercise the Send/ReadLine/Close plumbing without a real UCI binary.
func TestSpawnEchoRoundTrip(t *testing.T) {
	conn, err := Spawn("/bin/cat")
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer conn.Close()

	if err := conn.Send("uci"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	line, ok := conn.ReadLine()
	if !ok {
		t.Fatalf("ReadLine: !ok, err=%v", conn.Err())
	}
	if line != "uci" {
		t.Errorf("ReadLine = %q, want %q", line, "uci")
	}
}

func TestSpawnMissingBinary(t *testing.T) {
	if _, err := Spawn("/nonexistent/definitely-not-an-engine"); err == nil {
		t.Error("expected error spawning a nonexistent binary")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	conn, err := Spawn("/bin/cat")
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got: %v", err)
	}
}

package main

import "testing"

func TestRunReturnsExitCodeWhenBootstrapFails(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("LOG_JSON", "false")
	t.Setenv("OBJECT_STORE", "local")
	t.Setenv("LOCAL_STORE_DIR", t.TempDir())
	t.Setenv("KV_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")

	if code := run(); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

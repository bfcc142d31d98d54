package main

import (
	"testing"

	"telefetch/internal/logging"
	"telefetch/internal/testsupport"
)

func TestBootstrapWiresDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	t.Setenv(cfg.Telegram.TokenEnv, "1234:test-token")

	d, err := bootstrap(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestBootstrapSurfacesStoreFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	t.Setenv(cfg.Telegram.TokenEnv, "1234:test-token")

	// A directory where the database file should be makes the first pragma
	// fail, which is the earliest the sqlite driver touches the path.
	cfg.Paths.DBPath = testsupport.BaseDir(cfg)

	if _, err := bootstrap(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected store open failure")
	}
}

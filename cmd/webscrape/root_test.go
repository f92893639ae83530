package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	if cmd.Use != "webscrape" {
		t.Errorf("Use = %q", cmd.Use)
	}

	wantSubs := []string{"scrape", "sessions", "version"}
	for _, name := range wantSubs {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCmdHelp(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute(--help) error = %v", err)
	}
	if !strings.Contains(out.String(), "Universal web scraper") {
		t.Errorf("help output missing description: %s", out.String())
	}
}

func TestScrapeCmdRequiresURL(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"scrape", "--no-state"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("Execute() succeeded without a URL")
	}
	if !strings.Contains(err.Error(), "no start URL") {
		t.Errorf("error = %v, want a no-start-URL message", err)
	}
}

func TestScrapeCmdExplicitMissingConfig(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"scrape", "--config", "/nonexistent/sites.yaml", "https://example.com"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("Execute() succeeded with a missing explicit config file")
	}
	if !strings.Contains(err.Error(), "configuration file not found") {
		t.Errorf("error = %v", err)
	}
}

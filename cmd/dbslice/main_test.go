package main

import "testing"

func TestDescribeCmdRejectsUnregisteredDialect(t *testing.T) {
	cmd := &DescribeCmd{Dialect: "no-such-dialect", DSN: "whatever", Timeout: 1}
	if err := cmd.Run(); err == nil {
		t.Errorf("expected error for unregistered dialect")
	}
}

func TestExtractCmdRejectsMissingConfigFile(t *testing.T) {
	cmd := &ExtractCmd{
		Table:      "customers",
		ID:         "1",
		ConfigFile: "/nonexistent/dataSource.json",
		OutputDir:  t.TempDir(),
	}
	if err := cmd.Run(); err == nil {
		t.Errorf("expected error for missing config file")
	}
}

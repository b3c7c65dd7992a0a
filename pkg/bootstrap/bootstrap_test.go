package bootstrap

import (
	"strings"
	"testing"
)

func testParams() Params {
	return Params{
		Package:      "nuvion-agent",
		Distribution: "stable",
		Component:    "main",
		Architecture: "arm64",
		RepoURL:      "https://apt.nuvion.example.com",
		KeyFile:      "nuvion.asc",
	}
}

func TestRender(t *testing.T) {
	script, err := Render(testParams())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, want := range []string{
		"#!/bin/sh",
		"set -eu",
		// Tool checks precede everything else.
		"command -v",
		// Unsupported architectures are rejected outright.
		`if [ "$arch" != "arm64" ]`,
		// Key goes into a system-trusted keyring location.
		"/usr/share/keyrings/nuvion-agent-archive-keyring.gpg",
		"https://apt.nuvion.example.com/nuvion.asc",
		// Repository definition references the keyring and channel.
		"signed-by=$keyring",
		"https://apt.nuvion.example.com stable main",
		"apt-get update",
		"apt-get install -y nuvion-agent",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q:\n%s", want, script)
		}
	}
}

func TestRenderStepOrder(t *testing.T) {
	script, err := Render(testParams())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	// Each step must run before the next: tools, arch, key, source list,
	// index refresh, install.
	markers := []string{
		"command -v",
		"dpkg --print-architecture",
		"gpg --dearmor",
		"/etc/apt/sources.list.d/",
		"apt-get update",
		"apt-get install",
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(script, m)
		if idx < 0 {
			t.Fatalf("script missing %q", m)
		}
		if idx < last {
			t.Errorf("%q appears out of order", m)
		}
		last = idx
	}
}

func TestRenderValidation(t *testing.T) {
	tests := map[string]func(*Params){
		"missing package":      func(p *Params) { p.Package = "" },
		"missing distribution": func(p *Params) { p.Distribution = "" },
		"missing component":    func(p *Params) { p.Component = "" },
		"missing architecture": func(p *Params) { p.Architecture = "" },
		"missing repo URL":     func(p *Params) { p.RepoURL = "" },
		"missing key file":     func(p *Params) { p.KeyFile = "" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p := testParams()
			mutate(&p)
			if _, err := Render(p); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

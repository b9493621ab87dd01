package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/complyscope/complyscope/pkg/defaults"
)

// TestDispatcherWiringComplete checks that every command listed in the
// usage text is dispatched.
func TestDispatcherWiringComplete(t *testing.T) {
	var usage bytes.Buffer
	printUsage(&usage)

	var commands []string
	inCommands := false
	for _, line := range strings.Split(usage.String(), "\n") {
		switch {
		case strings.HasPrefix(line, "Commands:"):
			inCommands = true
		case inCommands && strings.TrimSpace(line) == "":
			inCommands = false
		case inCommands:
			commands = append(commands, strings.Fields(line)[0])
		}
	}
	assert.Len(t, commands, 6)

	for _, cmd := range commands {
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), []string{cmd, "-h"}, strings.NewReader(""), &stdout, &stderr)
		assert.Equal(t, defaults.ExitSuccess, code, "command %s: %s", cmd, stderr.String())
		assert.NotContains(t, stderr.String(), "unknown command", cmd)
	}
}

package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/vendorroll/internal/fileset"
	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
	"git.home.luguber.info/inful/vendorroll/internal/logfields"
)

// CommandGenerator runs an upstream generator script inside the checkout. The
// script prints one JSON document on stdout:
//
//	{"file_sets": {"crypto": ["crypto/a.cc"]},
//	 "asm_outputs": [{"os": "linux", "arch": "x86_64", "files": ["..."]}]}
type CommandGenerator struct {
	Command []string
}

type generatorOutput struct {
	FileSets   map[string][]string `json:"file_sets"`
	AsmOutputs []fileset.AsmGroup  `json:"asm_outputs"`
}

// Generate implements Generator.
func (g *CommandGenerator) Generate(ctx context.Context, root string, sink Sink) error {
	if len(g.Command) == 0 {
		return errors.ValidationError("generator command is empty").Build()
	}

	cmd := exec.CommandContext(ctx, g.Command[0], g.Command[1:]...)
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Running upstream generator", slog.String("command", strings.Join(g.Command, " ")), logfields.Path(root))
	if err := cmd.Run(); err != nil {
		return errors.ClassificationFailure("generator exited with error").
			WithCause(fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))).
			WithContext("command", g.Command[0]).
			Build()
	}

	return Report(stdout.Bytes(), sink)
}

// Report decodes generator output and forwards it to sink unchanged.
func Report(output []byte, sink Sink) error {
	var out generatorOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return errors.ClassificationFailure("malformed generator output").WithCause(err).Build()
	}
	if out.FileSets == nil {
		return errors.ClassificationFailure("generator output has no file_sets").Build()
	}
	return sink.WriteFiles(out.FileSets, out.AsmOutputs)
}

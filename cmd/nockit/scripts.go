package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/docxology/nockchain/pkg/config"
	"github.com/docxology/nockchain/pkg/errs"
)

// scriptTemplate renders one POSIX shell wrapper. Nockit writes small
// start/stop/check scripts rather than an embedded binary, since the
// node/miner binaries are an external collaborator.
const scriptTemplate = `#!/bin/sh
# Generated by nockit setup. Rerun "nockit setup --force" to refresh.
set -e

NOCKIT_CONFIG_DIR=%q
exec nockit %s --config-dir "$NOCKIT_CONFIG_DIR" "$@"
`

var generatedScripts = map[string]string{
	"start.sh": "mining start",
	"stop.sh":  "mining stop",
	"check.sh": "mining status",
}

// writeScripts (re)writes the start/stop/check wrapper scripts under
// cfg's scripts directory, rewritten idempotently on every setup call.
func writeScripts(dir string, cfg config.Config) error {
	scriptsDir := config.ScriptsDir(dir)
	if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
		return errs.Wrap(errs.IO, "create scripts directory", err)
	}
	for name, verb := range generatedScripts {
		contents := fmt.Sprintf(scriptTemplate, dir, verb)
		path := filepath.Join(scriptsDir, name)
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, []byte(contents), 0o755); err != nil {
			return errs.Wrap(errs.IO, "write script "+name, err)
		}
		if err := os.Rename(tmp, path); err != nil {
			return errs.Wrap(errs.IO, "commit script "+name, err)
		}
	}
	return nil
}

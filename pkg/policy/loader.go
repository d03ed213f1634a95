package policy

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
)

// loadModules reads the built-in policies and the .rego files in cfg.dir
func loadModules(cfg config) ([]func(*rego.Rego), error) {
	var modules []func(*rego.Rego)

	if cfg.builtins {
		files, err := fs.Glob(builtinPolicies, "rego/*.rego")
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list built-in policies")
		}
		for _, file := range files {
			data, err := builtinPolicies.ReadFile(file)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to read built-in policy", goerr.V("path", file))
			}
			modules = append(modules, rego.Module("builtin/"+filepath.Base(file), string(data)))
		}
	}

	if cfg.dir == "" {
		return modules, nil
	}

	files, err := filepath.Glob(filepath.Join(cfg.dir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files", goerr.V("dir", cfg.dir))
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", file))
		}
		modules = append(modules, rego.Module(file, string(data)))
	}

	return modules, nil
}

// Package script writes the shell launchers used to start a built target
// in the background or under gdb.
package script

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/template"
)

const (
	runTemplate = "nohup {{.Exe}} {{.Args}}\n"
	gdbTemplate = "gdb --args {{.Exe}} {{.Args}}\n"
)

var (
	runTmpl = template.Must(template.New("run").Parse(runTemplate))
	gdbTmpl = template.Must(template.New("gdbrun").Parse(gdbTemplate))
)

// Options locate the target binary and where the scripts go.
type Options struct {
	BinDir    string
	ScriptDir string
	Target    string
	// ConfigDir, when set, passes --config <ConfigDir>/<Target>.conf.
	ConfigDir string
	// LogDir, when set, redirects output to <LogDir>/<Target>.log and
	// backgrounds the process.
	LogDir string
}

type view struct {
	Exe  string
	Args string
}

// Args returns the command line appended to the target.
func (o Options) Args() string {
	var args string
	if o.ConfigDir != "" {
		args += "--config " + filepath.Join(o.ConfigDir, o.Target+".conf") + " "
	}
	if o.LogDir != "" {
		args += "> " + filepath.Join(o.LogDir, o.Target+".log") + " 2>&1 & "
	}
	return args
}

// Generate writes run_<target>.sh and gdbrun_<target>.sh and returns their
// paths.
func Generate(logger *slog.Logger, o Options) ([]string, error) {
	if o.Target == "" {
		return nil, fmt.Errorf("target name is required")
	}
	if err := os.MkdirAll(o.ScriptDir, 0o755); err != nil {
		return nil, fmt.Errorf("create script directory: %w", err)
	}
	v := view{Exe: filepath.Join(o.BinDir, o.Target), Args: o.Args()}

	var written []string
	for _, s := range []struct {
		prefix string
		tmpl   *template.Template
	}{
		{"run_", runTmpl},
		{"gdbrun_", gdbTmpl},
	} {
		var buf bytes.Buffer
		if err := s.tmpl.Execute(&buf, v); err != nil {
			return written, fmt.Errorf("render %s script: %w", s.tmpl.Name(), err)
		}
		path := filepath.Join(o.ScriptDir, s.prefix+o.Target+".sh")
		if err := os.WriteFile(path, buf.Bytes(), 0o755); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		// WriteFile keeps the mode of an existing file.
		if err := os.Chmod(path, 0o755); err != nil {
			return written, fmt.Errorf("chmod %s: %w", path, err)
		}
		logger.Info("Generated script", "path", path)
		written = append(written, path)
	}
	return written, nil
}

package cmd

import (
	"log/slog"

	"github.com/Alia5/progen/internal/script"
)

type Script struct {
	BinDir    string `arg:"" name:"bin-dir" help:"Directory holding the target binary"`
	ScriptDir string `arg:"" name:"script-dir" help:"Directory the scripts are written to"`
	Target    string `arg:"" name:"target" help:"Name of the target binary"`
	ConfigDir string `help:"Pass --config <dir>/<target>.conf to the target" env:"PROGEN_SCRIPT_CONFIG_DIR"`
	LogDir    string `help:"Redirect output to <dir>/<target>.log and run in the background" env:"PROGEN_SCRIPT_LOG_DIR"`
}

// Run is called by Kong when the script command is executed.
func (s *Script) Run(logger *slog.Logger) error {
	_, err := script.Generate(logger, script.Options{
		BinDir:    s.BinDir,
		ScriptDir: s.ScriptDir,
		Target:    s.Target,
		ConfigDir: s.ConfigDir,
		LogDir:    s.LogDir,
	})
	return err
}

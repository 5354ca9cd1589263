package cli

import (
	"io"
	"os"

	"github.com/aretw0/bifrost/internal/config"
)

// Options contains the configuration shared by the CLI commands.
type Options struct {
	Config   config.Config
	Debug    bool
	JSON     bool
	Headless bool

	// In and Out default to Stdin and Stdout.
	In  io.Reader
	Out io.Writer
}

func (o Options) withDefaults() Options {
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	return o
}

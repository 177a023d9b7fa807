// Package prompt renders the interactive prompt, either as fixed text or by
// calling prompt(cwd, status) in a Starlark script.
package prompt

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// maxSteps bounds one evaluation of a prompt script.
const maxSteps = 1_000_000

type Prompt struct {
	text string
	fn   starlark.Callable
	log  *zerolog.Logger
}

// Static returns a prompt that always renders text.
func Static(text string) *Prompt {
	return &Prompt{text: text}
}

// LoadScript executes the Starlark file at path, which must define a
// function prompt(cwd, status). fallback is rendered whenever a call
// fails.
func LoadScript(path, fallback string, log *zerolog.Logger) (*Prompt, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt script: %w", err)
	}
	return compile(path, src, fallback, log)
}

func compile(filename string, src []byte, fallback string, log *zerolog.Logger) (*Prompt, error) {
	thread := newThread(filename)
	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, filename, src, predeclared())
	if err != nil {
		return nil, fmt.Errorf("prompt script %s: %w", filename, err)
	}
	fn, ok := globals["prompt"].(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("prompt script %s: no prompt(cwd, status) function", filename)
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Prompt{text: fallback, fn: fn, log: log}, nil
}

// Render returns the prompt for the given working directory and last exit
// status.
func (p *Prompt) Render(cwd string, status int) string {
	if p.fn == nil {
		return p.text
	}
	thread := newThread("prompt")
	v, err := starlark.Call(thread, p.fn, starlark.Tuple{starlark.String(cwd), starlark.MakeInt(status)}, nil)
	if err != nil {
		p.log.Warn().Err(err).Msg("prompt script failed")
		return p.text
	}
	s, ok := starlark.AsString(v)
	if !ok {
		p.log.Warn().Str("type", v.Type()).Msg("prompt script returned a non-string")
		return p.text
	}
	return s
}

func newThread(name string) *starlark.Thread {
	thread := &starlark.Thread{Name: name}
	thread.SetMaxExecutionSteps(maxSteps)
	return thread
}

func predeclared() starlark.StringDict {
	return starlark.StringDict{
		"env": starlark.NewBuiltin("env", getenv),
	}
}

// getenv implements env(name, default="").
func getenv(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name, def string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "default?", &def); err != nil {
		return nil, err
	}
	if v, ok := os.LookupEnv(name); ok {
		return starlark.String(v), nil
	}
	return starlark.String(def), nil
}

// Package generationtest provides a scripted generation.Generator for tests
// of code that depends on the gateway.
package generationtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sakif/execmind/internal/generation"
)

// Call records one Generate invocation.
type Call struct {
	Template generation.Template
	Prompt   string
}

// Fake answers each template with a canned JSON reply, decoded and validated
// the way the real gateway does. A template with no reply fails with
// generation.ErrGenerationFailed.
type Fake struct {
	mu      sync.Mutex
	replies map[generation.Template]string
	errs    map[generation.Template]error
	calls   []Call
}

func New() *Fake {
	return &Fake{
		replies: make(map[generation.Template]string),
		errs:    make(map[generation.Template]error),
	}
}

// Reply sets the JSON returned for tmpl.
func (f *Fake) Reply(tmpl generation.Template, jsonReply string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[tmpl] = jsonReply
	return f
}

// Fail makes tmpl fail with a gateway error wrapping cause.
func (f *Fake) Fail(tmpl generation.Template, cause error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[tmpl] = cause
	return f
}

func (f *Fake) Generate(_ context.Context, tmpl generation.Template, prompt string, out generation.Result) error {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Template: tmpl, Prompt: prompt})
	reply, ok := f.replies[tmpl]
	cause := f.errs[tmpl]
	f.mu.Unlock()

	if cause != nil {
		return &generation.Error{Op: "generate", Template: tmpl, Cause: cause}
	}
	if !ok {
		return &generation.Error{Op: "generate", Template: tmpl, Cause: fmt.Errorf("no scripted reply")}
	}
	if err := json.Unmarshal([]byte(reply), out); err != nil {
		return &generation.Error{Op: "generate", Template: tmpl, Schema: true, Cause: err}
	}
	if err := out.Validate(); err != nil {
		return &generation.Error{Op: "generate", Template: tmpl, Schema: true, Cause: err}
	}
	return nil
}

// Calls returns every call so far, in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// LastPrompt returns the prompt of the most recent call for tmpl.
func (f *Fake) LastPrompt(tmpl generation.Template) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Template == tmpl {
			return f.calls[i].Prompt, true
		}
	}
	return "", false
}

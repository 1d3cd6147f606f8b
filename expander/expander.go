package expander

import (
	"context"
	"errors"
	"text/template"
	"time"

	"github.com/hupe1980/genmesh/core"
	"github.com/hupe1980/genmesh/internal/util"
	"github.com/hupe1980/genmesh/logging"
	"github.com/hupe1980/genmesh/model"
)

// DefaultTemplate is the instruction sent to the model. The raw prompt is
// available as {{.prompt}}.
const DefaultTemplate = "Interpret and expand this prompt for visual generation: {{.prompt}}"

// Options configure an Expander.
type Options struct {
	// Template is the instruction template rendered around the prompt.
	Template string
	// Instructions is an optional system message passed to the model.
	Instructions string
	// Logger receives expansion diagnostics.
	Logger logging.Logger
}

// Expander implements core.Expander on top of a model.Model.
type Expander struct {
	model    model.Model
	template *template.Template
	opts     Options
}

var _ core.Expander = (*Expander)(nil)

// New creates an Expander. It fails only when the template does not parse.
func New(m model.Model, optFns ...func(o *Options)) (*Expander, error) {
	opts := Options{
		Template: DefaultTemplate,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	tmpl, err := util.ParseTemplate("expand", opts.Template)
	if err != nil {
		return nil, err
	}

	return &Expander{model: m, template: tmpl, opts: opts}, nil
}

// Expand sends the rendered instruction to the model in non-streaming mode and
// returns the generated text verbatim. Failures are reported as
// *core.TransportError or *core.MalformedResponseError.
func (e *Expander) Expand(ctx context.Context, prompt string) (string, error) {
	info := e.model.Info()
	op := "expand " + info.Name

	instruction, err := util.Render(e.template, map[string]any{"prompt": prompt})
	if err != nil {
		return "", &core.MalformedResponseError{Op: op, Field: "template", Err: err}
	}

	start := time.Now()
	resp, err := model.Collect(ctx, e.model, model.Request{
		Instructions: e.opts.Instructions,
		Prompt:       instruction,
		Stream:       false,
	})
	if err != nil {
		e.opts.Logger.Warn("Prompt expansion failed",
			"model", info.Name, "provider", info.Provider, "duration", time.Since(start), "error", err)
		return "", classify(op, err)
	}

	e.opts.Logger.Debug("Prompt expanded",
		"model", info.Name, "provider", info.Provider, "duration", time.Since(start), "chars", len(resp.Text))

	return resp.Text, nil
}

// classify keeps typed transport and protocol errors and treats anything
// else (context expiry, client failures) as a transport error.
func classify(op string, err error) error {
	var terr *core.TransportError
	if errors.As(err, &terr) {
		return err
	}
	var merr *core.MalformedResponseError
	if errors.As(err, &merr) {
		return err
	}
	return &core.TransportError{Op: op, Err: err}
}

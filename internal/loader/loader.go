// Package loader parses and validates story documents.
//
// Loading is two-phased and fails closed. Phase one unifies the incoming
// document (CUE, JSON, or YAML - JSON is a subset of CUE, YAML goes
// through CUE's yaml encoding) against the embedded #Story schema and
// decodes it into the story model. Phase two runs the reference
// validator, which collects every violation instead of stopping at the
// first. A partially valid story is never returned.
package loader

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/roach88/fabula/internal/story"
)

//go:embed schema.cue
var schemaCUE string

// Load reads a story document from disk. The format is chosen by
// extension: .cue, .json, or .yaml/.yml.
func Load(path string) (*story.Story, *Report, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".cue", ".json", ".yaml", ".yml":
	default:
		return nil, nil, fmt.Errorf("unsupported story format %q (want .cue, .json, .yaml)", ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read story document: %w", err)
	}
	if ext == ".yaml" || ext == ".yml" {
		return LoadYAML(path, data)
	}
	return LoadBytes(path, data)
}

// LoadBytes parses a CUE or JSON document. JSON needs no special
// handling: every JSON document is a valid CUE expression.
func LoadBytes(filename string, data []byte) (*story.Story, *Report, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	return build(ctx, v)
}

// LoadYAML parses a YAML document through CUE's yaml encoding so it
// flows into the same schema unification as the other formats.
func LoadYAML(filename string, data []byte) (*story.Story, *Report, error) {
	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		report := &Report{Errors: []ValidationError{{
			Field:   "document",
			Message: err.Error(),
			Code:    ErrParse,
		}}}
		return nil, report, &InvalidStoryError{Report: report}
	}
	ctx := cuecontext.New()
	v := ctx.BuildFile(file)
	return build(ctx, v)
}

func build(ctx *cue.Context, v cue.Value) (*story.Story, *Report, error) {
	report := &Report{}

	if err := v.Err(); err != nil {
		report.Errors = appendCUEErrors(report.Errors, err)
		return nil, report, &InvalidStoryError{Report: report}
	}

	schema := ctx.CompileString(schemaCUE)
	storyDef := schema.LookupPath(cue.ParsePath("#Story"))
	unified := storyDef.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		report.Errors = appendCUEErrors(report.Errors, err)
		return nil, report, &InvalidStoryError{Report: report}
	}

	var doc story.Story
	if err := unified.Decode(&doc); err != nil {
		report.Errors = appendCUEErrors(report.Errors, err)
		return nil, report, &InvalidStoryError{Report: report}
	}

	*report = *Validate(&doc)
	if len(report.Errors) > 0 {
		return nil, report, &InvalidStoryError{Report: report}
	}
	return &doc, report, nil
}

// appendCUEErrors flattens a CUE error (which may aggregate several)
// into itemized validation errors with positions.
func appendCUEErrors(errs []ValidationError, err error) []ValidationError {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return append(errs, ValidationError{Field: "document", Message: err.Error(), Code: ErrSchema})
	}
	for _, e := range list {
		ve := ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: e.Error(),
			Code:    ErrSchema,
		}
		if pos := e.Position(); pos.IsValid() {
			ve.Line = pos.Line()
		}
		errs = append(errs, ve)
	}
	return errs
}

package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// ValidationError reports a catalog that does not satisfy the schema.
type ValidationError struct {
	File    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *ValidationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// validator holds the compiled schema. Values built for validation must
// come from the same cue.Context.
type validator struct {
	ctx    *cue.Context
	schema cue.Value
}

func newValidator() (*validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}
	return &validator{ctx: ctx, schema: schema}, nil
}

// decodeCUE compiles a CUE catalog, validates it and decodes the movies.
func (v *validator) decodeCUE(file string, src []byte) ([]Movie, error) {
	val := v.ctx.CompileBytes(src, cue.Filename(file))
	if err := val.Err(); err != nil {
		return nil, formatCUEError(file, err)
	}
	return v.decode(file, val)
}

// checkMovies validates movies that were decoded from another format.
func (v *validator) checkMovies(file string, movies []Movie) ([]Movie, error) {
	if movies == nil {
		movies = []Movie{}
	}
	val := v.ctx.Encode(Document{Movies: movies})
	if err := val.Err(); err != nil {
		return nil, formatCUEError(file, err)
	}
	return v.decode(file, val)
}

func (v *validator) decode(file string, val cue.Value) ([]Movie, error) {
	unified := v.schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(file, err)
	}

	var doc Document
	if err := unified.Decode(&doc); err != nil {
		return nil, formatCUEError(file, err)
	}

	if err := checkUniqueIDs(file, doc.Movies); err != nil {
		return nil, err
	}
	return doc.Movies, nil
}

func checkUniqueIDs(file string, movies []Movie) error {
	seen := make(map[string]int, len(movies))
	for i, m := range movies {
		if first, dup := seen[m.ID]; dup {
			return &ValidationError{
				File:    file,
				Field:   fmt.Sprintf("movies[%d].id", i),
				Message: fmt.Sprintf("duplicate id %q (first used by movies[%d])", m.ID, first),
			}
		}
		seen[m.ID] = i
	}
	return nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(file string, err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors; report the first.
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{File: file, Field: "cue", Message: err.Error()}
	}

	first := errs[0]
	ve := &ValidationError{
		File:    file,
		Field:   "cue",
		Message: first.Error(),
	}
	if path := first.Path(); len(path) > 0 {
		ve.Field = strings.Join(path, ".")
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		ve.Pos = positions[0]
	}
	return ve
}

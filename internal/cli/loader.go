package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue/token"

	"github.com/roach88/schemaforge/internal/compiler"
	"github.com/roach88/schemaforge/internal/schema"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the schemas compiled from a directory.
type LoadResult struct {
	Schemas   []*schema.Definition
	Warnings  []compiler.CycleWarning
	FileCount int
}

// Find returns the schema called name.
func (r *LoadResult) Find(name string) (*schema.Definition, bool) {
	for _, def := range r.Schemas {
		if def.Name.String() == name {
			return def, true
		}
	}
	return nil, false
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchemas compiles every .cue file under dir, in path order, then
// validates the combined schema set. Each file is compiled on its own;
// schemas refer to each other by name only.
func LoadSchemas(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schemas directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schemas directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	result := &LoadResult{Schemas: []*schema.Definition{}, FileCount: len(cueFiles)}
	var errs []error
	for _, path := range cueFiles {
		src, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("reading %s: %v", path, err)})
		} else if defs, err := compiler.CompileSource(path, src); err != nil {
			errs = append(errs, convertCompileError(err, path))
		} else {
			result.Schemas = append(result.Schemas, defs...)
		}
		if len(errs) > 0 && mode == LoadModeFailFast {
			return result, errs
		}
	}
	if len(errs) > 0 {
		return result, errs
	}

	if len(result.Schemas) == 0 {
		return result, []error{&LoadError{Code: ErrCodeNoSchemas, Message: "no schemas found in " + dir}}
	}

	for _, v := range compiler.Validate(result.Schemas) {
		errs = append(errs, &LoadError{Code: v.Code, Message: fmt.Sprintf("%s: %s", v.Field, v.Message)})
		if mode == LoadModeFailFast {
			return result, errs
		}
	}
	result.Warnings = compiler.AnalyzeRelations(result.Schemas)
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeLoadFailed,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeLoadFailed,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// schemasDir picks the positional directory argument or the configured one.
func schemasDir(args []string, configured string) string {
	if len(args) > 0 {
		return args[0]
	}
	return configured
}

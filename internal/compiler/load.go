package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/build"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/entangle/internal/syntax"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the constructs compiled from declaration files.
// Structs come first, then impls, each in declaration order.
type LoadResult struct {
	Constructs []syntax.SourceConstruct
	Requires   string    // the `requires` constraint, if declared
	CUEValue   cue.Value // The raw CUE value for additional processing
	FileCount  int       // Number of CUE files found
}

// LoadError represents an error that occurred during spec loading.
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

// Load error codes, shared by every command that reads declarations.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
)

// LoadSpecs loads and compiles the CUE declarations in a directory.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadSpecs(dir string, mode LoadMode) (*LoadResult, []error) {
	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
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

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	return compileInstances(instances, len(cueFiles), mode)
}

// LoadFiles loads and compiles an explicit list of CUE files, which must
// belong to the same package.
func LoadFiles(files []string, mode LoadMode) (*LoadResult, []error) {
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: "no CUE files given"}}
	}
	abs := make([]string, len(files))
	for i, f := range files {
		if _, err := os.Stat(f); err != nil {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("spec file not found: %s", f)}}
		}
		a, err := filepath.Abs(f)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("resolving %s: %v", f, err)}}
		}
		abs[i] = a
	}

	instances := load.Instances(abs, &load.Config{Dir: filepath.Dir(abs[0])})
	return compileInstances(instances, len(files), mode)
}

func compileInstances(instances []*build.Instance, fileCount int, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	ctx := cuecontext.New()
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: fileCount,
	}

	// requires gates the whole file set
	reqVal := value.LookupPath(cue.ParsePath("requires"))
	if reqVal.Exists() {
		req, err := reqVal.String()
		if err != nil {
			return result, []error{&LoadError{Code: ErrRequiresUnsatisfied, Message: fmt.Sprintf("requires must be a string: %v", err), Pos: reqVal.Pos()}}
		}
		result.Requires = req
		if err := CheckToolRequires(req); err != nil {
			return result, []error{&LoadError{Code: ErrRequiresUnsatisfied, Message: err.Error(), Pos: reqVal.Pos()}}
		}
	}

	sections := []struct {
		name    string
		compile func(cue.Value) (syntax.SourceConstruct, error)
	}{
		{"struct", func(v cue.Value) (syntax.SourceConstruct, error) { return CompileDataType(v) }},
		{"impl", CompileImpl},
	}

	for _, sec := range sections {
		secVal := value.LookupPath(cue.ParsePath(sec.name))
		if !secVal.Exists() {
			continue
		}
		iter, iterErr := secVal.Fields()
		if iterErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating %s entries: %v", sec.name, iterErr)})
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		for iter.Next() {
			c, compileErr := sec.compile(iter.Value())
			if compileErr != nil {
				errs = append(errs, convertCompileError(compileErr, sec.name+"."+iter.Label()))
				if mode == LoadModeFailFast {
					return result, errs
				}
				continue
			}
			if vErrs := Validate(c); len(vErrs) > 0 {
				for _, ve := range vErrs {
					errs = append(errs, &LoadError{
						Code:    ve.Code,
						Message: fmt.Sprintf("%s.%s: %s: %s", sec.name, iter.Label(), ve.Field, ve.Message),
						Pos:     iter.Value().Pos(),
					})
				}
				if mode == LoadModeFailFast {
					return result, errs
				}
				continue
			}
			result.Constructs = append(result.Constructs, c)
		}
	}

	// Check if we found anything
	if len(result.Constructs) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no struct or impl declarations found"})
	}

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
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
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", context, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "name":
		return ErrMissingName
	case "self":
		return ErrMissingSelf
	case "item":
		return ErrUnknownItemKind
	case "type", "trait":
		return ErrInvalidType
	case "vis":
		return ErrInvalidVisibility
	case "requires":
		return ErrRequiresUnsatisfied
	case "receiver", "generics", "attrs", "style", "fields", "value":
		return ErrInvalidDeclaration
	default:
		return ErrCodeGeneric
	}
}

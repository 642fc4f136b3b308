package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/metacat/internal/ir"
)

// Error code constants for registry loading.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No CUE files found
	ErrCodeLoadFailed    = "E004" // CUE load failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBuildFailed   = "E006" // CUE build failed
	ErrCodeInvalidType   = "E101" // Invalid attribute type (e.g., float)
	ErrCodeDuplicateName = "E102" // Type defined twice
	ErrCodeInvalidDef    = "E103" // Malformed definition
)

// LoadError represents an error that occurred while loading definitions.
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

// LoadDir loads every CUE file of dir into a registry.
func LoadDir(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("registry directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing registry directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	return FromValue(value)
}

// LoadString compiles CUE source text into a registry.
func LoadString(src string) (*Registry, error) {
	value := cuecontext.New().CompileString(src)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return FromValue(value)
}

// FromValue extracts the entity and classification definitions of a
// built CUE value.
func FromValue(value cue.Value) (*Registry, error) {
	reg := New()

	if err := eachField(value, "entity", func(name string, v cue.Value) error {
		def, err := compileEntity(name, v)
		if err != nil {
			return err
		}
		return reg.AddEntity(def)
	}); err != nil {
		return nil, err
	}

	if err := eachField(value, "classification", func(name string, v cue.Value) error {
		def, err := compileClassification(name, v)
		if err != nil {
			return err
		}
		return reg.AddClassification(def)
	}); err != nil {
		return nil, err
	}

	return reg, nil
}

// eachField calls fn for every field under path, if path exists.
func eachField(value cue.Value, path string, fn func(string, cue.Value) error) error {
	v := value.LookupPath(cue.ParsePath(path))
	if !v.Exists() {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return &LoadError{Code: ErrCodeInvalidDef, Message: fmt.Sprintf("iterating %s: %v", path, err), Pos: v.Pos()}
	}
	for iter.Next() {
		if err := fn(iter.Label(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func compileEntity(name string, v cue.Value) (ir.EntityTypeDef, error) {
	def := ir.EntityTypeDef{Name: name}

	attrs, err := compileAttributes(v)
	if err != nil {
		return def, err
	}
	def.Attributes = attrs

	superVal := v.LookupPath(cue.ParsePath("superTypes"))
	if superVal.Exists() {
		list, err := superVal.List()
		if err != nil {
			return def, &LoadError{Code: ErrCodeInvalidDef, Message: fmt.Sprintf("entity %s: superTypes must be a list", name), Pos: superVal.Pos()}
		}
		for list.Next() {
			s, err := list.Value().String()
			if err != nil {
				return def, formatCUEError(err)
			}
			def.SuperTypes = append(def.SuperTypes, s)
		}
	}
	return def, nil
}

func compileClassification(name string, v cue.Value) (ir.ClassificationDef, error) {
	attrs, err := compileAttributes(v)
	if err != nil {
		return ir.ClassificationDef{}, err
	}
	return ir.ClassificationDef{Name: name, Attributes: attrs}, nil
}

// compileAttributes reads the optional attributes struct of a definition.
func compileAttributes(v cue.Value) (map[string]ir.AttributeType, error) {
	attrs := make(map[string]ir.AttributeType)
	attrsVal := v.LookupPath(cue.ParsePath("attributes"))
	if !attrsVal.Exists() {
		return attrs, nil
	}
	iter, err := attrsVal.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidDef, Message: fmt.Sprintf("attributes must be a struct: %v", err), Pos: attrsVal.Pos()}
	}
	for iter.Next() {
		typ, err := extractType(iter.Value())
		if err != nil {
			return nil, err
		}
		attrs[iter.Label()] = typ
	}
	return attrs, nil
}

// extractType converts a CUE type to an attribute type.
// Floats are forbidden: catalog values carry no float representation.
func extractType(v cue.Value) (ir.AttributeType, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return ir.TypeString, nil
	case cue.IntKind:
		return ir.TypeInt, nil
	case cue.BoolKind:
		return ir.TypeBool, nil
	case cue.ListKind:
		return ir.TypeArray, nil
	case cue.FloatKind, cue.NumberKind:
		return ir.TypeUnknown, &LoadError{
			Code:    ErrCodeInvalidType,
			Message: "float types are forbidden - use int or string instead",
			Pos:     v.Pos(),
		}
	default:
		return ir.TypeUnknown, &LoadError{
			Code:    ErrCodeInvalidType,
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
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

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	loadErr := &LoadError{Code: ErrCodeBuildFailed, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		loadErr.Pos = positions[0]
	}
	return loadErr
}

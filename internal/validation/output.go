package validation

import (
	"errors"
	"fmt"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/leapstack-labs/leapschema/internal/mapping"
)

var packageNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// StatFunc reports file information the way os.Stat does.
type StatFunc func(name string) (fs.FileInfo, error)

// OutputValidator checks the output section against the filesystem.
type OutputValidator struct {
	stat StatFunc
}

// NewOutputValidator returns an OutputValidator using stat, or os.Stat when
// stat is nil.
func NewOutputValidator(stat StatFunc) *OutputValidator {
	if stat == nil {
		stat = os.Stat
	}
	return &OutputValidator{stat: stat}
}

// Check reports a missing schema file directory, a missing models
// directory and a models namespace that is not a valid Go package name.
// Relative paths resolve against baseDir. A stat failure other than
// "does not exist" is returned as an error.
func (v *OutputValidator) Check(out mapping.Output, baseDir string) ([]Discrepancy, error) {
	var ds []Discrepancy

	schemaDir := filepath.Dir(resolvePath(out.SchemaFile, baseDir))
	ok, err := v.isDir(schemaDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		ds = append(ds, Discrepancy{Code: CodeSchemaFileDirectoryNotFound, Path: filepath.Dir(out.SchemaFile)})
	}

	ok, err = v.isDir(resolvePath(out.ModelsDirectory, baseDir))
	if err != nil {
		return nil, err
	}
	if !ok {
		ds = append(ds, Discrepancy{Code: CodeModelsDirectoryNotFound, Path: out.ModelsDirectory})
	}

	if !IsPackageName(out.ModelsNamespace) {
		ds = append(ds, Discrepancy{Code: CodeModelsNamespaceInvalid, Names: []string{out.ModelsNamespace}})
	}

	return ds, nil
}

func (v *OutputValidator) isDir(path string) (bool, error) {
	info, err := v.stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check output path %s: %w", path, err)
	}
	return info.IsDir(), nil
}

// IsPackageName reports whether name is usable as a Go package name:
// a lower-case identifier that is not a keyword.
func IsPackageName(name string) bool {
	return packageNamePattern.MatchString(name) && token.IsIdentifier(name) && !token.IsKeyword(name)
}

func resolvePath(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

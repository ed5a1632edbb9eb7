// Package errors provides custom error types for the services tooling.
// These errors enable programmatic error checking with errors.Is and errors.As
// and carry the path or identifier that caused a failure for diagnostics.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's tree matches target.
var Is = errors.Is

// Sentinel errors for the services tooling
var (
	// ErrLoad indicates that the source artifact could not be read or parsed
	ErrLoad = errors.New("source artifact load failed")

	// ErrShape indicates that the source artifact does not have the expected shape
	ErrShape = errors.New("unexpected source artifact shape")

	// ErrWrite indicates that a definition file could not be restored
	ErrWrite = errors.New("definition write failed")

	// ErrIdentity indicates that a file name and the id it contains disagree
	ErrIdentity = errors.New("identifier mismatch")

	// ErrMissing indicates that declared services are missing on disk
	ErrMissing = errors.New("services missing")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")
)

// LoadError represents a failure to read or parse the source artifact
type LoadError struct {
	Path string
	Err  error
}

// Error implements the error interface
func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// NewLoadError creates a new LoadError
func NewLoadError(path string, err error) *LoadError {
	return &LoadError{Path: path, Err: err}
}

// ShapeError represents a source artifact that parsed but is not shaped as expected.
// Index is the position of the offending record, or -1 when the collection itself is wrong.
type ShapeError struct {
	Path    string
	Field   string
	Index   int
	Got     string
	Message string
}

// Error implements the error interface
func (e *ShapeError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid ")
	if e.Index >= 0 {
		fmt.Fprintf(&sb, "%s[%d]", e.Field, e.Index)
	} else {
		sb.WriteString(e.Field)
	}
	if e.Path != "" {
		fmt.Fprintf(&sb, " in %s", e.Path)
	}
	fmt.Fprintf(&sb, ": %s", e.Message)
	if e.Got != "" {
		fmt.Fprintf(&sb, " (got %s)", e.Got)
	}
	return sb.String()
}

// Is implements errors.Is support
func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}

// NewShapeError creates a ShapeError for the collection field itself
func NewShapeError(path, field, got, message string) *ShapeError {
	return &ShapeError{Path: path, Field: field, Index: -1, Got: got, Message: message}
}

// NewRecordShapeError creates a ShapeError for a single record of the collection
func NewRecordShapeError(path, field string, index int, got, message string) *ShapeError {
	return &ShapeError{Path: path, Field: field, Index: index, Got: got, Message: message}
}

// WriteError represents a failed restore write.
// Restored lists the identifiers written before the failure; those files stay on disk.
type WriteError struct {
	Path     string
	ID       string
	Restored []string
	Err      error
}

// Error implements the error interface
func (e *WriteError) Error() string {
	return fmt.Sprintf("restoring service %s to %s: %v", e.ID, e.Path, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *WriteError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *WriteError) Is(target error) bool {
	return target == ErrWrite
}

// NewWriteError creates a new WriteError
func NewWriteError(path, id string, restored []string, err error) *WriteError {
	return &WriteError{Path: path, ID: id, Restored: restored, Err: err}
}

// IdentityError represents a definition file whose name and embedded id disagree
type IdentityError struct {
	File      string
	FileID    string
	ContentID string
}

// Error implements the error interface
func (e *IdentityError) Error() string {
	return fmt.Sprintf("definition %s: file name says %q but content id is %q", e.File, e.FileID, e.ContentID)
}

// Is implements errors.Is support
func (e *IdentityError) Is(target error) bool {
	return target == ErrIdentity
}

// NewIdentityError creates a new IdentityError
func NewIdentityError(file, fileID, contentID string) *IdentityError {
	return &IdentityError{File: file, FileID: fileID, ContentID: contentID}
}

// MissingError reports declared services that have no definition file
type MissingError struct {
	IDs []string
}

// Error implements the error interface
func (e *MissingError) Error() string {
	return fmt.Sprintf("%d services missing: %s", len(e.IDs), strings.Join(e.IDs, ", "))
}

// Is implements errors.Is support
func (e *MissingError) Is(target error) bool {
	return target == ErrMissing
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsLoadError checks if an error is a source load error
func IsLoadError(err error) bool {
	return errors.Is(err, ErrLoad)
}

// IsShapeError checks if an error is a source shape error
func IsShapeError(err error) bool {
	return errors.Is(err, ErrShape)
}

// IsWriteError checks if an error is a restore write error
func IsWriteError(err error) bool {
	return errors.Is(err, ErrWrite)
}

// IsIdentityError checks if an error is an identifier mismatch
func IsIdentityError(err error) bool {
	return errors.Is(err, ErrIdentity)
}

// IsMissing checks if an error reports missing services
func IsMissing(err error) bool {
	return errors.Is(err, ErrMissing)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

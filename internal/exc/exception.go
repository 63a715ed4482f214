// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package exc

import (
	"errors"
	"fmt"

	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

// Exception is an error tied to a place in a document. Code groups
// exceptions into the families listed in codes.go.
type Exception interface {
	error
	Code() string
	Message() string
	Location() Location
}

type Location struct {
	idl.Location
	URI string
}

type exception struct {
	code     string
	message  string
	location Location
	cause    error
}

// Error renders FILE(LINE): CODE: MESSAGE.
func (self *exception) Error() string {
	return fmt.Sprintf("%s(%d): %s: %s", self.location.URI, self.location.Line, self.code, self.message)
}

func (self *exception) Code() string       { return self.code }
func (self *exception) Message() string    { return self.message }
func (self *exception) Location() Location { return self.location }
func (self *exception) Unwrap() error      { return self.cause }

func New(location Location, code string, message string) Exception {
	return &exception{code: code, message: message, location: location}
}

// Wrap gives err a code and location. The message of a wrapped Exception is
// kept as is rather than nesting its rendered form. Wrap(nil) is nil.
func Wrap(location Location, code string, err error) Exception {
	if err == nil {
		return nil
	}
	message := err.Error()
	var inner Exception
	if errors.As(err, &inner) {
		message = inner.Message()
	}
	return &exception{code: code, message: message, location: location, cause: err}
}

func WrapUnknown(location Location, err error) Exception {
	return Wrap(location, CodeUnknownFatal, err)
}

// ToDiagnostic flattens an exception into the IR diagnostic record.
func ToDiagnostic(e Exception) idl.Diagnostic {
	loc := e.Location()
	return idl.Diagnostic{
		File:    loc.URI,
		Line:    int(loc.Line),
		Message: e.Message(),
	}
}

// FromDiagnostic rebuilds an exception from a diagnostic carried in an IR,
// typically one inherited from a base document.
func FromDiagnostic(d idl.Diagnostic) Exception {
	return New(Location{URI: d.File, Location: idl.Location{Line: int32(d.Line)}}, CodeReference, d.Message)
}

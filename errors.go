package metamodel

import (
	"errors"
	"fmt"
)

// ErrConversion is matched by every error returned when a graph cannot be linked.
var ErrConversion = errors.New("metamodel: conversion failed")

// ConversionError reports a failed conversion of the source with the given identity.
// No graph is cached for the identity.
type ConversionError struct {
	Identity string
	Err      error
}

func (e *ConversionError) Error() string {
	if e.Identity == "" {
		return fmt.Sprintf("%v: %v", ErrConversion, e.Err)
	}
	return fmt.Sprintf("%v for %q: %v", ErrConversion, e.Identity, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConversion.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

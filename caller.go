package factory

import (
	"reflect"
	"runtime"
	"strings"
)

var factoryPkg = reflect.TypeOf(Factory{}).PkgPath()

// CallerName guesses a name for the code that asked for a driver: the
// function that called into this package, outside any nested resolution. It
// is used as a default job name, typically yielding the running test.
func CallerName() string {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var caller string
	inFactory := false
	for {
		frame, more := frames.Next()
		isFactory := inFactoryPackage(frame.Function)
		if inFactory && !isFactory {
			caller = frame.Function
		}
		inFactory = isFactory
		if !more {
			break
		}
	}
	if caller == "" {
		return "unknown"
	}
	return shortName(caller)
}

// inFactoryPackage reports whether fn belongs to this package. Subpackages
// have a '/' after the package path and do not match.
func inFactoryPackage(fn string) bool {
	return strings.HasPrefix(fn, factoryPkg+".")
}

// shortName strips the import path from a fully qualified function name.
func shortName(fn string) string {
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		fn = fn[i+1:]
	}
	return fn
}

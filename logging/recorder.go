// Package logging wraps drivers so that every call made through them is
// logged. It registers the provider for log: URIs, which wraps whatever the
// rest of the URI resolves to:
//
//	log:sauce-ondemand:?os=Linux&browser=firefox&browser-version=3.
//
// Each call is logged as "<id>: <Method>(<args>) -> <result>", with string
// arguments quoted. Failed calls are logged with their error instead of a
// result.
package logging

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tebeka/selenium"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Recorder holds the logging configuration of a wrapped driver. Its methods
// configure the wrapper and are never forwarded to the wrapped driver.
type Recorder struct {
	mu     sync.RWMutex
	logger *zap.Logger
	level  zapcore.Level
	id     string
}

func newRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.L()
	}
	return &Recorder{
		logger: logger,
		level:  zapcore.InfoLevel,
		id:     strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
	}
}

// Logger returns the logger calls are written to.
func (r *Recorder) Logger() *zap.Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logger
}

// SetLogger replaces the logger calls are written to.
func (r *Recorder) SetLogger(l *zap.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = l
}

// Level returns the level calls are logged at.
func (r *Recorder) Level() zapcore.Level {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.level
}

// SetLevel changes the level calls are logged at.
func (r *Recorder) SetLevel(l zapcore.Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.level = l
}

// ID returns the prefix of every log entry. It defaults to a random hex
// string.
func (r *Recorder) ID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.id
}

// SetID changes the prefix of every log entry.
func (r *Recorder) SetID(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.id = id
}

func (r *Recorder) String() string {
	return "log:" + r.ID()
}

// noResult marks calls that return nothing but an error.
type noResult struct{}

// record logs one forwarded call.
func (r *Recorder) record(method string, args []interface{}, result interface{}, err error) {
	r.mu.RLock()
	logger, level, id := r.logger, r.level, r.id
	r.mu.RUnlock()

	if !logger.Core().Enabled(level) {
		return
	}
	formatted := make([]string, len(args))
	for i, a := range args {
		formatted[i] = format(a)
	}
	msg := fmt.Sprintf("%s: %s(%s)", id, method, strings.Join(formatted, ","))
	var fields []zap.Field
	if err != nil {
		fields = append(fields, zap.Error(err))
	} else if _, ok := result.(noResult); !ok {
		msg += " -> " + format(result)
	}
	if ce := logger.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func format(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case []byte:
		return fmt.Sprintf("[%d bytes]", len(x))
	case selenium.WebElement:
		return "WebElement"
	case selenium.Condition:
		return "Condition"
	case []selenium.WebElement:
		return fmt.Sprintf("[%d WebElements]", len(x))
	case []string:
		quoted := make([]string, len(x))
		for i, s := range x {
			quoted[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(quoted, ",") + "]"
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprintf("%v", v)
}

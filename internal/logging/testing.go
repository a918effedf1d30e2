package logging

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger is a Logger that records every entry, trace level included,
// for assertions in tests.
type TestLogger struct {
	*Logger
	observed *observer.ObservedLogs
}

// NewTestLogger creates a recording logger.
func NewTestLogger() *TestLogger {
	core, observed := observer.New(TraceLevel)
	return &TestLogger{
		Logger:   &Logger{zap: zap.New(core), config: NewDefaultConfig()},
		observed: observed,
	}
}

// All returns every recorded entry.
func (t *TestLogger) All() []observer.LoggedEntry {
	return t.observed.All()
}

// Reset drops the recorded entries.
func (t *TestLogger) Reset() {
	t.observed.TakeAll()
}

// matching returns the entries at level whose message contains msg.
func (t *TestLogger) matching(level zapcore.Level, msg string) []observer.LoggedEntry {
	return t.observed.FilterLevelExact(level).FilterMessageSnippet(msg).All()
}

// Projects returns the project.path of every entry whose message contains
// msg, in logging order.
func (t *TestLogger) Projects(msg string) []string {
	var paths []string
	for _, e := range t.observed.FilterMessageSnippet(msg).All() {
		if p, ok := e.ContextMap()[projectPathKey].(string); ok {
			paths = append(paths, p)
		}
	}
	return paths
}

// AssertLogged fails tb unless an entry at level contains msg.
func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	if len(t.matching(level, msg)) == 0 {
		tb.Errorf("no %s entry containing %q; recorded: %s", level, msg, t.dump())
	}
}

// AssertNotLogged fails tb if an entry at level contains msg.
func (t *TestLogger) AssertNotLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	if n := len(t.matching(level, msg)); n > 0 {
		tb.Errorf("found %d unexpected %s entries containing %q", n, level, msg)
	}
}

// AssertField fails tb unless an entry containing msg carries key with a
// value printing as want.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, want interface{}) {
	tb.Helper()
	for _, e := range t.observed.FilterMessageSnippet(msg).All() {
		if v, ok := e.ContextMap()[key]; ok && fmt.Sprint(v) == fmt.Sprint(want) {
			return
		}
	}
	tb.Errorf("no entry %q with %s=%v; recorded: %s", msg, key, want, t.dump())
}

// AssertNoSecrets fails tb if a token leaked into a message or a string
// field. Recorded entries bypass the redacting encoder, so this checks that
// callers used Secret for tokens.
func (t *TestLogger) AssertNoSecrets(tb testing.TB) {
	tb.Helper()
	cfg := NewDefaultConfig().Redaction
	patterns := make([]*regexp.Regexp, len(cfg.Patterns))
	for i, p := range cfg.Patterns {
		patterns[i] = regexp.MustCompile(p)
	}
	leaks := func(s string) bool {
		for _, re := range patterns {
			if re.MatchString(s) {
				return true
			}
		}
		return false
	}

	for _, e := range t.observed.All() {
		if leaks(e.Message) {
			tb.Errorf("token in message %q", e.Message)
		}
		for key, v := range e.ContextMap() {
			s, ok := v.(string)
			if !ok || s == "" || strings.HasPrefix(s, "[REDACTED") {
				continue
			}
			if sensitiveKey(key, cfg.Fields) || leaks(s) {
				tb.Errorf("field %q not redacted: %q", key, s)
			}
		}
	}
}

func sensitiveKey(key string, fields []string) bool {
	key = strings.ToLower(key)
	for _, f := range fields {
		if strings.Contains(key, f) {
			return true
		}
	}
	return false
}

func (t *TestLogger) dump() string {
	var b strings.Builder
	for _, e := range t.observed.All() {
		fmt.Fprintf(&b, "\n  %s %q %v", e.Level, e.Message, e.ContextMap())
	}
	return b.String()
}

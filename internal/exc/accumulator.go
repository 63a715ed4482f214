// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package exc

import "sync"

// Reporter is used to accumulate and report errors during compilation.
// This is modeled after the protocompile interface of the same name that is
// used to accumulate protobuf compilation errors. The general idea is that
// compilation processes can decide to report an error but continue processing
// rather than fail outright in some cases. The final error set can then be
// shown to the user.
type Reporter interface {
	// Report adds the given record to the set. If this method returns an error
	// then the given error is considered fatal. Reporting the same message
	// twice for the same file and line is a no-op.
	Report(Exception) Exception
	// Append adds already reported exceptions, such as the diagnostics of a
	// base document, without deduplication.
	Append(...Exception)
	// Reported returns the set of accumulated exceptions.
	Reported() []Exception
}

type ReporterOption func(*reporter)

// WithSuppressedWarnings drops every exception whose code is a warning.
func WithSuppressedWarnings(suppress bool) ReporterOption {
	return func(r *reporter) {
		r.suppressWarnings = suppress
	}
}

// NewReporter returns a concurrent-safe implementation of Reporter.
func NewReporter(nonFatal []string, options ...ReporterOption) Reporter {
	nf := make(map[string]bool, len(defaultNonFatal))
	for k := range defaultNonFatal {
		nf[k] = true
	}
	for _, k := range nonFatal {
		nf[k] = true
	}
	r := &reporter{
		nonFatal: nf,
		seen:     make(map[reportKey]bool),
	}
	for _, option := range options {
		option(r)
	}
	return &reporterLock{
		Reporter: r,
		lock:     &sync.Mutex{},
	}
}

type reportKey struct {
	uri     string
	line    int32
	message string
}

type reporter struct {
	reported         []Exception
	nonFatal         map[string]bool
	seen             map[reportKey]bool
	suppressWarnings bool
}

func (r *reporter) Report(e Exception) Exception {
	if r.suppressWarnings && IsWarning(e.Code()) {
		return nil
	}
	k := reportKey{uri: e.Location().URI, line: e.Location().Line, message: e.Message()}
	if !r.seen[k] {
		r.seen[k] = true
		r.reported = append(r.reported, e)
	}
	if r.nonFatal[e.Code()] {
		return nil
	}
	return e
}

func (r *reporter) Append(es ...Exception) {
	r.reported = append(r.reported, es...)
}

func (r *reporter) Reported() []Exception {
	return r.reported
}

type reporterLock struct {
	Reporter
	lock sync.Locker
}

func (r *reporterLock) Report(e Exception) Exception {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.Reporter.Report(e)
}

func (r *reporterLock) Append(es ...Exception) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.Reporter.Append(es...)
}

func (r *reporterLock) Reported() []Exception {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]Exception, len(r.Reporter.Reported()))
	copy(out, r.Reporter.Reported())
	return out
}

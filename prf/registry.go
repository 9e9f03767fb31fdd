package prf

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Implementation variant names used for active-backend resolution.
const (
	ImplPortable = "portable"
	ImplVector   = "vector"
)

var (
	registryLock sync.Mutex
	registered   = make(map[string]map[string]Backend) // algorithm -> impl -> backend
	active       = make(map[string]Backend)            // resolved once, never re-selected
)

// Register adds a backend implementation to the registry. It fails if the
// backend violates the descriptor invariants or if the same algorithm and
// implementation pair is already registered.
func Register(b Backend) error {
	if err := Validate(b); err != nil {
		return fmt.Errorf("prf: invalid backend %s/%s: %w", b.Name(), b.Impl(), err)
	}

	registryLock.Lock()
	defer registryLock.Unlock()

	impls := registered[b.Name()]
	if impls == nil {
		impls = make(map[string]Backend)
		registered[b.Name()] = impls
	}
	if _, ok := impls[b.Impl()]; ok {
		return fmt.Errorf("prf: backend %s/%s already registered", b.Name(), b.Impl())
	}
	impls[b.Impl()] = b
	return nil
}

// MustRegister registers a backend and panics on failure. Backends ship with
// the package and register during init, so a violation aborts the process
// before any byte is ever served.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// Active returns the single active implementation of the named algorithm for
// this process. The vector implementation is preferred when the CPU supports
// the required vector instruction class, otherwise the portable one is used.
// Resolution happens once per algorithm and the result is fixed for the
// process lifetime.
func Active(name string) (Backend, error) {
	registryLock.Lock()
	defer registryLock.Unlock()

	if b, ok := active[name]; ok {
		return b, nil
	}

	impls := registered[name]
	if len(impls) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}

	b := impls[ImplPortable]
	if vec, ok := impls[ImplVector]; ok && vectorCapable() {
		b = vec
	}
	if b == nil {
		return nil, fmt.Errorf("prf: no usable implementation of %q", name)
	}

	active[name] = b
	return b, nil
}

// Algorithms returns the sorted names of all registered algorithms.
func Algorithms() []string {
	registryLock.Lock()
	defer registryLock.Unlock()

	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	vectorOnce sync.Once
	vectorOK   bool
)

// vectorCapable reports whether this CPU can run the vector-accelerated
// backends. The hardware is probed once at first use and the answer is cached
// for the process lifetime.
func vectorCapable() bool {
	vectorOnce.Do(func() {
		switch runtime.GOARCH {
		case "amd64":
			vectorOK = cpuid.CPU.Supports(cpuid.SSE2)
		case "arm64":
			vectorOK = cpuid.CPU.Supports(cpuid.ASIMD)
		}
	})
	return vectorOK
}

// internal/filter/registry.go
package filter

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/accumate/docfilter/internal/types"
)

/*
 * Named predicate registry.
 *
 * Transport payloads cannot carry functions, so custom groups arriving over
 * the wire name a predicate ("func": "contains") that must have been
 * registered in-process. The registry maps those names to Predicates and
 * resolves operator tags: built-in tags first, then registered names.
 *
 * Built-in tags (eq, gt, lt, gte, lte) are reserved and cannot be shadowed.
 *
 * Thread-safety: all methods are safe for concurrent use.
 */

var (
	// ErrReservedPredicateName is returned when registering a built-in tag.
	ErrReservedPredicateName = errors.New("predicate name is reserved")
	// ErrInvalidPredicate is returned for empty names or nil functions.
	ErrInvalidPredicate = errors.New("invalid predicate")
)

// Registry holds named custom predicates.
type Registry struct {
	mu         sync.RWMutex
	predicates map[string]Predicate
	logger     *zap.Logger
}

// NewRegistry creates an empty registry. A nil logger disables logging.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		predicates: make(map[string]Predicate),
		logger:     logger,
	}
}

// Register adds or replaces the predicate under name.
func (r *Registry) Register(name string, fn PredicateFunc) error {
	if err := checkPredicate(name, fn); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.predicates[name] = Predicate{Name: name, Fn: fn}
	r.logger.Debug("Registered predicate", zap.String("name", name))
	return nil
}

// RegisterAll registers every predicate in fns. Either all are registered
// or none are.
func (r *Registry) RegisterAll(fns map[string]PredicateFunc) error {
	for name, fn := range fns {
		if err := checkPredicate(name, fn); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, fn := range fns {
		r.predicates[name] = Predicate{Name: name, Fn: fn}
		r.logger.Debug("Registered predicate", zap.String("name", name))
	}
	return nil
}

// Lookup returns the predicate registered under name.
func (r *Registry) Lookup(name string) (Predicate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.predicates[name]
	return p, ok
}

// Names returns the registered predicate names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.predicates))
	for name := range r.predicates {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Operator resolves tag to a built-in operator or a registered predicate.
// Returns an *Error of kind KindUnknownOperator when neither matches.
func (r *Registry) Operator(tag string) (Operator, error) {
	if op, err := ParseOperator(tag); err == nil {
		return op, nil
	}
	if r != nil {
		if p, ok := r.Lookup(tag); ok {
			return Custom(p.Name, p.Fn), nil
		}
	}
	return Operator{}, unknownOperator(tag)
}

func checkPredicate(name string, fn PredicateFunc) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidPredicate)
	case IsBuiltinTag(name):
		return fmt.Errorf("%w: %s", ErrReservedPredicateName, name)
	case fn == nil:
		return fmt.Errorf("%w: %s has no function", ErrInvalidPredicate, name)
	}
	return nil
}

// DefaultRegistry returns a registry preloaded with the standard predicates:
//
//	neq         resolved value differs from the acceptable value
//	contains    substring of a string, or member of a sequence
//	startswith  string prefix
//	endswith    string suffix
//	in          resolved value equals an element of a sequence acceptable value
//	exists      always true once the field resolves
func DefaultRegistry(logger *zap.Logger) *Registry {
	r := NewRegistry(logger)
	// Names are valid and functions non-nil, so this cannot fail.
	_ = r.RegisterAll(map[string]PredicateFunc{
		"neq":        predicateNeq,
		"contains":   predicateContains,
		"startswith": predicateStartsWith,
		"endswith":   predicateEndsWith,
		"in":         predicateIn,
		"exists":     predicateExists,
	})
	return r
}

func predicateNeq(value, acceptable types.Value) (bool, error) {
	return !types.Equal(value, acceptable), nil
}

func predicateContains(value, acceptable types.Value) (bool, error) {
	switch v := value.(type) {
	case types.String:
		s, ok := acceptable.(types.String)
		if !ok {
			return false, fmt.Errorf("cannot search string for %s", kindOf(acceptable))
		}
		return strings.Contains(string(v), string(s)), nil
	case types.Sequence:
		for _, elem := range v {
			if types.Equal(elem, acceptable) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("cannot search %s", kindOf(value))
	}
}

func predicateStartsWith(value, acceptable types.Value) (bool, error) {
	s, prefix, err := stringPair(value, acceptable)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(s, prefix), nil
}

func predicateEndsWith(value, acceptable types.Value) (bool, error) {
	s, suffix, err := stringPair(value, acceptable)
	if err != nil {
		return false, err
	}
	return strings.HasSuffix(s, suffix), nil
}

func predicateIn(value, acceptable types.Value) (bool, error) {
	set, ok := acceptable.(types.Sequence)
	if !ok {
		return false, fmt.Errorf("acceptable value must be a sequence, got %s", kindOf(acceptable))
	}
	for _, elem := range set {
		if types.Equal(value, elem) {
			return true, nil
		}
	}
	return false, nil
}

func predicateExists(types.Value, types.Value) (bool, error) {
	return true, nil
}

func stringPair(value, acceptable types.Value) (string, string, error) {
	s, ok := value.(types.String)
	if !ok {
		return "", "", fmt.Errorf("value must be a string, got %s", kindOf(value))
	}
	a, ok := acceptable.(types.String)
	if !ok {
		return "", "", fmt.Errorf("acceptable value must be a string, got %s", kindOf(acceptable))
	}
	return string(s), string(a), nil
}

package access

import (
	"fmt"
	"sync"
)

// Op is the kind of operation a caller wants to perform. Every mutating entry
// point of the storage layer asks Authorize with the caller identity and one
// of these kinds.
type Op int

const (
	// OpManageTender covers tender creation, phase transitions, winner
	// selection and evaluator administration.
	OpManageTender Op = iota
	// OpEvaluate covers scoring a single offer.
	OpEvaluate
	// OpSubmit covers offer submission, open to any identity.
	OpSubmit
)

// Control holds the single authority identity and the evaluator set. It is a
// pure membership primitive: it answers who may do what, but enforces no
// tender lifecycle rules itself.
type Control struct {
	mu         sync.RWMutex
	authority  string
	evaluators map[string]struct{}
}

func New(authority string) (*Control, error) {
	if authority == "" {
		return nil, fmt.Errorf("access.New: the authority identity is empty")
	}

	return &Control{
		authority:  authority,
		evaluators: make(map[string]struct{}),
	}, nil
}

func (c *Control) Authorize(caller string, op Op) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch op {
	case OpManageTender:
		return caller != "" && caller == c.authority
	case OpEvaluate:
		_, ok := c.evaluators[caller]
		return ok
	case OpSubmit:
		return caller != ""
	default:
		return false
	}
}

func (c *Control) CurrentAuthority() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.authority
}

// TransferAuthority replaces the authority identity unconditionally. The
// caller check happens in the storage layer via Authorize.
func (c *Control) TransferAuthority(newAuthority string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.authority = newAuthority
}

func (c *Control) IsEvaluator(addr string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.evaluators[addr]
	return ok
}

// AddEvaluator reports false if addr is already registered.
func (c *Control) AddEvaluator(addr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.evaluators[addr]; ok {
		return false
	}
	c.evaluators[addr] = struct{}{}
	return true
}

// RemoveEvaluator reports false if addr was not registered.
func (c *Control) RemoveEvaluator(addr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.evaluators[addr]; !ok {
		return false
	}
	delete(c.evaluators, addr)
	return true
}

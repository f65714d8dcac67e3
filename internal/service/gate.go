package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Hexix23/webhook-catcher-workers/internal/eventkey"
)

// ErrForbiddenNamespace is returned when a namespace is not on the allowlist.
var ErrForbiddenNamespace = errors.New("namespace not allowed")

// Gate decides which namespaces may be written, read and deleted.
type Gate struct {
	allowed map[string]struct{}
}

// NewGate builds a gate from allowlist. Entries are trimmed and empty
// entries dropped; an empty result allows every namespace.
func NewGate(allowlist []string) *Gate {
	g := &Gate{}
	for _, ns := range allowlist {
		ns = strings.TrimSpace(ns)
		if ns == "" {
			continue
		}
		if g.allowed == nil {
			g.allowed = make(map[string]struct{})
		}
		g.allowed[ns] = struct{}{}
	}
	return g
}

// IsAllowed reports whether namespace passes the allowlist. Matching is exact.
func (g *Gate) IsAllowed(namespace string) bool {
	if g == nil || len(g.allowed) == 0 {
		return true
	}
	_, ok := g.allowed[namespace]
	return ok
}

// Restricted reports whether an allowlist is configured.
func (g *Gate) Restricted() bool {
	return g != nil && len(g.allowed) > 0
}

// Check validates namespace and applies the allowlist.
func (g *Gate) Check(namespace string) error {
	if err := eventkey.ValidateNamespace(namespace); err != nil {
		return err
	}
	if !g.IsAllowed(namespace) {
		return fmt.Errorf("%w: %q", ErrForbiddenNamespace, namespace)
	}
	return nil
}

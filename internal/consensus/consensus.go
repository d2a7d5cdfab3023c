// Copyright 2026 The Vault Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package consensus implements the all-quantifier gate spec.md §4.8
// requires before any irrecoverable filesystem mutation: N independent
// pure predicates must unanimously agree a file may be deleted.
package consensus

import (
	"fmt"

	"github.com/wtsi-hgi/vault/internal/fileattr"
)

// Predicate is one independent, side-effect-free vote on whether a file
// may be deleted. Predicates depend only on the attributes and
// thresholds passed in; they never touch the filesystem (spec.md §4.8).
type Predicate func(a fileattr.Attrs, thresholdAge int64) bool

// ErrDisagreement is returned when not every predicate agrees. Per
// spec.md §7/§8 this is fatal: callers must terminate the process
// rather than continue past it.
type ErrDisagreement struct {
	Results []bool
}

func (e *ErrDisagreement) Error() string {
	return fmt.Sprintf("consensus: predicates disagreed: %v", e.Results)
}

// Gate holds the registered predicates.
type Gate struct {
	predicates []Predicate
}

// NewGate builds a Gate from at least 3 predicates, as spec.md §4.8
// requires ("N >= 3 independent implementations").
func NewGate(predicates ...Predicate) (*Gate, error) {
	if len(predicates) < 3 {
		return nil, fmt.Errorf("consensus: need at least 3 predicates, got %d", len(predicates))
	}
	return &Gate{predicates: predicates}, nil
}

// CanDelete runs every predicate and requires unanimous true. Any
// disagreement returns *ErrDisagreement; callers must treat this as
// fatal (spec.md §4.8: "the entire process exits immediately").
func (g *Gate) CanDelete(a fileattr.Attrs, thresholdAge int64) error {
	results := make([]bool, len(g.predicates))
	allTrue := true
	for i, p := range g.predicates {
		results[i] = p(a, thresholdAge)
		if !results[i] {
			allTrue = false
		}
	}
	if !allTrue {
		return &ErrDisagreement{Results: results}
	}
	return nil
}

// DefaultPredicates returns the three standard predicates used by
// sandman: age-based expiry against the caller's clock, a sane-size
// check (size can't be negative), and a link-count check. They are
// intentionally simple and overlapping: the point of the gate is
// redundant agreement, not sophistication in any one vote.
func DefaultPredicates(now func() int64) []Predicate {
	return []Predicate{
		AgeAtLeast(now),
		SizeNonNegative,
		LinksPositive,
	}
}

// AgeAtLeast builds a predicate that votes true when now-mtime age in
// seconds is at least thresholdAge.
func AgeAtLeast(now func() int64) Predicate {
	return func(a fileattr.Attrs, thresholdAge int64) bool {
		age := now() - a.Mtime.Unix()
		return age >= thresholdAge
	}
}

// SizeNonNegative votes true unless size is corrupt/negative.
func SizeNonNegative(a fileattr.Attrs, _ int64) bool {
	return a.Size >= 0
}

// LinksPositive votes true as long as the observed hardlink count is at
// least 1 — a zero count means the stat was taken mid-unlink and the
// decision should not proceed.
func LinksPositive(a fileattr.Attrs, _ int64) bool {
	return a.Links >= 1
}

// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"sort"
	"sync"

	"github.com/TaffyWrinkle/jacdac/internal/idl"
	"github.com/TaffyWrinkle/jacdac/internal/optional"
)

// corpusTable holds the documents of every finished wave and the class
// identifiers they claimed. Documents compiled in the same wave never see
// each other.
type corpusTable struct {
	lock    sync.RWMutex
	specs   map[string]*idl.ServiceSpec
	owners  map[uint32][]idl.ClassOwner
	pending map[uint32][]idl.ClassOwner
	// reported holds (document, owner) pairs already diagnosed during a
	// document pass.
	reported map[ownerPair]bool
}

type ownerPair struct {
	key   string
	owner string
}

func newCorpusTable() *corpusTable {
	return &corpusTable{
		specs:    make(map[string]*idl.ServiceSpec),
		owners:   make(map[uint32][]idl.ClassOwner),
		pending:  make(map[uint32][]idl.ClassOwner),
		reported: make(map[ownerPair]bool),
	}
}

// view returns the Includes seen by one document of the current wave.
func (s *corpusTable) view(key string) idl.Includes {
	return &corpusView{table: s, key: key}
}

// publish makes the documents and class identifiers of a finished wave
// visible to later waves.
func (s *corpusTable) publish(specs map[string]*idl.ServiceSpec) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for key, spec := range specs {
		s.specs[key] = spec
	}
	for id, owners := range s.pending {
		s.owners[id] = append(s.owners[id], owners...)
	}
	s.pending = make(map[uint32][]idl.ClassOwner)
}

// collisions returns every class identifier claimed by more than one
// document with its owners in key order.
func (s *corpusTable) collisions() map[uint32][]idl.ClassOwner {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := make(map[uint32][]idl.ClassOwner)
	for id, owners := range s.owners {
		if len(owners) < 2 {
			continue
		}
		sorted := append([]idl.ClassOwner{}, owners...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
		out[id] = sorted
	}
	return out
}

func (s *corpusTable) wasReported(key string, owner string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.reported[ownerPair{key: key, owner: owner}]
}

type corpusView struct {
	table *corpusTable
	key   string
}

func (v *corpusView) ResolveBase(key string) optional.Optional[*idl.ServiceSpec] {
	v.table.lock.RLock()
	defer v.table.lock.RUnlock()
	spec, ok := v.table.specs[key]
	return optional.FromLookup(spec, ok)
}

func (v *corpusView) LookupClassIdentifier(id uint32) optional.Optional[idl.ClassOwner] {
	v.table.lock.Lock()
	defer v.table.lock.Unlock()
	for _, owner := range v.table.owners[id] {
		if owner.Key == v.key {
			continue
		}
		v.table.reported[ownerPair{key: v.key, owner: owner.Key}] = true
		return optional.Some(owner)
	}
	return optional.None[idl.ClassOwner]()
}

func (v *corpusView) RecordClassIdentifier(id uint32, owner idl.ClassOwner) {
	v.table.lock.Lock()
	defer v.table.lock.Unlock()
	v.table.pending[id] = append(v.table.pending[id], owner)
}

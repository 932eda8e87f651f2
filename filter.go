package latticeworld

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

// Filter is a structural-only predicate over an archetype: it contributes
// no data to a query result, but may reject an archetype entirely. A Filter
// rejects at archetype granularity, and With/Without compose into a tree of
// AND/OR/NOT component-mask matching.
type Filter interface {
	Evaluate(archetype ArchetypeImpl, storage Storage) bool
}

// FilterBuilder composes Filters with And/Or/Not over component sets, one
// level up from typed terms: terms (query_fetch.go) describe what data a
// query reads or writes, Filters describe which archetypes are eligible at
// all.
type FilterBuilder interface {
	Filter
	And(items ...interface{}) Filter
	Or(items ...interface{}) Filter
	Not(items ...interface{}) Filter
}

// FilterOperation defines the logical operations for filter nodes
type FilterOperation int

const (
	OpAnd FilterOperation = iota
	OpOr
	OpNot
)

// compositeFilter implements a compound filter with child nodes
type compositeFilter struct {
	op         FilterOperation
	children   []Filter
	components []Component
}

// filterBuilder implements the FilterBuilder interface
type filterBuilder struct {
	root Filter
}

// NewFilter creates a new empty filter builder. Use With/Without for the
// common single-level cases, or FilterBuilder.And/Or/Not to compose a
// deeper tree.
func NewFilter() FilterBuilder {
	return &filterBuilder{}
}

// With returns a Filter matching archetypes that contain every given
// component.
func With(components ...Component) Filter {
	return &compositeFilter{op: OpAnd, components: components}
}

// Without returns a Filter matching archetypes that contain none of the
// given components.
func Without(components ...Component) Filter {
	return &compositeFilter{op: OpNot, components: components}
}

func newCompositeFilter(op FilterOperation, components []Component) *compositeFilter {
	return &compositeFilter{op: op, children: make([]Filter, 0), components: components}
}

func (n *compositeFilter) Evaluate(archetype ArchetypeImpl, storage Storage) bool {
	var nodeMask mask.Mask
	for _, comp := range n.components {
		bit := storage.RowIndexFor(comp)
		nodeMask.Mark(bit)
	}
	archeMask := archetype.Table().(mask.Maskable).Mask()

	switch n.op {
	case OpAnd:
		if !archeMask.ContainsAll(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(archetype, storage) {
				return false
			}
		}
		return true
	case OpOr:
		if archeMask.ContainsAny(nodeMask) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(archetype, storage) {
				return true
			}
		}
		return false
	case OpNot:
		if len(n.children) == 0 {
			return archeMask.ContainsNone(nodeMask)
		}
		if len(n.components) > 0 && !archeMask.ContainsNone(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if child.Evaluate(archetype, storage) {
				return false
			}
		}
		return true
	}
	return false
}

func (f *filterBuilder) And(items ...interface{}) Filter {
	components, children := f.processItems(items...)
	node := newCompositeFilter(OpAnd, components)
	node.children = children
	if f.root == nil {
		f.root = node
	}
	return node
}

func (f *filterBuilder) Or(items ...interface{}) Filter {
	components, children := f.processItems(items...)
	node := newCompositeFilter(OpOr, components)
	node.children = children
	if f.root == nil {
		f.root = node
	}
	return node
}

func (f *filterBuilder) Not(items ...interface{}) Filter {
	components, children := f.processItems(items...)
	node := newCompositeFilter(OpNot, components)
	node.children = children
	if f.root == nil {
		f.root = node
	}
	return node
}

func (f *filterBuilder) validateItems(items ...interface{}) error {
	for _, item := range items {
		switch item.(type) {
		case Component, []Component, Filter:
			continue
		default:
			return fmt.Errorf("invalid filter item type: %T. Only Component, []Component, or Filter are allowed", item)
		}
	}
	return nil
}

func (f *filterBuilder) processItems(items ...interface{}) ([]Component, []Filter) {
	if err := f.validateItems(items...); err != nil {
		panic(bark.AddTrace(err))
	}
	var components []Component
	var children []Filter
	for _, item := range items {
		switch v := item.(type) {
		case Component:
			components = append(components, v)
		case []Component:
			components = append(components, v...)
		case Filter:
			children = append(children, v)
		}
	}
	return components, children
}

func (f *filterBuilder) Evaluate(archetype ArchetypeImpl, storage Storage) bool {
	if f.root == nil {
		return false
	}
	return f.root.Evaluate(archetype, storage)
}

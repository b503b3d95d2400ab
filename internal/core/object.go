package core

import (
	"fmt"
	"slices"

	"github.com/comalice/simkernel/internal/primitives"
)

// HierarchySeparator joins a parent's name and a child's basename.
const HierarchySeparator = "."

// Object is a named node of the simulation hierarchy. Processes and modules
// are objects; events and resets are not.
type Object interface {
	// Name returns the full hierarchical name.
	Name() string

	// Basename returns the last segment of Name.
	Basename() string

	// ParentObject returns the parent, or nil for a top-level object.
	ParentObject() Object

	// ChildObjects returns a copy of the children in attach order.
	ChildObjects() []Object

	// Attributes returns the object's attribute set.
	Attributes() *primitives.Attributes

	base() *objectBase
}

type objectBase struct {
	name     string
	basename string
	parent   Object
	children []Object
	attrs    *primitives.Attributes
	attached bool
}

func (o *objectBase) Name() string                       { return o.name }
func (o *objectBase) Basename() string                   { return o.basename }
func (o *objectBase) ParentObject() Object               { return o.parent }
func (o *objectBase) Attributes() *primitives.Attributes { return o.attrs }
func (o *objectBase) base() *objectBase                  { return o }

func (o *objectBase) ChildObjects() []Object {
	return slices.Clone(o.children)
}

func (o *objectBase) removeChild(child Object) {
	o.children = slices.DeleteFunc(o.children, func(c Object) bool { return c == child })
}

// Module is a plain container object used to build a hierarchy.
type Module struct {
	objectBase
}

// attach names obj under parent and makes it reachable from the registry.
func (s *Simcontext) attach(obj Object, parent Object, basename string) error {
	b := obj.base()
	if basename == "" {
		basename = s.names.Gen("object", false)
	}
	name := basename
	if parent != nil {
		name = parent.Name() + HierarchySeparator + basename
	}
	if _, exists := s.objects[name]; exists {
		return fmt.Errorf("%q: %w", name, primitives.ErrDuplicateName)
	}

	b.name = name
	b.basename = basename
	b.parent = parent
	b.attrs = primitives.NewAttributes()
	b.attached = true
	s.objects[name] = obj
	if parent != nil {
		pb := parent.base()
		pb.children = append(pb.children, obj)
	} else {
		s.topLevel = append(s.topLevel, obj)
	}
	return nil
}

// detach removes obj from its parent and from the name registry. After
// detach no lookup or traversal from the root finds obj. Idempotent.
func (s *Simcontext) detach(obj Object) {
	b := obj.base()
	if !b.attached {
		return
	}
	b.attached = false
	if b.parent != nil {
		b.parent.base().removeChild(obj)
	} else {
		s.topLevel = slices.DeleteFunc(s.topLevel, func(o Object) bool { return o == obj })
	}
	if s.objects[b.name] == obj {
		delete(s.objects, b.name)
	}
}

// addChildObject moves an orphaned child to the top level. The child keeps
// its name.
func (s *Simcontext) addChildObject(obj Object) {
	obj.base().parent = nil
	s.topLevel = append(s.topLevel, obj)
}

// NewModule creates a module under parent (nil for top level).
func (s *Simcontext) NewModule(parent Object, name string) (*Module, error) {
	m := &Module{}
	if err := s.attach(m, parent, name); err != nil {
		return nil, err
	}
	return m, nil
}

// FindObject looks an object up by full hierarchical name.
func (s *Simcontext) FindObject(name string) (Object, error) {
	obj, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, primitives.ErrNotFound)
	}
	return obj, nil
}

// TopLevelObjects returns the roots of the hierarchy in attach order.
func (s *Simcontext) TopLevelObjects() []Object {
	return slices.Clone(s.topLevel)
}

// Walk visits every object reachable from the roots, parents before children.
func (s *Simcontext) Walk(fn func(Object) bool) {
	var visit func(Object) bool
	visit = func(o Object) bool {
		if !fn(o) {
			return false
		}
		for _, c := range o.base().children {
			if !visit(c) {
				return false
			}
		}
		return true
	}
	for _, root := range s.topLevel {
		if !visit(root) {
			return
		}
	}
}

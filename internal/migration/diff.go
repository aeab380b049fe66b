package migration

import (
	"fmt"
	"strings"

	"github.com/roach88/schemaforge/internal/schema"
)

// Rename is a caller-supplied hint that a field was renamed rather than
// removed and re-added.
type Rename struct {
	Old schema.FieldName
	New schema.FieldName
}

// ParseRename parses an "old:new" rename hint.
func ParseRename(s string) (Rename, error) {
	oldName, newName, ok := strings.Cut(s, ":")
	if !ok {
		return Rename{}, fmt.Errorf("invalid rename %q: expected old:new", s)
	}
	o, err := schema.NewFieldName(oldName)
	if err != nil {
		return Rename{}, fmt.Errorf("invalid rename %q: %w", s, err)
	}
	n, err := schema.NewFieldName(newName)
	if err != nil {
		return Rename{}, fmt.Errorf("invalid rename %q: %w", s, err)
	}
	return Rename{Old: o, New: n}, nil
}

func (r Rename) String() string { return r.Old.String() + ":" + r.New.String() }

// CreateNew plans the creation of a schema that does not exist yet: exactly
// one CreateSchema step carrying the full field list.
func CreateNew(def *schema.Definition) *Plan {
	fields := append([]schema.FieldDefinition(nil), def.Fields...)
	return NewPlan(def.ID, def.Name, []Step{CreateSchema{Name: def.Name, Fields: fields}})
}

// Diff plans the changes from old to new with no rename hints.
func Diff(old, new *schema.Definition) *Plan {
	return DiffWithRenames(old, new, nil)
}

// DiffWithRenames plans the changes from old to new. The plan carries the new
// schema's identity. Diffing is total: it never fails, and every change is
// reported however destructive.
//
// Steps are emitted in passes:
//  1. renames (plus a ChangeType under the new name when the type changed)
//  2. removed fields, in old order
//  3. added fields, in new order
//  4. type changes of fields present in both, in new order
//  5. modifier changes of fields whose type did not change, in new order
func DiffWithRenames(old, new *schema.Definition, renames []Rename) *Plan {
	d := newDiffer(old, new, renames)
	d.renamePass()
	d.removePass()
	d.addPass()
	d.typePass()
	d.modifierPass()
	return NewPlan(new.ID, new.Name, d.steps)
}

type differ struct {
	old, new *schema.Definition
	renames  []Rename

	renamedFrom map[string]bool   // old names used as rename sources
	renamedTo   map[string]string // new name -> old name
	steps       []Step
}

func newDiffer(old, new *schema.Definition, renames []Rename) *differ {
	d := &differ{
		old:         old,
		new:         new,
		renames:     renames,
		renamedFrom: make(map[string]bool, len(renames)),
		renamedTo:   make(map[string]string, len(renames)),
	}
	for _, r := range renames {
		d.renamedFrom[r.Old.String()] = true
		d.renamedTo[r.New.String()] = r.Old.String()
	}
	return d
}

func (d *differ) emit(s Step) {
	d.steps = append(d.steps, s)
}

func (d *differ) renamePass() {
	for _, r := range d.renames {
		oldField, ok := d.old.Field(r.Old.String())
		if !ok {
			continue
		}
		d.emit(RenameField{OldName: r.Old, NewName: r.New})

		newField, ok := d.new.Field(r.New.String())
		if ok && !schema.SameType(oldField.Type, newField.Type) {
			d.emit(ChangeType{
				Name:      r.New,
				OldType:   oldField.Type,
				NewType:   newField.Type,
				Transform: InferTransform(oldField.Type, newField.Type),
			})
		}
	}
}

func (d *differ) removePass() {
	for _, f := range d.old.Fields {
		name := f.Name.String()
		if d.renamedFrom[name] {
			continue
		}
		if _, ok := d.new.Field(name); ok {
			continue
		}
		if f.IsRelation() {
			d.emit(RemoveRelation{Name: f.Name})
		} else {
			d.emit(RemoveField{Name: f.Name})
		}
	}
}

func (d *differ) addPass() {
	for _, f := range d.new.Fields {
		name := f.Name.String()
		if _, ok := d.renamedTo[name]; ok {
			continue
		}
		if _, ok := d.old.Field(name); ok {
			continue
		}
		if rel, ok := f.Type.(schema.Relation); ok {
			d.emit(AddRelation{Name: f.Name, Target: rel.Target, Cardinality: rel.Cardinality})
		} else {
			d.emit(AddField{Field: f})
		}
	}
}

func (d *differ) typePass() {
	for _, f := range d.new.Fields {
		name := f.Name.String()
		if _, ok := d.renamedTo[name]; ok {
			continue
		}
		oldField, ok := d.old.Field(name)
		if !ok || schema.SameType(oldField.Type, f.Type) {
			continue
		}
		d.emit(ChangeType{
			Name:      f.Name,
			OldType:   oldField.Type,
			NewType:   f.Type,
			Transform: InferTransform(oldField.Type, f.Type),
		})
	}
}

// modifierPass compares required, indexed and default state of fields
// matched by name or through a rename, skipping fields whose type changed.
func (d *differ) modifierPass() {
	for _, f := range d.new.Fields {
		oldName := f.Name.String()
		if renamed, ok := d.renamedTo[oldName]; ok {
			oldName = renamed
		}
		oldField, ok := d.old.Field(oldName)
		if !ok || !schema.SameType(oldField.Type, f.Type) {
			continue
		}

		switch {
		case f.IsRequired() && !oldField.IsRequired():
			d.emit(AddRequired{Field: f.Name})
		case !f.IsRequired() && oldField.IsRequired():
			d.emit(RemoveRequired{Field: f.Name})
		}

		switch {
		case f.IsIndexed() && !oldField.IsIndexed():
			d.emit(AddIndex{Field: f.Name})
		case !f.IsIndexed() && oldField.IsIndexed():
			d.emit(RemoveIndex{Field: f.Name})
		}

		newDefault, hasNew := f.DefaultValue()
		oldDefault, hasOld := oldField.DefaultValue()
		switch {
		case hasNew && !hasOld:
			d.emit(SetDefault{Field: f.Name, Value: newDefault})
		case !hasNew && hasOld:
			d.emit(RemoveDefault{Field: f.Name})
		case hasNew && hasOld && newDefault != oldDefault:
			d.emit(SetDefault{Field: f.Name, Value: newDefault})
		}
	}
}

package binder

import (
	"reflect"

	"github.com/vk/anvil/internal/diag"
	"github.com/vk/anvil/internal/element"
)

// resolve replaces a bound DataType reference with the shared instance it
// names. Elements that are not references are returned unchanged.
func (b *Binder) resolve(inst element.Element, declared reflect.Type, project *element.Project, parent element.Element) (element.Element, error) {
	dt, ok := inst.(element.DataType)
	if !ok {
		return inst, nil
	}
	fields := dt.DataTypeFields()
	if fields.RefID == "" {
		return inst, nil
	}
	if fields.ID != "" {
		return nil, diag.Configf(fields.Location, "datatype references cannot contain an id attribute.")
	}

	shared, ok := project.References.Lookup(fields.RefID)
	if !ok {
		return nil, diag.Configf(fields.Location, "%s reference '%s' not defined.", fields.Name(), fields.RefID)
	}
	if !reflect.TypeOf(shared).AssignableTo(declared) {
		return nil, diag.Configf(fields.Location, "Reference '%s' is a %T, which cannot be used as <%s>.",
			fields.RefID, shared, fields.Name())
	}

	shared.Reset()
	element.Stamp(shared, project, parent)
	return shared, nil
}

// Resolve resolves inst against project's references the way nested
// elements are resolved during a bind.
func (b *Binder) Resolve(inst element.Element, project *element.Project, parent element.Element) (element.Element, error) {
	return b.resolve(inst, reflect.TypeOf(inst), project, parent)
}

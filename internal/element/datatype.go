// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package element

// DataType is an element that can be declared once with an ID and reused
// elsewhere through a reference.
type DataType interface {
	Element
	DataTypeFields() *DataTypeBase
	// Reset clears state that must not leak from one use of a shared
	// instance into the next.
	Reset()
}

// DataTypeBase is embedded by every DataType.
type DataTypeBase struct {
	Base
	ID    string `anvil:"id,attr,noexpand"`
	RefID string `anvil:"refid,attr"`
}

// DataTypeFields implements DataType.
func (d *DataTypeBase) DataTypeFields() *DataTypeBase { return d }

// Reset does nothing by default.
func (d *DataTypeBase) Reset() {}

// IsReference reports whether the instance stands for a shared one.
func (d *DataTypeBase) IsReference() bool { return d.RefID != "" }

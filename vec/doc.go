// Package vec provides the owning vector used to pass collections across the
// embedding boundary.
//
// A vector is parameterized by its element type and an element policy. Two
// policies cover the usual cases:
//
//	ValuePolicy[T]  - plain values stored inline (numbers, bytes)
//	OwnedPolicy[T]  - exclusively owned handles that know how to Copy and Delete
//
// Values[T] and Owned[T] name the two instantiations, Bytes is Values[byte].
// Families of handles that share an interface can supply their own policy.
//
// # Validity
//
// A vector is valid or invalid. Invalid means "no result was produced", for
// example when allocation is refused; it is not the same as an empty result:
//
//	ok := vec.Uninitialized[int32](0) // ok.Valid() == true, ok.Len() == 0
//	no := vec.InvalidValues[int32]()  // no.Valid() == false, no.Len() == 0
//
// Always test Valid before indexing a vector returned by a factory.
//
// # Ownership
//
// A vector exclusively owns its elements. Moving it (Move, Reset, Convert)
// transfers that ownership and leaves the source invalid; Delete destructs
// every element through the policy. Element access goes through Slot, which
// deletes the previous occupant when a new handle is installed:
//
//	v := vec.OwnedUninitialized[*types.ValType](2)
//	v.Set(0, types.NewValType(types.I32))
//	old := v.Slot(0).Release() // caller now owns old, slot is null
//	defer v.Delete()
//
// Own is the single-element counterpart used for handles held on their own.
package vec

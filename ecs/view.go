package ecs

import (
	"reflect"
	"unsafe"

	"github.com/rotisserie/eris"
)

// View gives typed access to several components of one entity at once.
// T must be a struct whose fields are pointers to component types. Embedded
// fields are always required; named fields can be marked optional with the
// `ecs:"optional"` struct tag.
type View[T any] struct {
	world       *World
	components  []ComponentId
	optional    []bool
	fieldOffset []uintptr
	required    Archetype
}

// NewView registers every component type referenced by T and builds a view.
func NewView[T any](w *World) (*View[T], error) {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		return nil, eris.Wrapf(ErrInvalidOperation, "view type %s is not a struct", structType)
	}

	v := &View[T]{
		world:       w,
		components:  make([]ComponentId, 0, structType.NumField()),
		optional:    make([]bool, 0, structType.NumField()),
		fieldOffset: make([]uintptr, 0, structType.NumField()),
	}

	var required []ComponentId
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Type.Kind() != reflect.Ptr {
			return nil, eris.Wrapf(ErrInvalidOperation, "view field %s must be a pointer", field.Name)
		}

		id, err := w.registerType(field.Type.Elem())
		if err != nil {
			return nil, err
		}

		isOptional := false
		if !field.Anonymous {
			switch tag := field.Tag.Get("ecs"); tag {
			case "":
			case "optional":
				isOptional = true
			default:
				return nil, eris.Wrapf(ErrInvalidOperation, "invalid ecs tag value %q (only \"optional\" is supported)", tag)
			}
		}

		v.components = append(v.components, id)
		v.optional = append(v.optional, isOptional)
		v.fieldOffset = append(v.fieldOffset, field.Offset)
		if !isOptional {
			required = append(required, id)
		}
	}
	v.required = BuildArchetype(required...)
	return v, nil
}

// registerType registers a Go type as a component under its type name.
// Types holding Go pointers are rejected: column bytes are not scanned by
// the garbage collector.
func (w *World) registerType(t reflect.Type) (ComponentId, error) {
	if hasPointers(t) {
		return 0, eris.Wrapf(ErrInvalidOperation, "component type %s contains pointers", t)
	}
	return w.RegisterComponent(t.String(), t.Size(), uintptr(t.Align()))
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.UnsafePointer, reflect.Map, reflect.Slice, reflect.String,
		reflect.Interface, reflect.Chan, reflect.Func:
		return true
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

// Archetype returns the archetype made of the view's required components.
func (v *View[T]) Archetype() Archetype {
	return v.required
}

// Query returns a query over the view's required components.
func (v *View[T]) Query() Query {
	return Query{components: v.required.components}
}

// Fill points the fields of ptr at the components of e. It returns false if
// e is missing a required component; missing optional components are nil.
func (v *View[T]) Fill(e EntityId, ptr *T) bool {
	if !v.world.entities.alive(e) {
		return false
	}
	rec := v.world.entities.get(e)
	structPtr := unsafe.Pointer(ptr)

	for i, c := range v.components {
		fieldPtr := unsafe.Add(structPtr, v.fieldOffset[i])
		b, ok := rec.storage.component(rec.row, c)
		if !ok {
			if !v.optional[i] {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}
		*(*unsafe.Pointer)(fieldPtr) = bytePointer(b)
	}
	return true
}

// Get returns a populated view struct for e, or nil if e lacks a required
// component.
func (v *View[T]) Get(e EntityId) *T {
	var result T
	if !v.Fill(e, &result) {
		return nil
	}
	return &result
}

// Spawn creates an entity holding the components data points at. Nil optional
// fields are left out; a nil required field is an error.
func (v *View[T]) Spawn(data T) (EntityId, error) {
	structPtr := unsafe.Pointer(&data)

	archetype := v.required
	for i, c := range v.components {
		fieldPtr := *(*unsafe.Pointer)(unsafe.Add(structPtr, v.fieldOffset[i]))
		if fieldPtr == nil {
			if !v.optional[i] {
				return 0, eris.Wrapf(ErrInvalidOperation, "required component %d is nil", c)
			}
			continue
		}
		archetype = archetype.With(c)
	}

	id, err := v.world.RegisterArchetype(archetype)
	if err != nil {
		return 0, err
	}
	e, err := v.world.CreateEntity(id)
	if err != nil {
		return 0, err
	}

	rec := v.world.entities.get(e)
	for i, c := range v.components {
		fieldPtr := *(*unsafe.Pointer)(unsafe.Add(structPtr, v.fieldOffset[i]))
		if fieldPtr == nil {
			continue
		}
		dst, _ := rec.storage.component(rec.row, c)
		copy(dst, unsafe.Slice((*byte)(fieldPtr), len(dst)))
	}
	return e, nil
}

// Package videoframe defines the opaque domain values the pipeline core
// moves around: frames, the objects detected on them, and the attributes
// attached to either. The core never interprets these values beyond
// cloning, storing, and forwarding them — geometry, symbol tables and
// drawing are out of scope here.
package videoframe

import "time"

// AttrKey identifies an attribute by its owning namespace and name.
type AttrKey struct {
	Namespace string
	Name      string
}

// Attribute is a namespaced key-value pair. Value is intentionally `any`:
// the core never inspects it, only stores and forwards it.
type Attribute struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Value     any    `json:"value"`
}

func (a Attribute) key() AttrKey { return AttrKey{a.Namespace, a.Name} }

// BBox is a plain axis-aligned box, deliberately not a geometry type.
type BBox struct {
	XC, YC, Width, Height float64
}

// Object is an opaque detection/track record living on a Frame.
type Object struct {
	ID         int64
	Label      string
	Box        BBox
	attributes map[AttrKey]Attribute
}

// NewObject creates an object with an empty attribute set.
func NewObject(id int64, label string, box BBox) *Object {
	return &Object{ID: id, Label: label, Box: box, attributes: make(map[AttrKey]Attribute)}
}

// SetAttribute sets or overwrites an attribute on the object.
func (o *Object) SetAttribute(a Attribute) {
	if o.attributes == nil {
		o.attributes = make(map[AttrKey]Attribute)
	}
	o.attributes[a.key()] = a
}

// Attribute looks up an attribute by namespace/name.
func (o *Object) Attribute(ns, name string) (Attribute, bool) {
	a, ok := o.attributes[AttrKey{ns, name}]
	return a, ok
}

// Frame is the core's primary payload value. It is cheap to clone: objects
// and attributes are copied by map/slice header, not deep-copied.
type Frame struct {
	SourceID  string
	CreatedAt time.Time
	objects   []*Object
	attrs     map[AttrKey]Attribute
}

// NewFrame creates a frame from a source id and creation time.
func NewFrame(sourceID string, createdAt time.Time) *Frame {
	return &Frame{SourceID: sourceID, CreatedAt: createdAt, attrs: make(map[AttrKey]Attribute)}
}

// Clone performs a shallow copy: the returned Frame has its own object
// slice and attribute map headers, but both reference the same underlying
// *Object values and Attribute values as the original.
func (f *Frame) Clone() *Frame {
	cp := &Frame{SourceID: f.SourceID, CreatedAt: f.CreatedAt}
	cp.objects = append([]*Object(nil), f.objects...)
	cp.attrs = make(map[AttrKey]Attribute, len(f.attrs))
	for k, v := range f.attrs {
		cp.attrs[k] = v
	}
	return cp
}

// AddObject appends an object to the frame.
func (f *Frame) AddObject(o *Object) { f.objects = append(f.objects, o) }

// Objects returns the frame's objects.
func (f *Frame) Objects() []*Object { return f.objects }

// SetAttribute sets or overwrites a frame-level attribute.
func (f *Frame) SetAttribute(a Attribute) {
	if f.attrs == nil {
		f.attrs = make(map[AttrKey]Attribute)
	}
	f.attrs[a.key()] = a
}

// Attribute looks up a frame-level attribute by namespace/name.
func (f *Frame) Attribute(ns, name string) (Attribute, bool) {
	a, ok := f.attrs[AttrKey{ns, name}]
	return a, ok
}

// ObjectQuery is a caller-supplied predicate; accessObjects delegates
// execution to the frame without imposing any query DSL.
type ObjectQuery func(*Object) bool

// AccessObjects returns the objects on the frame matching query. A nil
// query returns every object.
func (f *Frame) AccessObjects(query ObjectQuery) []*Object {
	if query == nil {
		return append([]*Object(nil), f.objects...)
	}
	var out []*Object
	for _, o := range f.objects {
		if query(o) {
			out = append(out, o)
		}
	}
	return out
}

// Batch groups frames sharing a single payload id in a Batch-kind stage.
type Batch map[int64]*Frame

// UpdateKind discriminates what a FrameUpdate targets.
type UpdateKind int

const (
	UpdateFrameAttribute UpdateKind = iota
	UpdateObjectAttribute
)

// FrameUpdate is an opaque deferred mutation: the core stores it, forwards
// it across moves, and invokes Apply against the target frame/object. It
// never interprets Kind/Namespace/Name/Value/ObjectID beyond that.
type FrameUpdate struct {
	Kind      UpdateKind
	ObjectID  int64 // meaningful only when Kind == UpdateObjectAttribute
	Namespace string
	Name      string
	Value     any
}

// Apply applies the update to the given frame.
func (u FrameUpdate) Apply(f *Frame) {
	switch u.Kind {
	case UpdateFrameAttribute:
		f.SetAttribute(Attribute{Namespace: u.Namespace, Name: u.Name, Value: u.Value})
	case UpdateObjectAttribute:
		for _, o := range f.objects {
			if o.ID == u.ObjectID {
				o.SetAttribute(Attribute{Namespace: u.Namespace, Name: u.Name, Value: u.Value})
				return
			}
		}
	}
}

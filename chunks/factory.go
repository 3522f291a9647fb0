package chunks

// Factory maps chunk types to the constructor of their variant.
type Factory struct {
	ctors map[string]Constructor
}

// NewFactory returns a factory knowing the critical chunks and the
// ancillary chunks this package implements.
func NewFactory() *Factory {
	f := &Factory{ctors: make(map[string]Constructor)}
	f.Register(IHDR, newHeader)
	f.Register(PLTE, newPalette)
	f.Register(IDAT, newImageData)
	f.Register(IEND, newEnd)
	f.Register(GAMA, newGamma)
	f.Register(TRNS, newTransparency)
	f.Register(PHYS, newPhysicalDims)
	f.Register(TEXT, newText)
	f.Register(TIME, newModTime)
	return f
}

// Register sets (or replaces) the constructor for id. A nil ctor removes
// it, so that id is read as Unknown.
func (f *Factory) Register(id string, ctor Constructor) {
	if ctor == nil {
		delete(f.ctors, id)
		return
	}
	f.ctors[id] = ctor
}

// Known reports whether id has a registered constructor.
func (f *Factory) Known(id string) bool {
	_, ok := f.ctors[id]
	return ok
}

// Construct builds the variant for id, Unknown when none is registered.
func (f *Factory) Construct(id string, info *ImageInfo) Chunk {
	if ctor, ok := f.ctors[id]; ok {
		return ctor(id, info)
	}
	return NewUnknown(id, info)
}

// FromRaw constructs the variant for c and parses it.
func (f *Factory) FromRaw(c *RawChunk, info *ImageInfo) (Chunk, error) {
	chunk := f.Construct(c.ID, info)
	if err := chunk.ParseFromRaw(c); err != nil {
		return nil, err
	}
	return chunk, nil
}

package chunks

// OrderingConstraint tells where a chunk may appear in the stream.
// https://www.w3.org/TR/PNG/#5ChunkOrdering
type OrderingConstraint int

const (
	// Unconstrained chunks may appear anywhere after the first chunk.
	Unconstrained OrderingConstraint = iota
	// MustBeFirst chunks must be the first chunk after the signature (IHDR).
	MustBeFirst
	// BeforePalette chunks must precede PLTE and the image data.
	BeforePalette
	// BeforeImageData chunks must precede the image data group.
	BeforeImageData
	// AfterImageData chunks must follow the image data group.
	AfterImageData
	// MustBeLast chunks terminate the stream (IEND).
	MustBeLast
)

func (c OrderingConstraint) String() string {
	switch c {
	case Unconstrained:
		return "unconstrained"
	case MustBeFirst:
		return "must be first"
	case BeforePalette:
		return "before PLTE and image data"
	case BeforeImageData:
		return "before image data"
	case AfterImageData:
		return "after image data"
	case MustBeLast:
		return "must be last"
	}
	return "unknown constraint"
}

// Position is what a reader has observed so far, as needed to check a
// constraint.
type Position struct {
	First       bool // the chunk being checked is the first one
	SeenPalette bool
	SeenData    bool // the image data group has started
}

// Allows reports whether a chunk with constraint c may appear at p, and if
// not a short description of the position it was expected at.
func (c OrderingConstraint) Allows(p Position) (bool, string) {
	switch c {
	case MustBeFirst:
		return p.First, "first chunk"
	case BeforePalette:
		return !p.SeenPalette && !p.SeenData, "before PLTE and IDAT"
	case BeforeImageData:
		return !p.SeenData, "before IDAT"
	case AfterImageData:
		return p.SeenData, "after IDAT"
	}
	return true, ""
}

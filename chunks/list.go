package chunks

import "fmt"

// List holds the chunks of a stream in reading order.
type List struct {
	chunks []Chunk
}

func (l *List) Add(c Chunk) {
	l.chunks = append(l.chunks, c)
}

func (l *List) Len() int {
	return len(l.chunks)
}

// All returns the chunks in reading order. The slice must not be modified.
func (l *List) All() []Chunk {
	return l.chunks
}

// ByID returns every chunk of type id, in reading order.
func (l *List) ByID(id string) []Chunk {
	var out []Chunk
	for _, c := range l.chunks {
		if c.ID() == id {
			out = append(out, c)
		}
	}
	return out
}

// First returns the first chunk of type id, or nil.
func (l *List) First(id string) Chunk {
	for _, c := range l.chunks {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

// Summary returns a string containing chunk number, name and the first 20
// bytes of each chunk.
func (l *List) Summary() string {
	var output string
	for i, c := range l.chunks {
		output += "-----------\n"
		output += fmt.Sprintf("Chunk # %d\n", i)
		output += fmt.Sprintf("Chunk type: %v (%v)\n", c.ID(), c.OrderingConstraint())
		raw := c.Raw()
		if raw == nil {
			continue
		}
		output += fmt.Sprintf("Chunk length: %d\n", raw.Len)
		limit := 20
		if len(raw.Data) < 20 {
			limit = len(raw.Data)
		}
		output += fmt.Sprintf("Chunk data (20 bytes): % x\n", raw.Data[:limit])
	}
	return output
}

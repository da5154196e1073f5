package match

// Chunk is a contiguous run of the query. Start and End are inclusive.
// Matched chunks carry the emit that produced them.
type Chunk[E comparable] struct {
	Start    int
	End      int
	Elements []E
	Matched  bool
	Emit     *Emit[E]
}

func (c Chunk[E]) Len() int {
	return c.End - c.Start + 1
}

// Chunks partitions query using resolved emits sorted by start. The chunk
// elements, concatenated in order, equal query. Emits that reach back into
// an earlier chunk are ignored.
func Chunks[E comparable](query []E, emits []Emit[E]) []Chunk[E] {
	if len(query) == 0 {
		return nil
	}

	chunks := make([]Chunk[E], 0, 2*len(emits)+1)
	lastEnd := -1
	for i := range emits {
		emit := emits[i]
		if emit.Start <= lastEnd || emit.End >= len(query) || emit.Start < 0 {
			continue
		}
		if emit.Start-lastEnd > 1 {
			chunks = append(chunks, span(query, lastEnd+1, emit.Start-1, nil))
		}
		chunks = append(chunks, span(query, emit.Start, emit.End, &emit))
		lastEnd = emit.End
	}

	if lastEnd < len(query)-1 {
		chunks = append(chunks, span(query, lastEnd+1, len(query)-1, nil))
	}
	return chunks
}

func span[E comparable](query []E, start, end int, emit *Emit[E]) Chunk[E] {
	return Chunk[E]{
		Start:    start,
		End:      end,
		Elements: query[start : end+1 : end+1],
		Matched:  emit != nil,
		Emit:     emit,
	}
}

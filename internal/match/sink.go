package match

// EmitSink receives emits as the automaton discovers them.
type EmitSink[E comparable] interface {
	Emit(Emit[E])
}

// SinkFunc adapts a plain function to EmitSink.
type SinkFunc[E comparable] func(Emit[E])

func (f SinkFunc[E]) Emit(e Emit[E]) {
	f(e)
}

// CollectingSink keeps every emit in discovery order.
type CollectingSink[E comparable] struct {
	Emits []Emit[E]
}

func (s *CollectingSink[E]) Emit(e Emit[E]) {
	s.Emits = append(s.Emits, e)
}

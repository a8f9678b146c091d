package matching

import "fmt"

// ParamSet is an ordered name -> value mapping. Order matters because
// compiled evaluators receive parameter values positionally.
type ParamSet struct {
	names  []string
	values []float64
	index  map[string]int
}

func NewParamSet(names []string, values []float64) (*ParamSet, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("matching: %d names for %d values", len(names), len(values))
	}
	idx := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := idx[n]; dup {
			return nil, fmt.Errorf("matching: duplicate parameter %q", n)
		}
		idx[n] = i
	}
	p := &ParamSet{
		names:  append([]string(nil), names...),
		values: append([]float64(nil), values...),
		index:  idx,
	}
	return p, nil
}

func (p *ParamSet) Len() int { return len(p.names) }

func (p *ParamSet) Names() []string {
	return append([]string(nil), p.names...)
}

func (p *ParamSet) Values() []float64 {
	return append([]float64(nil), p.values...)
}

func (p *ParamSet) Has(name string) bool {
	_, ok := p.index[name]
	return ok
}

func (p *ParamSet) Get(name string) (float64, bool) {
	i, ok := p.index[name]
	if !ok {
		return 0, false
	}
	return p.values[i], true
}

func (p *ParamSet) Set(name string, value float64) error {
	i, ok := p.index[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	p.values[i] = value
	return nil
}

func (p *ParamSet) Clone() *ParamSet {
	c, _ := NewParamSet(p.names, p.values)
	return c
}

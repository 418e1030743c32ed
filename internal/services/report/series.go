package report

// DenseSeries is a date-keyed counter map guaranteed to hold a value for
// every key it was constructed with. Upserts for unknown keys are dropped,
// which is how out-of-range store documents are ignored.
type DenseSeries struct {
	keys   []string
	values map[string]int64
}

// NewDenseSeries builds a series over the given ordered keys with every
// value initialized to defaultValue.
func NewDenseSeries(keys []string, defaultValue int64) *DenseSeries {
	values := make(map[string]int64, len(keys))
	for _, key := range keys {
		values[key] = defaultValue
	}
	return &DenseSeries{keys: keys, values: values}
}

// Set overwrites the value for key and reports whether the key belongs to
// the series.
func (s *DenseSeries) Set(key string, value int64) bool {
	if _, ok := s.values[key]; !ok {
		return false
	}
	s.values[key] = value
	return true
}

// Get returns the value for key, zero for unknown keys.
func (s *DenseSeries) Get(key string) int64 {
	return s.values[key]
}

// Keys returns the ordered key sequence the series was built over.
func (s *DenseSeries) Keys() []string {
	return s.keys
}

// Len returns the number of keys.
func (s *DenseSeries) Len() int {
	return len(s.keys)
}

// Total sums every value in key order.
func (s *DenseSeries) Total() int64 {
	var total int64
	for _, key := range s.keys {
		total += s.values[key]
	}
	return total
}

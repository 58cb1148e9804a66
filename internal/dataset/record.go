package dataset

// Field is one stat key and the raw value extracted for it
type Field struct {
	Key   string
	Value string
}

// Record is the ordered set of fields read from a single table row.
// Keys are unique within a record.
type Record []Field

// Set stores value under key, replacing an earlier value in place
func (r *Record) Set(key, value string) {
	for i := range *r {
		if (*r)[i].Key == key {
			(*r)[i].Value = value
			return
		}
	}
	*r = append(*r, Field{Key: key, Value: value})
}

// Get returns the value stored under key
func (r Record) Get(key string) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Keys returns the stat keys in row order
func (r Record) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

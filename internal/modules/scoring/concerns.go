package scoring

// Concerns is an insertion-ordered set of human-readable concern strings.
// Adding a string that is already present is a no-op.
type Concerns struct {
	items []string
	seen  map[string]struct{}
}

// NewConcerns creates a set pre-populated with initial, in order
func NewConcerns(initial ...string) *Concerns {
	c := &Concerns{seen: make(map[string]struct{})}
	c.Add(initial...)
	return c
}

// Add appends each concern not already in the set
func (c *Concerns) Add(concerns ...string) {
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	for _, s := range concerns {
		if _, ok := c.seen[s]; ok {
			continue
		}
		c.seen[s] = struct{}{}
		c.items = append(c.items, s)
	}
}

// Contains reports whether s has been added
func (c *Concerns) Contains(s string) bool {
	_, ok := c.seen[s]
	return ok
}

// Len returns the number of distinct concerns
func (c *Concerns) Len() int {
	return len(c.items)
}

// Items returns a copy of the concerns in encounter order.
// The result is never nil so it encodes as an empty JSON array.
func (c *Concerns) Items() []string {
	out := make([]string, len(c.items))
	copy(out, c.items)
	return out
}

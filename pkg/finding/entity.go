package finding

// CanonicalEntity identifies one file of the analyzed project. Two
// tool-native paths resolve to the same entity iff they refer to the same
// file on disk. Immutable after construction.
type CanonicalEntity struct {
	CanonicalPath string `json:"canonicalPath" yaml:"canonical_path"`
}

// Resolver interns canonical paths so that two equal paths yield the same
// *CanonicalEntity pointer. The pointer is the join key used by every
// downstream stage; referential equality equals string equality.
type Resolver struct {
	entities map[string]*CanonicalEntity
}

// NewResolver creates an empty entity resolver.
func NewResolver() *Resolver {
	return &Resolver{entities: make(map[string]*CanonicalEntity)}
}

// Resolve returns the unique entity for the given canonical path.
func (r *Resolver) Resolve(canonicalPath string) *CanonicalEntity {
	if e, ok := r.entities[canonicalPath]; ok {
		return e
	}

	e := &CanonicalEntity{CanonicalPath: canonicalPath}
	r.entities[canonicalPath] = e

	return e
}

// Len returns the number of distinct entities resolved so far.
func (r *Resolver) Len() int {
	return len(r.entities)
}

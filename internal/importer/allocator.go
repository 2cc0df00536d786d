package importer

// TempIDAllocator hands out provisional identifiers for entities that the
// persistence service has not seen yet. Values start at -1 and decrease, so
// they can never collide with a permanent ID.
//
// Use one allocator per entity class. Not safe for concurrent use.
type TempIDAllocator struct {
	last int64
}

// NewTempIDAllocator creates an allocator whose first value is -1
func NewTempIDAllocator() *TempIDAllocator {
	return &TempIDAllocator{}
}

// Next returns the next provisional ID
func (a *TempIDAllocator) Next() int64 {
	a.last--
	return a.last
}

// Issued returns how many IDs have been handed out
func (a *TempIDAllocator) Issued() int {
	return int(-a.last)
}

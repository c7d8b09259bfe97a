package normalizer

// Report summarizes what a normalization pass removed or rewrote
type Report struct {
	RemovedSubtrees    int // Blocked elements dropped with their content
	AliasedElements    int // Legacy tags replaced by their canonical form
	UnwrappedElements  int // Disallowed or misplaced wrappers whose children were kept
	StrippedAttributes int // Attributes dropped by the whitelist, URL or style policy
	EventHandlers      int // Event handler attributes among the stripped ones
	RejectedURLs       int // href/src values that failed the URL policy
	WrappedRuns        int // Root-level inline runs wrapped into paragraphs
}

// Clean reports whether the input contained nothing the sanitizer had to remove
func (r Report) Clean() bool {
	return r.RemovedSubtrees == 0 && r.StrippedAttributes == 0 && r.RejectedURLs == 0
}

// Add accumulates another report into r
func (r *Report) Add(other Report) {
	r.RemovedSubtrees += other.RemovedSubtrees
	r.AliasedElements += other.AliasedElements
	r.UnwrappedElements += other.UnwrappedElements
	r.StrippedAttributes += other.StrippedAttributes
	r.EventHandlers += other.EventHandlers
	r.RejectedURLs += other.RejectedURLs
	r.WrappedRuns += other.WrappedRuns
}

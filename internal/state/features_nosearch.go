//go:build rpager_nosearch

package state

// Search support is compiled out; search intents become no-ops.
func newSearchState() *SearchState {
	return nil
}

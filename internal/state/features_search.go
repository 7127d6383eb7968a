//go:build !rpager_nosearch

package state

func newSearchState() *SearchState {
	return &SearchState{Mode: SearchUnknown}
}

package terrain

// PatchState is the loading lifecycle of a patch.
type PatchState int32

const (
	StateUnloaded PatchState = iota
	StateLoading
	StateLoaded
	StateUnloading
	// StateFailed marks a patch whose buffer could not be allocated or did
	// not validate. It keeps its cell until it drifts out of range.
	StateFailed
)

func (s PatchState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateUnloading:
		return "unloading"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Generation substates while a patch is Loading.
const (
	substateHeights = 0
	substateMesh    = 1
	substateDone    = 2
)

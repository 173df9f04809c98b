package pointfile

// Behavior defines the way the point file will be handled.
type Behavior int

const (
	// BehaviorUnknown is the default. It has no effect at all when used.
	BehaviorUnknown Behavior = 0

	// BehaviorMMapAll forces all data to be used directly from the mmapped
	// file. Incompatible with BehaviorLoadAll being set.
	BehaviorMMapAll Behavior = 1 << (iota - 1)

	// BehaviorLoadAll forces all data to be loaded into memory. Incompatible
	// with BehaviorMMapAll being set.
	BehaviorLoadAll

	// BehaviorPrefault asks the kernel to read the whole mmapped file ahead
	// of use. Does nothing if BehaviorMMapAll is not set.
	BehaviorPrefault
)

package provider

// Document flags, bit-compatible with DocumentsContract.Document.
const (
	FlagSupportsThumbnail      = 1 << 0
	FlagSupportsWrite          = 1 << 1
	FlagSupportsDelete         = 1 << 2
	FlagDirSupportsCreate      = 1 << 3
	FlagDirPrefersGrid         = 1 << 4
	FlagDirPrefersLastModified = 1 << 5
	FlagSupportsRename         = 1 << 6
	FlagSupportsCopy           = 1 << 7
	FlagSupportsMove           = 1 << 8
	FlagVirtualDocument        = 1 << 9
	FlagSupportsRemove         = 1 << 10
)

const fileWriteFlags = FlagSupportsWrite | FlagSupportsDelete | FlagSupportsRename |
	FlagSupportsRemove | FlagSupportsMove | FlagSupportsCopy

// Root flags, bit-compatible with DocumentsContract.Root.
const (
	RootFlagSupportsCreate  = 1 << 0
	RootFlagLocalOnly       = 1 << 1
	RootFlagSupportsRecents = 1 << 2
	RootFlagSupportsSearch  = 1 << 3
	RootFlagSupportsIsChild = 1 << 4
)

// Platform feature levels that unlock additional flags.
const (
	FeatureLevelRename = 21
	FeatureLevelMove   = 24

	DefaultFeatureLevel = 33
)

// Capabilities holds the flag masks allowed at a platform feature level.
type Capabilities struct {
	FeatureLevel  int
	DocumentFlags int
	RootFlags     int
}

// CapabilitiesFor resolves the flag masks for a feature level. A level of
// zero or less selects DefaultFeatureLevel.
func CapabilitiesFor(level int) Capabilities {
	if level <= 0 {
		level = DefaultFeatureLevel
	}

	c := Capabilities{
		FeatureLevel:  level,
		DocumentFlags: FlagSupportsThumbnail | FlagSupportsWrite | FlagSupportsDelete | FlagDirSupportsCreate,
		RootFlags:     RootFlagSupportsCreate | RootFlagSupportsRecents | RootFlagSupportsSearch,
	}
	if level >= FeatureLevelRename {
		c.DocumentFlags |= FlagSupportsRename
		c.RootFlags |= RootFlagSupportsIsChild
	}
	if level >= FeatureLevelMove {
		c.DocumentFlags |= FlagSupportsRemove | FlagSupportsMove | FlagSupportsCopy
	}
	return c
}

// Mask restricts document flags to what the feature level allows.
func (c Capabilities) Mask(flags int) int {
	return flags & c.DocumentFlags
}

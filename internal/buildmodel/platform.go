package buildmodel

//
// Apple platforms and platform families
//

// Family is a platform family. All the targets in a family are
// merged into the same multi-architecture static library.
type Family int

const (
	// FamilyIOS contains iOS devices and simulators.
	FamilyIOS = Family(iota)

	// FamilyTVOS contains tvOS devices and simulators.
	FamilyTVOS

	// FamilyWatchOS contains watchOS devices and simulators.
	FamilyWatchOS

	// FamilyCatalyst contains Mac Catalyst.
	FamilyCatalyst
)

// AllFamilies contains all the families in output order.
var AllFamilies = []Family{FamilyIOS, FamilyTVOS, FamilyWatchOS, FamilyCatalyst}

type familyInfo struct {
	name         string
	headerPrefix string
	sdk          string
}

var familyTable = map[Family]familyInfo{
	FamilyIOS:      {name: "iOS", headerPrefix: "ios", sdk: "iphoneos"},
	FamilyTVOS:     {name: "tvOS", headerPrefix: "tvos", sdk: "appletvos"},
	FamilyWatchOS:  {name: "watchOS", headerPrefix: "watchos", sdk: "watchos"},
	FamilyCatalyst: {name: "Catalyst", headerPrefix: "catalyst", sdk: "macosx"},
}

// String returns the family name, which is also the name of the
// directory below lib/ containing the family's libraries.
func (f Family) String() string {
	if info, found := familyTable[f]; found {
		return info.name
	}
	return "unknown"
}

// HeaderPrefix returns the prefix of the configuration header suffix.
func (f Family) HeaderPrefix() string {
	return familyTable[f].headerPrefix
}

// SDK returns the name of the SDK whose version we build against,
// as understood by `xcrun -sdk`.
func (f Family) SDK() string {
	return familyTable[f].sdk
}

// Platform is an Apple SDK platform.
type Platform int

const (
	// IPhoneOS is the iOS device platform.
	IPhoneOS = Platform(iota)

	// IPhoneSimulator is the iOS simulator platform.
	IPhoneSimulator

	// AppleTVOS is the tvOS device platform.
	AppleTVOS

	// AppleTVSimulator is the tvOS simulator platform.
	AppleTVSimulator

	// WatchOS is the watchOS device platform.
	WatchOS

	// WatchSimulator is the watchOS simulator platform.
	WatchSimulator

	// MacOSX is the macOS platform used by Mac Catalyst.
	MacOSX
)

type platformInfo struct {
	dirname        string
	family         Family
	simulator      bool
	minVersionFlag string
}

var platformTable = map[Platform]platformInfo{
	IPhoneOS: {
		dirname:        "iPhoneOS",
		family:         FamilyIOS,
		minVersionFlag: "-mios-version-min=",
	},
	IPhoneSimulator: {
		dirname:        "iPhoneSimulator",
		family:         FamilyIOS,
		simulator:      true,
		minVersionFlag: "-mios-simulator-version-min=",
	},
	AppleTVOS: {
		dirname:        "AppleTVOS",
		family:         FamilyTVOS,
		minVersionFlag: "-mtvos-version-min=",
	},
	AppleTVSimulator: {
		dirname:        "AppleTVSimulator",
		family:         FamilyTVOS,
		simulator:      true,
		minVersionFlag: "-mtvos-simulator-version-min=",
	},
	WatchOS: {
		dirname:        "WatchOS",
		family:         FamilyWatchOS,
		minVersionFlag: "-mwatchos-version-min=",
	},
	WatchSimulator: {
		dirname:        "WatchSimulator",
		family:         FamilyWatchOS,
		simulator:      true,
		minVersionFlag: "-mwatchos-simulator-version-min=",
	},
	MacOSX: {
		dirname:        "MacOSX",
		family:         FamilyCatalyst,
		minVersionFlag: "-mmacosx-version-min=",
	},
}

// String returns the platform name as used by the Xcode
// directory layout (e.g., iPhoneSimulator).
func (p Platform) String() string {
	if info, found := platformTable[p]; found {
		return info.dirname
	}
	return "unknown"
}

// Family returns the platform family.
func (p Platform) Family() Family {
	return platformTable[p].family
}

// IsSimulator returns whether this is a simulator platform.
func (p Platform) IsSimulator() bool {
	return platformTable[p].simulator
}

// MinVersionFlag returns the compiler flag that sets the minimum
// OS version. The version must be appended to the flag.
func (p Platform) MinVersionFlag() string {
	return platformTable[p].minVersionFlag
}

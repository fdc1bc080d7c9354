package buildmodel

//
// Build results
//

// BuildResult is the output of building a single target.
type BuildResult struct {
	// Target is the target we built.
	Target *Target

	// LibSSL is the path of the target's libssl.a.
	LibSSL string

	// LibCrypto is the path of the target's libcrypto.a.
	LibCrypto string

	// ConfHeader is the path of the target's copy of the
	// configuration header inside the bin directory.
	ConfHeader string

	// IncludeDir is the target's installed include/openssl directory.
	IncludeDir string

	// LogFile is the path of the build log.
	LogFile string
}

// FamilyAggregate groups the results of a platform family.
type FamilyAggregate struct {
	// Family is the platform family.
	Family Family

	// Device contains the device results in build order.
	Device []*BuildResult

	// Simulator contains the simulator results in build order.
	Simulator []*BuildResult
}

// Len returns the number of results in the aggregate.
func (fa *FamilyAggregate) Len() int {
	return len(fa.Device) + len(fa.Simulator)
}

// Members returns device results followed by simulator results.
func (fa *FamilyAggregate) Members() []*BuildResult {
	out := append([]*BuildResult{}, fa.Device...)
	return append(out, fa.Simulator...)
}

// ConfHeader is a configuration header copied into the bin directory.
type ConfHeader struct {
	// Name is the header basename (e.g., opensslconf_ios_arm64.h).
	Name string

	// Suffix identifies the target (e.g., ios_arm64).
	Suffix string
}

// BuildLoopResult accumulates the results of the build loop.
type BuildLoopResult struct {
	// Aggregates contains one aggregate per family in [AllFamilies] order.
	Aggregates []*FamilyAggregate

	// Headers contains the configuration headers in build order.
	Headers []ConfHeader

	// IncludeDir is the include/openssl directory of the first target.
	IncludeDir string
}

// NewBuildLoopResult creates an empty [*BuildLoopResult].
func NewBuildLoopResult() *BuildLoopResult {
	r := &BuildLoopResult{}
	for _, family := range AllFamilies {
		r.Aggregates = append(r.Aggregates, &FamilyAggregate{Family: family})
	}
	return r
}

// Add records a successful result.
func (r *BuildLoopResult) Add(result *BuildResult, header ConfHeader) {
	family := result.Target.Family()
	for _, agg := range r.Aggregates {
		if agg.Family != family {
			continue
		}
		if result.Target.Platform.IsSimulator() {
			agg.Simulator = append(agg.Simulator, result)
		} else {
			agg.Device = append(agg.Device, result)
		}
	}
	r.Headers = append(r.Headers, header)
	if r.IncludeDir == "" {
		r.IncludeDir = result.IncludeDir
	}
}

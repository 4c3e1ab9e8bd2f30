package visibility

// DefaultDominanceThreshold is the visibility ratio a page must exceed
// before it can be promoted to the active page. A single ratio sample is
// noisy mid-scroll; requiring the page to also be the most visible of all
// tracked pages keeps adjacent half-visible pages from flapping.
const DefaultDominanceThreshold = 0.5

// ratioEpsilon is the minimum ratio movement worth broadcasting
const ratioEpsilon = 0.01

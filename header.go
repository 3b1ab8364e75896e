package dagmem

import "github.com/nodeforge/dagmem/internal/flags"

// Header is the mutable flag state every node carries: the MARKED and
// NEEDS_DESTRUCTION bits described in spec §3. Node implementations embed
// a Header (or otherwise expose one via Head) to satisfy [Node].
type Header = flags.Header

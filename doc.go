// Package silexplorer is a retrieval toolkit for OpenSILEX-style phenotyping
// platforms. It is organized around a small set of cooperating pieces:
//
// 1. Client
//
//    The Client authenticates against the platform's REST endpoint and then
//    speaks both dialects the platform exposes: parameterized GraphQL queries
//    posted as JSON, and paginated REST GETs. It does no retrying, caching or
//    connection management beyond what net/http provides - errors from the
//    remote propagate immediately to the caller.
//
// 2. Frames
//
//    Every listing and every measurement series is reshaped into a
//    frame.Frame: an ordered-column tabular structure which knows how to grow
//    columns dynamically (factor and germplasm pivoting produces columns that
//    are only discovered while parsing), filter rows, drop empty columns, and
//    read/write CSV.
//
// 3. The URI-name registry
//
//    Everything in an OpenSILEX instance is addressed by URI but referred to
//    by name. The urimap package keeps the bidirectional bookkeeping: every
//    listing registers the (URI, Name) pairs it saw, and subsequent
//    operations resolve human-supplied names back to URIs, complaining when
//    a name is unknown or ambiguous.
//
// 4. Retrieval packages
//
//    experiment, sciobject, and measure wrap the individual platform
//    operations: experiment listings and their factors, variables and
//    facilities; scientific objects with factor-level and germplasm pivots;
//    and time-series measurement retrieval, including a bounded concurrent
//    chunked fetch for large object sets.
//
// 5. Outputs
//
//    export writes per-variable CSV series to a directory or an S3 bucket,
//    stream publishes fetched measurements to Kafka for downstream
//    pipelines, and plot renders basic time-series charts.
//
// The cmd directory wires all of the above into the silexplorer command line
// tool.
package silexplorer

package wire

import "time"

// RouteEntry records a single pod's participation in a request's journey.
// The dispatch engine appends one entry per pod visited, in the order the
// response passed back through them, so a caller can reconstruct the path
// a request took through the graph without re-running it.
type RouteEntry struct {
	Pod       string
	StartTime time.Time
	EndTime   time.Time
	Status    Status
}

// Response is returned by a pod's head and ultimately by the gateway.
type Response struct {
	Header    Header
	Documents []Document
	Metadata  Metadata
	Routes    []RouteEntry
	Status    Status
}

// Clone returns a deep-enough copy of r so that callers fanning a response
// out to multiple downstream nodes can mutate their copy's Documents and
// Metadata without racing each other.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	docs := make([]Document, len(r.Documents))
	copy(docs, r.Documents)

	meta := make(Metadata, len(r.Metadata))
	for k, v := range r.Metadata {
		meta[k] = v
	}

	routes := make([]RouteEntry, len(r.Routes))
	copy(routes, r.Routes)

	return &Response{
		Header:    r.Header,
		Documents: docs,
		Metadata:  meta,
		Routes:    routes,
		Status:    r.Status,
	}
}

// MergeResponses combines the responses collected at a fan-in node into a
// single response. Documents are concatenated in argument order, metadata
// is merged left-to-right with later entries winning on key collision, and
// route entries from every input are concatenated and then deduplicated by
// pod name, keeping the first occurrence. A response whose metadata carries
// the short-circuit marker propagates that marker into the merged result.
func MergeResponses(responses ...*Response) *Response {
	merged := &Response{
		Metadata: Metadata{},
	}

	seenRoutes := make(map[string]bool)

	for _, r := range responses {
		if r == nil {
			continue
		}
		if merged.Header.RequestID == "" {
			merged.Header = r.Header
		}
		merged.Documents = append(merged.Documents, r.Documents...)

		for k, v := range r.Metadata {
			merged.Metadata[k] = v
		}

		for _, route := range r.Routes {
			if seenRoutes[route.Pod] {
				continue
			}
			seenRoutes[route.Pod] = true
			merged.Routes = append(merged.Routes, route)
		}

		if r.Status.Code != 0 {
			merged.Status = r.Status
		}
	}

	return merged
}

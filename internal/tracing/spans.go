package tracing

// Span attribute keys.
const (
	AttrSourceID   = "citemark.source_id"
	AttrRangeCount = "citemark.scan.ranges"
	AttrScanBytes  = "citemark.scan.bytes"
	AttrSpanCount  = "citemark.scan.spans"
	AttrKeyCount   = "citemark.refs.keys"
	AttrCacheHit   = "citemark.refs.cache_hit"
	AttrCacheTier  = "citemark.refs.cache_tier"
	AttrPandocPath = "citemark.pandoc.path"
	AttrLSPMethod  = "lsp.method"
	AttrLSPURI     = "lsp.uri"
)

// Span names.
const (
	SpanScanPass     = "scan.pass"
	SpanRefsResolve  = "refs.resolve"
	SpanPandocExec   = "refs.pandoc"
	SpanLSPPrefix    = "lsp."
	SpanViewerReload = "viewer.reload"
)

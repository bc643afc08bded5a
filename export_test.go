package xroute

// Test-only exports for internal functions.
var (
	LookupPath  = lookupPath
	ChiPattern  = chiPattern
	OpenAPIPath = openAPIPath
	MountPath   = mountPath
)

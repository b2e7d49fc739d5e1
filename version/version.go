package version

// AppVersion is the current application version, surfaced by the
// /api/version endpoint.
const AppVersion = "0.3.0"

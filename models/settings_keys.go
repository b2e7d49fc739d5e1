package models

// BackendBaseURLKey is the database setting key for the configured
// backend base URL that relative cell paths resolve against.
const BackendBaseURLKey = "backend_base_url"

// UseProxyKey is the database setting key for whether clients should
// route request executions through the forwarding proxy endpoint.
const UseProxyKey = "use_proxy"

// ThemeKey is the database setting key for the UI theme name.
const ThemeKey = "theme"

// SidebarOpenKey is the database setting key for the UI sidebar
// open/closed state.
const SidebarOpenKey = "sidebar_open"

// ActiveNotebookIDKey is the database setting key used to store the ID
// of the last active notebook.
const ActiveNotebookIDKey = "active_notebook_id"

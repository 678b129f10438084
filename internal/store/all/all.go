// Package all wires every built-in store backend into the store factory.
// Import it for its side effects:
//
//	import _ "lineparser/internal/store/all"
//
// Available kinds: "file", "sqlite", "sqlserver", "mysql", "postgres".
package all

import (
	_ "lineparser/internal/store/file"
	_ "lineparser/internal/store/postgres"
	_ "lineparser/internal/store/sqlstore"
)

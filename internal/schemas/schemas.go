package schemas

import "embed"

// SchemasFS содержит JSON-схемы исходящих событий.
// Схемы версионируются каталогами: events/<имя-события>/v<N>.json
//
//go:embed events
var SchemasFS embed.FS

package schema

import _ "embed"

//go:embed pkg-depscan-config.schema.json
var ConfigSchema []byte

//go:embed scan-manifest.schema.json
var ManifestSchema []byte

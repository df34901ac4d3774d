package assets

import _ "embed"

// ProfilesData holds the raw JSON catalogue of generation profiles per provider
// and complexity tier.
//
//go:embed profiles.json
var ProfilesData []byte

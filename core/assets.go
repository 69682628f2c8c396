package core

import "embed"

// AssetsFS holds static assets compiled into the binary.
//go:embed assets/common-passwords.txt.gz
var AssetsFS embed.FS

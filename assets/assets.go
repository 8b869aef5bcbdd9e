// Package assets exposes the email templates compiled into the binary,
// so rendering does not depend on the process working directory.
package assets

import "embed"

//go:embed templates/email/*
var FS embed.FS

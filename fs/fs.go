// Package appfs exposes the database migrations compiled into the
// binary so `admin migrate` needs no files on disk.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS

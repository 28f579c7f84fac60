// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package atlas

import "errors"

var (
	// ErrInvalidRoot indicates the workspace root could not be resolved.
	ErrInvalidRoot = errors.New("invalid workspace root")

	// ErrProjectNotBuilt indicates no graph is resident for the root.
	ErrProjectNotBuilt = errors.New("project graph not built")

	// ErrBuildInProgress indicates a concurrent build for the same root.
	ErrBuildInProgress = errors.New("build already in progress")
)

// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extract

import "errors"

var (
	// ErrNilExtractor indicates a nil extractor was passed to Register.
	ErrNilExtractor = errors.New("extractor is nil")

	// ErrDuplicateLanguage indicates the language is already registered.
	ErrDuplicateLanguage = errors.New("language already registered")

	// ErrDuplicateExtension indicates the extension is already registered.
	ErrDuplicateExtension = errors.New("extension already registered")

	// ErrContentTooLarge indicates a file exceeded the extractor's size cap.
	ErrContentTooLarge = errors.New("content exceeds maximum file size")
)

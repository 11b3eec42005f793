// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import "strings"

// InsideCodeBlock reports whether the end of content sits inside an
// unclosed code fence: true iff the count of "```" markers is odd.
//
// Pure function of the accumulated text. A fragment that itself contains a
// fence marker flips the classification for everything after it.
func InsideCodeBlock(content string) bool {
	return strings.Count(content, "```")%2 == 1
}

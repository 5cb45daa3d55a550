// SPDX-License-Identifier: MPL-2.0

// Command modkit manages pluggable testing modules: discovery, metadata,
// validation, and template-based scaffolding.
package main

func main() {
	Execute()
}

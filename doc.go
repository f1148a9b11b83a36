// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// unitdex is the main package for the unitdex command line tool. It expands
// argument sets, wires the CLI, delegates to internal packages, and serves as
// the entry point.
package main

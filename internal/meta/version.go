// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

// Version is stamped at build time with
// -ldflags "-X github.com/staranto/unitdex/internal/meta.Version=...".
var Version = "dev"

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package loader fetches JSON datasets and keeps a time-fresh copy of each in
// a store.Store. A Load returns the stored copy while it is younger than TTL
// and otherwise fetches, parses, stores and optionally preloads the images
// referenced by the data.
package loader

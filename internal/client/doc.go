// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the sync client runtime.
//
// It derives the wallet keys, opens the local store, builds one sync
// coordinator per configured domain and runs the background monitors and
// the terminal dashboard as a single process lifecycle.
package client

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package handler

import "errors"

// errNoHandlersAreCreated is returned by NewHandlers when the server has
// neither a record store API address nor a health service address.
var errNoHandlersAreCreated = errors.New("no handlers are created")

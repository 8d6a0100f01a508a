// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import "errors"

// errNoServersAreCreated means neither the record store API nor the health
// service has a listen address.
var errNoServersAreCreated = errors.New("no servers are created: set the http or grpc address")

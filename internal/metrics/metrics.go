// Alfa Vault - password-derived key hierarchy and envelope encryption
// for an offline photo vault.
// Copyright (C) 2025 Alfa Vault contributors
//
// This file is part of Alfa Vault.
//
// Alfa Vault is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Alfa Vault is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Alfa Vault. If not, see <https://www.gnu.org/licenses/>.

// Package metrics exposes Prometheus collectors for vault operations.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "alfa"

// Registry holds every collector registered by this package so that
// Handler/StartServer can expose exactly these metrics and nothing
// pulled in by other imports of the default global registry.
var Registry = prometheus.NewRegistry()

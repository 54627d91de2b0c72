/*
 * Copyright 2025 VexGen Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package vexgen

import (
    `github.com/vexgen/vexgen/internal/ra`
)

// ErrMaxIterations is returned when the spill-and-retry loop exceeds
// the configured iteration cap without reaching a legal assignment.
var ErrMaxIterations = ra.ErrMaxIterations

// ErrNonConvergence is returned when the spilled-variable count stops
// decreasing across retries and even fail-safe coloring cannot finish.
var ErrNonConvergence = ra.ErrNonConvergence

// DiagnosticError aborts compilation of a kernel with a user-visible
// diagnostic naming the offending variable.
type DiagnosticError = ra.DiagnosticError

// InternalError is a compiler-internal consistency violation. It is
// always fatal and never silently patched.
type InternalError = ra.InternalError

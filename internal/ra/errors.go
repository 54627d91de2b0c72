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

package ra

import (
    `errors`
    `fmt`
)

// ErrMaxIterations is returned when the spill-and-retry loop exceeds
// the configured iteration cap without reaching a legal assignment.
var ErrMaxIterations = errors.New("ra: maximum spill iterations exceeded")

// ErrNonConvergence is returned when the spilled-variable count stops
// decreasing across retries and even fail-safe coloring cannot finish.
var ErrNonConvergence = errors.New("ra: spill iteration did not converge")

// DiagnosticError aborts compilation of a kernel with a user-visible
// diagnostic naming the offending variable.
type DiagnosticError struct {
    Kernel string
    Var    string
    Reason string
}

func (self DiagnosticError) Error() string {
    return fmt.Sprintf("ra: kernel %q: variable %q: %s", self.Kernel, self.Var, self.Reason)
}

// InternalError is a compiler-internal consistency violation, such as
// an incremental-vs-scratch interference mismatch. It is always fatal
// and never silently patched.
type InternalError struct {
    Kernel string
    Reason string
}

func (self InternalError) Error() string {
    return fmt.Sprintf("ra: internal error in kernel %q: %s", self.Kernel, self.Reason)
}

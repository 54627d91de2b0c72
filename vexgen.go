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
    `github.com/vexgen/vexgen/gir`
    `github.com/vexgen/vexgen/internal/opts`
    `github.com/vexgen/vexgen/internal/ra`
)

// Result is the outcome of allocating one kernel: the per-declare
// placements plus allocation statistics.
type Result = ra.Result

// Assignment is the final placement of one declare.
type Assignment = ra.Assignment

// Stats accumulates allocation effort for one kernel.
type Stats = ra.Stats

// Allocate assigns a physical register to every allocation candidate
// of the kernel, spilling and rewriting as needed. The kernel is
// modified in place: spill pseudo-instructions and temporaries are
// inserted, and instruction ids are renumbered whenever that happens.
//
// The liveness information must describe the kernel as passed in; it
// is updated alongside the kernel during spill rewrites.
func Allocate(kernel *gir.Kernel, live *gir.Liveness, options ...Option) (*Result, error) {
    cfg := opts.GetDefaultOptions()
    for _, opt := range options {
        opt(&cfg)
    }
    return ra.NewAllocator(kernel, live, &cfg).Allocate()
}

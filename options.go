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
    `fmt`

    `github.com/vexgen/vexgen/internal/opts`
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithGRFCount sets the number of general registers the target
// provides, i.e. the color budget of the GRF file.
//
// This value can also be configured with the `VEXGEN_GRF_COUNT`
// environment variable.
//
// The default value of this option is "128".
func WithGRFCount(n int) Option {
    if n <= 0 {
        panic(fmt.Sprintf("vexgen: invalid GRF count: %d", n))
    } else {
        return func(o *opts.Options) { o.GRFCount = n }
    }
}

// WithReservedGRFs withholds the top n general registers from
// allocation entirely.
func WithReservedGRFs(n int) Option {
    if n < 0 {
        panic(fmt.Sprintf("vexgen: invalid reserved register count: %d", n))
    } else {
        return func(o *opts.Options) { o.ReservedGRFs = n }
    }
}

// WithMaxIterations caps the spill-and-retry loop. Exceeding the cap
// fails allocation with ErrMaxIterations.
//
// This value can also be configured with the `VEXGEN_RA_MAX_ITER`
// environment variable.
//
// The default value of this option is "10".
func WithMaxIterations(n int) Option {
    if n <= 0 {
        panic(fmt.Sprintf("vexgen: invalid iteration cap: %d", n))
    } else {
        return func(o *opts.Options) { o.MaxIterations = n }
    }
}

// WithDenseLimit sets the node count up to which the interference
// graph uses the dense bit-matrix representation.
//
// This value can also be configured with the `VEXGEN_RA_DENSE_LIMIT`
// environment variable.
//
// The default value of this option is "40000".
func WithDenseLimit(n int) Option {
    if n < 0 {
        panic(fmt.Sprintf("vexgen: invalid dense-matrix limit: %d", n))
    } else {
        return func(o *opts.Options) { o.DenseLimit = n }
    }
}

// WithSpillBlockSize sets the granularity, in bytes, that scratch
// slots are rounded up to.
func WithSpillBlockSize(n int) Option {
    if n <= 0 {
        panic(fmt.Sprintf("vexgen: invalid spill block size: %d", n))
    } else {
        return func(o *opts.Options) { o.SpillBlockSize = n }
    }
}

// WithIncremental preserves live-range ids and interference edges
// across spill iterations instead of rebuilding from scratch. With
// verify set, every incremental graph is cross-checked against a
// scratch build and any mismatch fails the kernel.
func WithIncremental(verify bool) Option {
    return func(o *opts.Options) {
        o.Incremental = true
        o.VerifyIncremental = verify
    }
}

// WithBankConflicts toggles the bank-conflict placement hints for
// multiply-class instruction sources. Enabled by default.
func WithBankConflicts(v bool) Option {
    return func(o *opts.Options) { o.BankConflicts = v }
}

// WithFailSafeRegs sets how many emergency registers fail-safe mode
// may commandeer when the spill count stalls. Setting it to "0"
// disables fail-safe mode: a stalled allocation fails immediately
// with ErrNonConvergence.
//
// The default value of this option is "2".
func WithFailSafeRegs(n int) Option {
    if n < 0 {
        panic(fmt.Sprintf("vexgen: invalid fail-safe register count: %d", n))
    } else {
        return func(o *opts.Options) { o.FailSafeRegs = n }
    }
}

// WithDebug dumps the interference graph and live-range states to
// stderr on every iteration.
func WithDebug(v bool) Option {
    return func(o *opts.Options) { o.Debug = v }
}

// WithChart writes an SVG live-interval chart of the final GRF
// coloring to the given path.
func WithChart(path string) Option {
    return func(o *opts.Options) { o.ChartPath = path }
}

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

package opts

// Options is the allocator configuration, built once per compilation
// and passed by reference through every pass that needs it. Nothing in
// the allocator reads process-global state directly.
type Options struct {
	GRFCount          int
	AddrCount         int
	FlagCount         int
	DenseLimit        int
	MaxIterations     int
	FailSafeRegs      int
	SpillBlockSize    int
	ReservedGRFs      int // registers at the top of the file never allocated
	Incremental       bool
	VerifyIncremental bool
	BankConflicts     bool
	Debug             bool
	ChartPath         string // when set, dump a live-interval chart per iteration
}

func GetDefaultOptions() Options {
	return Options{
		GRFCount:       GRFCount,
		AddrCount:      _DefaultAddrCount,
		FlagCount:      _DefaultFlagCount,
		DenseLimit:     DenseLimit,
		MaxIterations:  MaxIterations,
		FailSafeRegs:   _DefaultFailSafeRegs,
		SpillBlockSize: _DefaultSpillBlock,
		BankConflicts:  true,
	}
}

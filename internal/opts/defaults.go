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

import (
	"os"
	"strconv"
)

const (
	_DefaultGRFCount      = 128   // general registers per thread
	_DefaultAddrCount     = 16    // address sub-registers (a0.0 .. a0.15)
	_DefaultFlagCount     = 4     // flag sub-registers (f0.0, f0.1, f1.0, f1.1)
	_DefaultDenseLimit    = 40000 // above this many live ranges the graph goes sparse
	_DefaultMaxIterations = 10    // cutoff for the spill-and-retry loop
	_DefaultFailSafeRegs  = 2     // registers reserved by fail-safe coloring
	_DefaultSpillBlock    = 32    // spill slot granularity in bytes
)

var (
	GRFCount      = parseOrDefault("VEXGEN_GRF_COUNT", _DefaultGRFCount, 8)
	MaxIterations = parseOrDefault("VEXGEN_RA_MAX_ITER", _DefaultMaxIterations, 1)
	DenseLimit    = parseOrDefault("VEXGEN_RA_DENSE_LIMIT", _DefaultDenseLimit, 64)
)

func parseOrDefault(key string, def int, min int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseUint(env, 0, 64); err != nil {
		panic("vexgen: invalid value for " + key)
	} else if ret := int(val); ret < min {
		panic("vexgen: value too small for " + key)
	} else {
		return ret
	}
}

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
    `github.com/vexgen/vexgen/gir`
    `github.com/vexgen/vexgen/internal/opts`
)

// ForbiddenKind tags the reason a register set is unusable for a live
// range. A live range carries at most one template kind plus ad-hoc
// bits merged during allocation.
type ForbiddenKind uint8

const (
    ForbiddenNone ForbiddenKind = iota
    ForbiddenAddr
    ForbiddenFlag
    ForbiddenReserved
    ForbiddenEOT
    ForbiddenLastGRF
    ForbiddenEOTLastGRF
    ForbiddenCallerSave
    ForbiddenCalleeSave
    _ForbiddenNum
)

// End-of-thread message sources must live in the top registers of the
// file; everything below that window is forbidden for them.
const _EOTWindow = 16

// ForbiddenRegs is the precomputed catalog of reason-tagged forbidden
// bitsets. It is built once per compilation from the configuration and
// passed by reference to every component that consults it.
type ForbiddenRegs struct {
    cfg *opts.Options
    vec [_ForbiddenNum]*gir.BitSet
}

func newForbiddenRegs(cfg *opts.Options) (self *ForbiddenRegs) {
    self = &ForbiddenRegs{cfg: cfg}
    for k := ForbiddenNone; k < _ForbiddenNum; k++ {
        self.vec[k] = gir.NewBitSet(cfg.GRFCount)
    }
    self.generateReservedForbidden()
    self.generateEOTForbidden()
    self.generateLastGRFForbidden()
    self.generateCallConventionForbidden()
    return
}

// Size returns the number of allocatable units in a register file.
func (self *ForbiddenRegs) Size(rf gir.RegFile) int {
    switch rf {
        case gir.RegFileAddr : return self.cfg.AddrCount
        case gir.RegFileFlag : return self.cfg.FlagCount
        default              : return self.cfg.GRFCount
    }
}

// Template returns the shared precomputed bitset for a kind. Callers
// must not mutate the result; merge it into a private set instead.
func (self *ForbiddenRegs) Template(k ForbiddenKind) *gir.BitSet {
    return self.vec[k]
}

func (self *ForbiddenRegs) generateReservedForbidden() {
    for r := self.cfg.GRFCount - self.cfg.ReservedGRFs; r < self.cfg.GRFCount; r++ {
        self.vec[ForbiddenReserved].Set(r)
    }
}

func (self *ForbiddenRegs) generateEOTForbidden() {
    for r := 0; r < self.cfg.GRFCount - _EOTWindow; r++ {
        self.vec[ForbiddenEOT].Set(r)
        self.vec[ForbiddenEOTLastGRF].Set(r)
    }
}

func (self *ForbiddenRegs) generateLastGRFForbidden() {
    self.vec[ForbiddenLastGRF].Set(self.cfg.GRFCount - 1)
    self.vec[ForbiddenEOTLastGRF].Set(self.cfg.GRFCount - 1)
}

// The calling convention splits the file in half: the lower half is
// caller-save, the upper half callee-save.
func (self *ForbiddenRegs) generateCallConventionForbidden() {
    half := self.cfg.GRFCount / 2
    for r := 0; r < half; r++ {
        self.vec[ForbiddenCallerSave].Set(r)
    }
    for r := half; r < self.cfg.GRFCount; r++ {
        self.vec[ForbiddenCalleeSave].Set(r)
    }
}

// CallerSaveRegs returns the caller-save register set, used to make
// ranges live across a call avoid clobbered registers.
func (self *ForbiddenRegs) CallerSaveRegs() *gir.BitSet {
    return self.vec[ForbiddenCallerSave]
}

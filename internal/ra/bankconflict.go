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
    `fmt`

    `github.com/vexgen/vexgen/gir`
)

// BankConflict is a soft placement hint: which half of the register
// file and which parity a variable prefers, chosen so the sources of
// multiply-class instructions read from different banks in the same
// cycle. Hints never make an assignment illegal; the colorer merely
// tries matching registers first.
type BankConflict uint8

const (
    BankNone BankConflict = iota
    BankFirstHalfEven
    BankFirstHalfOdd
    BankSecondHalfEven
    BankSecondHalfOdd
)

var _BankNames = map[BankConflict]string {
    BankNone           : "none",
    BankFirstHalfEven  : "fh.even",
    BankFirstHalfOdd   : "fh.odd",
    BankSecondHalfEven : "sh.even",
    BankSecondHalfOdd  : "sh.odd",
}

func (self BankConflict) String() string {
    if v, ok := _BankNames[self]; ok {
        return v
    } else {
        return fmt.Sprintf("bank(%d)", uint8(self))
    }
}

func (self BankConflict) even() bool {
    return self == BankFirstHalfEven || self == BankSecondHalfEven
}

// Banks alternate with register parity; bundles group consecutive
// register pairs within a bank.
const _BundleSize = 2

func bankEven(reg int) bool {
    return reg % 2 == 0
}

func bundleOf(reg int) int {
    return reg / (_BundleSize * 2)
}

// matchesBank reports whether a register satisfies a placement hint.
func matchesBank(bc BankConflict, reg int) bool {
    return bc == BankNone || bc.even() == bankEven(reg)
}

// BankConflictPass scans multiply-class instructions and hands out
// alternating bank hints to their simultaneously-read sources. Hints
// are balanced across the whole kernel so neither bank saturates.
type BankConflictPass struct {
    lrs       []*LiveRange
    lrOf      []int
    nInstrs   int
    evenTotal int
    oddTotal  int
}

func newBankConflictPass(intf *Interference) *BankConflictPass {
    return &BankConflictPass {
        lrs     : intf.lrs,
        lrOf    : intf.lrOf,
        nInstrs : intf.kernel.NumInstrs(),
    }
}

func (self *BankConflictPass) run(kernel *gir.Kernel) {
    for _, bb := range kernel.Blocks {
        for _, v := range bb.Ins {
            switch {
                case v.Op == gir.OpMad && len(v.Srcs) == 3 : self.setupBankConflictsFor(v, v.Srcs[1], v.Srcs[2])
                case v.Op == gir.OpMul && len(v.Srcs) == 2 : self.setupBankConflictsFor(v, v.Srcs[0], v.Srcs[1])
            }
        }
    }
}

func (self *BankConflictPass) lrFor(op *gir.Operand) *LiveRange {
    if op == nil {
        return nil
    }
    if id := self.lrOf[op.Dcl.Root().Id]; id >= 0 {
        return self.lrs[id]
    } else {
        return nil
    }
}

// setupBankConflictsFor assigns opposite parities to the two sources
// read in the same cycle. If both already carry a hint in the same
// bank, record a bundle conflict instead so they at least spread over
// different bundles.
func (self *BankConflictPass) setupBankConflictsFor(v *gir.Instr, a *gir.Operand, b *gir.Operand) {
    p, q := self.lrFor(a), self.lrFor(b)
    if p == nil || q == nil || p == q || p.regKind != gir.RegFileGRF || q.regKind != gir.RegFileGRF {
        return
    }
    if p.bc == BankNone {
        p.bc = self.pickBank(v, true)
    }
    if q.bc == BankNone {
        q.bc = self.pickBank(v, p.bc.even())
    }
    if p.bc.even() == q.bc.even() {
        p.bundles = append(p.bundles, q.id)
        q.bundles = append(q.bundles, p.id)
    }
}

// pickBank chooses the half of the file from the instruction's lexical
// position, and the parity from either the running balance or the
// opposite of a partner's parity.
func (self *BankConflictPass) pickBank(v *gir.Instr, partnerEven bool) BankConflict {
    even := !partnerEven
    if partnerEven && self.evenTotal <= self.oddTotal {
        even = true
    }
    if even {
        self.evenTotal++
    } else {
        self.oddTotal++
    }
    switch second := v.Id * 2 >= self.nInstrs; {
        case even && !second : return BankFirstHalfEven
        case even            : return BankSecondHalfEven
        case !second         : return BankFirstHalfOdd
        default              : return BankSecondHalfOdd
    }
}

// bundleConflictsWith reports whether assigning reg to lr would put it
// in the same bundle as an already-placed bundle partner.
func bundleConflictsWith(lrs []*LiveRange, lr *LiveRange, reg int) bool {
    for _, id := range lr.bundles {
        if p := lrs[id]; p != nil && p.phyReg != _NoReg && bundleOf(p.phyReg) == bundleOf(reg) {
            return true
        }
    }
    return false
}

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
    `math`

    `github.com/vexgen/vexgen/gir`
)

const (
    _NoReg  = -1
    _NoSlot = -1
)

// LiveRange is one allocatable variable's participant in the
// interference graph: degree, spill cost, forbidden set, and the
// eventual physical assignment. Live ranges are rebuilt at the start
// of every retry iteration unless incremental mode preserves them.
type LiveRange struct {
    id      int
    dcl     *gir.Declare
    regKind gir.RegFile

    degree     int
    refCount   int
    regsNeeded int
    spillCost  float64

    forbidden     *gir.BitSet
    forbiddenKind ForbiddenKind
    ownForbidden  bool // forbidden points at a private copy, not a shared template

    bc      BankConflict
    bundles []int // live-range ids this range has a bundle conflict with

    mask    AugmentMask
    chanLo  int
    chanHi  int
    startId int
    endId   int

    phyReg    int
    subRegOff int
    spillSlot int

    active         bool
    spilled        bool
    pseudoNode     bool
    splitDcl       bool
    infiniteCost   bool
    unconstrained  bool
    calleeSaveBias bool
    callerSaveBias bool
}

func newLiveRange(id int, dcl *gir.Declare, fbd *ForbiddenRegs) (lr *LiveRange) {
    lr = &LiveRange {
        id         : id,
        dcl        : dcl,
        regKind    : dcl.RegFile,
        regsNeeded : dcl.RegsNeeded(),
        mask       : MaskUndetermined,
        startId    : math.MaxInt32,
        endId      : -1,
        phyReg     : _NoReg,
        spillSlot  : _NoSlot,
        splitDcl   : dcl.IsSplitDcl(),
    }
    lr.initializeForbidden(fbd)
    return
}

// initializeForbidden picks the template forbidden set for the range.
// The template is shared; markForbidden copies on first write.
func (self *LiveRange) initializeForbidden(fbd *ForbiddenRegs) {
    switch {
        case self.regKind == gir.RegFileAddr : self.forbiddenKind = ForbiddenAddr
        case self.regKind == gir.RegFileFlag : self.forbiddenKind = ForbiddenFlag
        case self.dcl.EOTSrc                 : self.forbiddenKind = ForbiddenEOTLastGRF
        case fbd.cfg.ReservedGRFs > 0        : self.forbiddenKind = ForbiddenReserved
        case self.regsNeeded > 1             : self.forbiddenKind = ForbiddenLastGRF
        default                              : self.forbiddenKind = ForbiddenNone
    }
    self.forbidden = fbd.Template(self.forbiddenKind)
    self.ownForbidden = false
}

// markForbidden merges [reg, reg+n) into the range's forbidden set,
// copying the shared template first if needed.
func (self *LiveRange) markForbidden(reg int, n int) {
    if !self.ownForbidden {
        self.forbidden = self.forbidden.Clone()
        self.ownForbidden = true
    }
    for r := reg; r < reg + n; r++ {
        self.forbidden.Set(r)
    }
}

// mergeForbidden merges a whole register set, copy-on-write.
func (self *LiveRange) mergeForbidden(bs *gir.BitSet) {
    if !self.ownForbidden {
        self.forbidden = self.forbidden.Clone()
        self.ownForbidden = true
    }
    self.forbidden.Or(bs)
}

func (self *LiveRange) subtractDegree(d int) {
    if d > self.degree {
        panic("ra: degree underflow on " + self.dcl.Name)
    }
    self.degree -= d
}

// alignStep is the register-number step implied by the variable's
// alignment constraints: even-aligned GRF variables may only start on
// even register numbers.
func (self *LiveRange) alignStep() int {
    if self.regKind == gir.RegFileGRF && (self.dcl.EvenAlign || self.dcl.SubAlign >= gir.AlignGRF && self.regsNeeded > 1) {
        return 2
    } else {
        return 1
    }
}

func (self *LiveRange) String() string {
    return fmt.Sprintf("%s(size = %d, spill cost = %g, degree = %d)",
        self.dcl.Name, self.dcl.ByteSize, self.spillCost, self.degree)
}

// checkForbiddenCompatible verifies at setup time that at least one
// aligned register window is not fully forbidden. Failing this is a
// fatal diagnostic before coloring ever starts: no amount of spilling
// can make such a variable allocatable.
func (self *LiveRange) checkForbiddenCompatible(kernel string, total int) error {
    step := self.alignStep()
    for r := 0; r + self.regsNeeded <= total; r += step {
        ok := true
        for i := 0; i < self.regsNeeded; i++ {
            if self.forbidden.Test(r + i) {
                ok = false
                break
            }
        }
        if ok {
            return nil
        }
    }
    return DiagnosticError {
        Kernel : kernel,
        Var    : self.dcl.Name,
        Reason : "required alignment is incompatible with its forbidden-register set",
    }
}

// buildLiveRanges creates the live-range registry for one register
// file kind. Sub-declares get no range of their own: every reference
// through a piece resolves to the root, which carries the single
// placement for all of them. Ids are dense; in incremental mode ids
// from the previous iteration are reused and the returned slice may
// contain nil holes for variables that left the candidate set.
func buildLiveRanges(kernel *gir.Kernel, rf gir.RegFile, fbd *ForbiddenRegs, inc *IncrementalRA) (lrs []*LiveRange, lrOf []int, err error) {
    lrOf = make([]int, len(kernel.Declares))
    for i := range lrOf {
        lrOf[i] = -1
    }

    /* create one live range per allocatable root declare */
    for _, dcl := range kernel.Declares {
        if !dcl.Candidate || dcl.RegFile != rf || dcl.IsSubDcl() {
            continue
        }

        /* reuse the previous iteration's id when possible */
        id, ok := -1, false
        if inc != nil {
            id, ok = inc.idFromPrevIter(dcl)
        }
        if !ok {
            id = len(lrs)
            if inc != nil {
                id = inc.nextVarId(len(lrs))
            }
        }

        /* grow the registry to cover the id */
        for len(lrs) <= id {
            lrs = append(lrs, nil)
        }

        lr := newLiveRange(id, dcl, fbd)
        lrs[id] = lr
        lrOf[dcl.Id] = id

        if dcl.RetAddr {
            lr.infiniteCost = true
            lr.spillCost = math.Inf(1)
        }
        if inc != nil {
            inc.recordVarId(dcl, id)
        }
    }

    /* setup-time alignment/forbidden compatibility check */
    for _, lr := range lrs {
        if lr != nil {
            if err = lr.checkForbiddenCompatible(kernel.Name, fbd.Size(rf)); err != nil {
                return nil, nil, err
            }
        }
    }
    return
}

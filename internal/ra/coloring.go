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
    `math`

    `github.com/oleiade/lane`
    `github.com/vexgen/vexgen/gir`
)

// GraphColor runs Chaitin-Briggs coloring over one register file:
// spill-cost computation, weighted-degree simplification with an
// optimistic push of would-be spills, and color selection off the
// stack. Ranges that fail selection come back in spilled.
type GraphColor struct {
    rf      gir.RegFile
    intf    *Interference
    fbd     *ForbiddenRegs
    lrs     []*LiveRange
    kernel  *gir.Kernel
    colors  int
    stack   *lane.Stack
    spilled []*LiveRange
}

func newGraphColor(intf *Interference, rf gir.RegFile) *GraphColor {
    return &GraphColor {
        rf     : rf,
        intf   : intf,
        fbd    : intf.fbd,
        lrs    : intf.lrs,
        kernel : intf.kernel,
        colors : intf.fbd.Size(rf),
        stack  : lane.NewStack(),
    }
}

func (self *GraphColor) color() error {
    self.computeDegrees()
    self.computeSpillCosts()
    self.simplify()
    return self.assignColors()
}

/** Spill Costs **/

func (self *GraphColor) countRefs() {
    for _, bb := range self.kernel.Blocks {
        for _, v := range bb.Ins {
            for _, d := range v.Defs() { self.addRef(d) }
            for _, s := range v.Uses() { self.addRef(s) }
        }
    }
}

func (self *GraphColor) addRef(op *gir.Operand) {
    if id := self.intf.lrOf[op.Dcl.Root().Id]; id >= 0 {
        self.lrs[id].refCount++
    }
}

// computeSpillCosts favors spilling rarely-referenced, large, highly
// contended variables. Spill temporaries and return addresses must
// never spill again; their cost is infinite.
func (self *GraphColor) computeSpillCosts() {
    self.countRefs()
    for _, lr := range self.lrs {
        if lr == nil {
            continue
        }
        if lr.infiniteCost || lr.dcl.SpillTemp || lr.dcl.EOTSrc {
            lr.infiniteCost = true
            lr.spillCost = math.Inf(1)
        } else {
            rc := float64(lr.refCount)
            lr.spillCost = rc * rc / float64(lr.dcl.ByteSize) / float64(lr.degree + 1)
        }
    }
}

/** Weighted Degree **/

// edgeWeight is the number of colors a neighbor pair can deny each
// other. Multi-register GRF variables block a window of starts; the
// scalar architectural files always cost exactly the neighbor's size.
func (self *GraphColor) edgeWeight(a *LiveRange, b *LiveRange) int {
    if self.rf == gir.RegFileGRF {
        return a.regsNeeded + b.regsNeeded - 1
    } else {
        return b.regsNeeded
    }
}

func (self *GraphColor) computeDegrees() {
    for _, lr := range self.lrs {
        if lr == nil {
            continue
        }
        lr.active = true
        lr.degree = 0
        for _, j := range self.intf.neighbors(lr.id) {
            lr.degree += self.edgeWeight(lr, self.lrs[j])
        }
        lr.unconstrained = lr.degree + lr.regsNeeded <= self.colors
    }
}

/** Simplification **/

// removeNode takes a node out of the residual graph, pushes it for
// later selection, and relaxes its neighbors' degrees. Neighbors that
// become unconstrained are queued for removal in turn.
func (self *GraphColor) removeNode(lr *LiveRange, relax *lane.Queue) {
    lr.active = false
    self.stack.Push(lr)

    for _, j := range self.intf.neighbors(lr.id) {
        nb := self.lrs[j]
        if !nb.active {
            continue
        }
        nb.subtractDegree(self.edgeWeight(lr, nb))
        if !nb.unconstrained && nb.degree + nb.regsNeeded <= self.colors {
            nb.unconstrained = true
            relax.Enqueue(nb)
        }
    }
}

// pickSpillCandidate returns the active constrained node with the
// lowest spill cost, ties broken by id for determinism.
func (self *GraphColor) pickSpillCandidate() (ret *LiveRange) {
    for _, lr := range self.lrs {
        if lr != nil && lr.active && !lr.unconstrained {
            if ret == nil || lr.spillCost < ret.spillCost {
                ret = lr
            }
        }
    }
    return
}

// simplify empties the graph onto the selection stack. Unconstrained
// nodes go first since they can always be colored; when only
// constrained nodes remain, the cheapest one is pushed optimistically
// and may still find a color during selection.
func (self *GraphColor) simplify() {
    remain := 0
    relax := lane.NewQueue()

    for _, lr := range self.lrs {
        if lr != nil {
            remain++
            if lr.unconstrained {
                relax.Enqueue(lr)
            }
        }
    }

    for remain > 0 {
        for !relax.Empty() {
            if lr := relax.Dequeue().(*LiveRange); lr.active {
                self.removeNode(lr, relax)
                remain--
            }
        }
        if remain > 0 {
            self.removeNode(self.pickSpillCandidate(), relax)
            remain--
        }
    }
}

/** Color Selection **/

// regRangeFree checks forbidden bits and already-colored neighbors for
// a window of regsNeeded registers starting at reg.
func (self *GraphColor) regRangeFree(lr *LiveRange, reg int, taken *gir.BitSet) bool {
    for i := 0; i < lr.regsNeeded; i++ {
        if lr.forbidden.Test(reg + i) || taken.Test(reg + i) {
            return false
        }
    }
    return true
}

// markTaken collects the register windows of colored neighbors.
func (self *GraphColor) markTaken(lr *LiveRange, taken *gir.BitSet) {
    taken.Reset()
    for _, j := range self.intf.neighbors(lr.id) {
        if nb := self.lrs[j]; nb.phyReg != _NoReg {
            for i := 0; i < nb.regsNeeded; i++ {
                taken.Set(nb.phyReg + i)
            }
        }
    }
}

// scanStart biases where the register scan begins: callee-save bias
// starts in the upper half so values living across calls stay out of
// clobbered registers, caller-save bias the opposite.
func (self *GraphColor) scanStart(lr *LiveRange) int {
    if self.rf != gir.RegFileGRF {
        return 0
    }
    if lr.calleeSaveBias {
        start := self.colors / 2
        return start + start % lr.alignStep()
    }
    return 0
}

func alignUp(v int, step int) int {
    return v + (step - v % step) % step
}

// selectColor scans aligned windows starting from the bias point and
// wrapping once. The first pass honors bank and bundle hints; if it
// finds nothing the second pass takes any legal window.
func (self *GraphColor) selectColor(lr *LiveRange, taken *gir.BitSet) int {
    step := lr.alignStep()
    base := self.scanStart(lr)
    hint := self.rf == gir.RegFileGRF && (lr.bc != BankNone || len(lr.bundles) != 0)

    for pass := 0; pass < 2; pass++ {
        for _, seg := range [...][2]int {{base, self.colors}, {0, base}} {
            for reg := alignUp(seg[0], step); reg < seg[1] && reg + lr.regsNeeded <= self.colors; reg += step {
                if !self.regRangeFree(lr, reg, taken) {
                    continue
                }
                if pass == 0 && hint {
                    if !matchesBank(lr.bc, reg) || bundleConflictsWith(self.lrs, lr, reg) {
                        continue
                    }
                }
                return reg
            }
        }
        if !hint {
            break
        }
    }
    return _NoReg
}

// assignColors pops the selection stack and colors each node against
// its already-colored neighbors. A constrained node that finds no
// color is marked for spilling, unless spilling it is impossible, in
// which case allocation of the kernel fails outright.
func (self *GraphColor) assignColors() error {
    taken := gir.NewBitSet(self.colors)
    self.spilled = self.spilled[:0]

    for !self.stack.Empty() {
        lr := self.stack.Pop().(*LiveRange)
        self.markTaken(lr, taken)

        if reg := self.selectColor(lr, taken); reg != _NoReg {
            lr.phyReg = reg
            continue
        }
        if lr.infiniteCost {
            return DiagnosticError {
                Kernel : self.kernel.Name,
                Var    : lr.dcl.Name,
                Reason : "cannot be assigned a register and must not be spilled",
            }
        }
        lr.spilled = true
        self.spilled = append(self.spilled, lr)
    }
    return nil
}

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
    `sort`

    `github.com/vexgen/vexgen/gir`
)

// AugmentMask classifies how a variable's definitions cover its SIMD
// channels. Two variables with the same default category and element
// width write disjoint lanes under divergent control flow and need no
// extra interference; everything else gets augmented edges.
type AugmentMask uint8

const (
    MaskUndetermined AugmentMask = iota
    MaskDefault16
    MaskDefault32
    MaskDefault64
    MaskDefaultPredicate
    MaskNonDefault
)

var _MaskNames = map[AugmentMask]string {
    MaskUndetermined     : "undetermined",
    MaskDefault16        : "default16",
    MaskDefault32        : "default32",
    MaskDefault64        : "default64",
    MaskDefaultPredicate : "defaultpredicate",
    MaskNonDefault       : "nondefault",
}

func (self AugmentMask) String() string {
    if v, ok := _MaskNames[self]; ok {
        return v
    } else {
        return fmt.Sprintf("mask(%d)", uint8(self))
    }
}

func (self AugmentMask) isDefault() bool {
    return self == MaskDefault16 || self == MaskDefault32 || self == MaskDefault64 || self == MaskDefaultPredicate
}

// Augmenter runs the SIMD-aware live-range augmentation: mask
// classification, interval construction, and an end-ordered interval
// sweep that adds conservative edges between overlapping ranges whose
// channel behavior cannot be proven disjoint.
type Augmenter struct {
    intf     *Interference
    kernel   *gir.Kernel
    live     *gir.Liveness
    lrs      []*LiveRange
    lrOf     []int
    order    []*LiveRange
    activeD  []*LiveRange
    activeND []*LiveRange
}

func newAugmenter(intf *Interference) *Augmenter {
    return &Augmenter {
        intf   : intf,
        kernel : intf.kernel,
        live   : intf.live,
        lrs    : intf.lrs,
        lrOf   : intf.lrOf,
    }
}

func (self *Augmenter) augmentIntfGraph() {
    self.classifyMasks()
    self.buildLiveIntervals()
    self.sweepIntervals()
    self.handleCallSites()
}

/** Mask Classification **/

// defMask categorizes one definition of a declare. A definition is
// default when it writes the declare's full channel span without
// predication or mask suppression; its category is keyed on element
// width. The channel offset does not matter here, it only widens the
// declare's recorded lane span.
func defMask(v *gir.Instr, d *gir.Operand) AugmentMask {
    dcl := d.Dcl.Root()
    if v.Mask.NoMask || v.Pred != nil || !d.CoversDcl() {
        return MaskNonDefault
    }
    if dcl.RegFile == gir.RegFileFlag {
        return MaskDefaultPredicate
    }
    if v.Mask.Size == 0 {
        return MaskNonDefault
    }
    switch dcl.ByteSize / v.Mask.Size {
        case 2  : return MaskDefault16
        case 4  : return MaskDefault32
        case 8  : return MaskDefault64
        default : return MaskNonDefault
    }
}

// classifyMasks folds every definition of a variable into one mask.
// Conflicting categories degrade to non-default; a variable with no
// textual definition (e.g. a kernel input) stays undetermined and is
// treated as non-default by the sweep.
func (self *Augmenter) classifyMasks() {
    for _, bb := range self.kernel.Blocks {
        for _, v := range bb.Ins {
            for _, d := range v.Defs() {
                id := self.lrOf[d.Dcl.Root().Id]
                if id < 0 {
                    continue
                }
                lr := self.lrs[id]
                m := defMask(v, d)
                switch {
                    case lr.mask == MaskUndetermined : lr.mask = m
                    case lr.mask != m                : lr.mask = MaskNonDefault
                }
                if lo, hi := v.Mask.Off, v.Mask.Off + v.Mask.Size; lr.chanHi == 0 {
                    lr.chanLo, lr.chanHi = lo, hi
                } else {
                    if lo < lr.chanLo { lr.chanLo = lo }
                    if hi > lr.chanHi { lr.chanHi = hi }
                }
            }
        }
    }
}

/** Interval Construction **/

func (self *Augmenter) extend(dcl *gir.Declare, at int) {
    id := self.lrOf[dcl.Root().Id]
    if id < 0 {
        return
    }
    lr := self.lrs[id]
    if at < lr.startId { lr.startId = at }
    if at > lr.endId   { lr.endId = at }
}

// buildLiveIntervals assigns each live range a lexical [start, end]
// interval over global instruction ids: every reference point, widened
// to block boundaries wherever the variable crosses them.
func (self *Augmenter) buildLiveIntervals() {
    for _, bb := range self.kernel.Blocks {
        if len(bb.Ins) == 0 {
            continue
        }
        first := bb.Ins[0].Id
        last := bb.Ins[len(bb.Ins) - 1].Id

        for _, v := range bb.Ins {
            for _, d := range v.Defs() { self.extend(d.Dcl, v.Id) }
            for _, s := range v.Uses() { self.extend(s.Dcl, v.Id) }
        }

        self.live.LiveIn[bb.Id].ForEach(func(dclId int) {
            if id := self.lrOf[dclId]; id >= 0 {
                self.extend(self.lrs[id].dcl, first)
            }
        })
        self.live.LiveOut[bb.Id].ForEach(func(dclId int) {
            if id := self.lrOf[dclId]; id >= 0 {
                self.extend(self.lrs[id].dcl, last)
            }
        })
    }
}

/** Interval Sweep **/

// intervalOrder sorts by interval end, then start, then id. Processing
// in end order means everything still active when an interval arrives
// lexically overlaps it, so overlap reduces to expiring intervals that
// end before the newcomer starts.
func (self *Augmenter) intervalOrder() []*LiveRange {
    rr := make([]*LiveRange, 0, len(self.lrs))
    for _, lr := range self.lrs {
        if lr != nil && lr.endId >= lr.startId {
            rr = append(rr, lr)
        }
    }
    sort.Slice(rr, func(i int, j int) bool {
        a, b := rr[i], rr[j]
        if a.endId != b.endId {
            return a.endId < b.endId
        }
        if a.startId != b.startId {
            return a.startId < b.startId
        }
        return a.id < b.id
    })
    return rr
}

func expire(active []*LiveRange, start int) []*LiveRange {
    n := 0
    for _, lr := range active {
        if lr.endId >= start {
            active[n] = lr
            n++
        }
    }
    return active[:n]
}

func (self *Augmenter) sweepIntervals() {
    self.order = self.intervalOrder()
    self.activeD = self.activeD[:0]
    self.activeND = self.activeND[:0]

    for _, cur := range self.order {
        self.activeD = expire(self.activeD, cur.startId)
        self.activeND = expire(self.activeND, cur.startId)
        self.handleSIMDIntf(cur)

        if cur.mask.isDefault() {
            self.activeD = append(self.activeD, cur)
        } else {
            self.activeND = append(self.activeND, cur)
        }
    }
}

// handleSIMDIntf relates the incoming interval to everything active.
// Non-default ranges conflict with all of them. Default ranges only
// conflict with non-defaults and with defaults of a different element
// width; same-width defaults with disjoint channel spans are proven
// storage-compatible and unlink even their lexical edge.
func (self *Augmenter) handleSIMDIntf(cur *LiveRange) {
    if !cur.mask.isDefault() {
        for _, lr := range self.activeD  { self.addAugmentEdge(cur, lr) }
        for _, lr := range self.activeND { self.addAugmentEdge(cur, lr) }
        return
    }
    for _, lr := range self.activeND {
        self.addAugmentEdge(cur, lr)
    }
    for _, lr := range self.activeD {
        if lr.mask != cur.mask {
            self.addAugmentEdge(cur, lr)
        } else if cur.chanHi <= lr.chanLo || lr.chanHi <= cur.chanLo {
            self.intf.markCompatible(cur.id, lr.id)
        }
    }
}

func (self *Augmenter) addAugmentEdge(a *LiveRange, b *LiveRange) {
    if a.dcl.Root() != b.dcl.Root() {
        self.intf.setInterference(a.id, b.id)
    }
}

/** Call Sites **/

// handleCallSites folds callee register summaries into every range
// live across the call, and pins return-value pseudo variables apart
// from those ranges so the callee's writeback cannot clobber them.
func (self *Augmenter) handleCallSites() {
    for _, bb := range self.kernel.Blocks {
        for _, v := range bb.Ins {
            if v.IsCall() && v.Call != nil {
                self.augmentCallSite(v)
            }
        }
    }
}

func (self *Augmenter) augmentCallSite(v *gir.Instr) {
    for _, lr := range self.lrs {
        if lr == nil || lr.startId >= v.Id || lr.endId <= v.Id {
            continue
        }
        if cs := v.Call.Callee; cs != nil {
            switch lr.regKind {
                case gir.RegFileGRF  : if cs.UsedGRF  != nil { lr.mergeForbidden(cs.UsedGRF) }
                case gir.RegFileAddr : if cs.UsedAddr != nil { lr.mergeForbidden(cs.UsedAddr) }
                case gir.RegFileFlag : if cs.UsedFlag != nil { lr.mergeForbidden(cs.UsedFlag) }
            }
        }
        for _, rv := range v.Call.RetVals {
            if rvId := self.lrOf[rv.Id]; rvId >= 0 {
                self.intf.setInterference(lr.id, rvId)
            }
        }
    }
}

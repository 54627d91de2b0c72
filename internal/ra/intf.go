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
    `math/bits`
    `sort`

    `github.com/vexgen/vexgen/gir`
    `github.com/vexgen/vexgen/internal/opts`
    `github.com/vexgen/vexgen/internal/rt`
)

const (
    _BitsPerWord = 32
)

// _SparseRow is one adjacency row in sparse representation: a sorted
// slice of neighbor ids, probed with binary search.
type _SparseRow []uint32

func (self _SparseRow) find(v uint32) int {
    return sort.Search(len(self), func(i int) bool { return self[i] >= v })
}

func (self _SparseRow) test(v uint32) bool {
    i := self.find(v)
    return i < len(self) && self[i] == v
}

func (self _SparseRow) insert(v uint32) _SparseRow {
    i := self.find(v)
    if i < len(self) && self[i] == v {
        return self
    }
    self = append(self, 0)
    copy(self[i + 1:], self[i:])
    self[i] = v
    return self
}

func (self _SparseRow) remove(v uint32) _SparseRow {
    i := self.find(v)
    if i >= len(self) || self[i] != v {
        return self
    }
    copy(self[i:], self[i + 1:])
    return self[:len(self) - 1]
}

// Interference is the undirected interference graph over live-range
// ids. Edges are stored once in upper-triangular form (row = min id):
// either a dense bit-matrix or sorted sparse rows, chosen from the
// graph size at construction. After edge building, generateSparseIntf
// flattens the edges into per-node neighbor lists for the colorer.
type Interference struct {
    kernel *gir.Kernel
    live   *gir.Liveness
    cfg    *opts.Options
    fbd    *ForbiddenRegs
    lrs    []*LiveRange
    lrOf   []int

    maxId   int
    rowSize int
    dense   []uint32
    sparse  []_SparseRow

    nbr    [][]int32
    compat map[uint64]struct{}
    dirty  map[int]struct{}

    liveBuf *gir.BitSet
}

func newInterference(kernel *gir.Kernel, live *gir.Liveness, cfg *opts.Options, fbd *ForbiddenRegs, lrs []*LiveRange, lrOf []int) (self *Interference) {
    self = &Interference {
        kernel  : kernel,
        live    : live,
        cfg     : cfg,
        fbd     : fbd,
        lrs     : lrs,
        lrOf    : lrOf,
        maxId   : len(lrs),
        rowSize : (len(lrs) + _BitsPerWord - 1) / _BitsPerWord,
        compat  : make(map[uint64]struct{}),
        liveBuf : gir.NewBitSet(len(lrs)),
    }
    self.chooseRepresentation()
    return
}

// chooseRepresentation picks dense storage for small graphs. The dense
// matrix is addressed with 32-bit word offsets, so the size product is
// widened to 64 bits before comparing against the offset limit; a
// graph that would overflow falls back to sparse rows regardless of
// the configured threshold.
func (self *Interference) chooseRepresentation() {
    words := uint64(self.rowSize) * uint64(self.maxId)
    if self.maxId < self.cfg.DenseLimit && words * 4 < math.MaxUint32 {
        self.dense = make([]uint32, words)
    } else {
        self.sparse = make([]_SparseRow, self.maxId)
    }
}

func (self *Interference) isDense() bool {
    return self.dense != nil
}

/** Edge Primitives **/

// setInterference records an edge between two live ranges. Self-edges
// are ignored and repeated insertion is idempotent. With an active
// dirty filter, edges between two carried-over ids are skipped: those
// were seeded from the previous iteration's graph.
func (self *Interference) setInterference(v1 int, v2 int) {
    if v1 == v2 {
        return
    }
    if self.dirty != nil {
        if _, d1 := self.dirty[v1]; !d1 {
            if _, d2 := self.dirty[v2]; !d2 {
                return
            }
        }
    }
    if v1 > v2 {
        v1, v2 = v2, v1
    }
    if self.isDense() {
        self.dense[v1 * self.rowSize + v2 / _BitsPerWord] |= 1 << (v2 % _BitsPerWord)
    } else {
        self.sparse[v1] = self.sparse[v1].insert(uint32(v2))
    }
}

func (self *Interference) clearInterference(v1 int, v2 int) {
    if v1 == v2 {
        return
    }
    if v1 > v2 {
        v1, v2 = v2, v1
    }
    if self.isDense() {
        self.dense[v1 * self.rowSize + v2 / _BitsPerWord] &^= 1 << (v2 % _BitsPerWord)
    } else {
        self.sparse[v1] = self.sparse[v1].remove(uint32(v2))
    }
}

func (self *Interference) interfereBetween(v1 int, v2 int) bool {
    if v1 == v2 {
        return false
    }
    if v1 > v2 {
        v1, v2 = v2, v1
    }
    if self.isDense() {
        return self.dense[v1 * self.rowSize + v2 / _BitsPerWord] & (1 << (v2 % _BitsPerWord)) != 0
    } else {
        return self.sparse[v1].test(uint32(v2))
    }
}

// forEachEdge visits every recorded edge exactly once with v1 < v2.
func (self *Interference) forEachEdge(fn func(v1 int, v2 int)) {
    if self.isDense() {
        for v1 := 0; v1 < self.maxId; v1++ {
            row := self.dense[v1 * self.rowSize : (v1 + 1) * self.rowSize]
            for wi, w := range row {
                for w != 0 {
                    b := bits.TrailingZeros32(w)
                    fn(v1, wi * _BitsPerWord + b)
                    w &^= 1 << b
                }
            }
        }
    } else {
        for v1, row := range self.sparse {
            for _, v2 := range row {
                fn(v1, int(v2))
            }
        }
    }
}

/** Storage Compatibility **/

func compatKey(v1 int, v2 int) uint64 {
    if v1 > v2 {
        v1, v2 = v2, v1
    }
    return uint64(v1) << 32 | uint64(uint32(v2))
}

// markCompatible records that two lexically-overlapping live ranges
// may nevertheless share storage, as proven by the SIMD channel
// analysis. Compatible pairs are dropped from the neighbor lists.
func (self *Interference) markCompatible(v1 int, v2 int) {
    self.compat[compatKey(v1, v2)] = struct{}{}
}

func (self *Interference) isCompatible(v1 int, v2 int) bool {
    _, ok := self.compat[compatKey(v1, v2)]
    return ok
}

/** Graph Construction **/

// computeInterference walks every basic block backwards from its
// live-out set, recording an edge from each definition to everything
// live at that point, then connects the boundary live sets pairwise.
func (self *Interference) computeInterference() {
    for _, bb := range self.kernel.Blocks {
        self.buildInterferenceWithinBB(bb)
    }
    self.buildInterferenceAmongLiveIns()
    self.buildInterferenceAmongLiveOuts()
}

// seedLive translates a declare-indexed liveness vector into the
// live-range id space, reusing the scratch buffer.
func (self *Interference) seedLive(vec *gir.BitSet) *gir.BitSet {
    self.liveBuf.Reset()
    vec.ForEach(func(dclId int) {
        if id := self.lrOf[dclId]; id >= 0 {
            self.liveBuf.Set(id)
        }
    })
    return self.liveBuf
}

func (self *Interference) buildInterferenceWithinBB(bb *gir.BasicBlock) {
    live := self.seedLive(self.live.LiveOut[bb.Id])

    for i := len(bb.Ins) - 1; i >= 0; i-- {
        v := bb.Ins[i]

        /* definitions interfere with everything live below them */
        for _, d := range v.Defs() {
            id := self.lrOf[d.Dcl.Root().Id]
            if id < 0 {
                continue
            }
            self.buildInterferenceWithLive(live, id)

            /* an unconditional full-width def kills the variable, but
             * only when it writes the root itself: a write through a
             * sub-declare covers just that piece, and the rest of the
             * root stays live */
            if d.Dcl == d.Dcl.Root() && d.CoversDcl() && v.Pred == nil && (v.Mask.NoMask || v.Mask.Size >= self.kernel.SimdSize) {
                live.Clear(id)
            } else {
                live.Set(id)
            }
        }

        /* call sites clobber the caller-save half of the file */
        if v.IsCall() {
            self.buildInterferenceForCall(bb, v, live)
        }

        /* sources become live above the instruction */
        for _, s := range v.Uses() {
            if id := self.lrOf[s.Dcl.Root().Id]; id >= 0 {
                live.Set(id)
            }
        }
    }
}

// buildInterferenceWithLive adds an edge from id to every member of
// the live set. Pieces of the same root declare alias by construction
// and never interfere with each other.
func (self *Interference) buildInterferenceWithLive(live *gir.BitSet, id int) {
    root := self.lrs[id].dcl.Root()
    live.ForEach(func(j int) {
        if j != id && self.lrs[j].dcl.Root() != root {
            self.setInterference(id, j)
        }
    })
}

// buildInterferenceForCall steers every range live across the call
// away from caller-save registers and prunes the call's return-value
// pseudo variables from the block's live-out, where the lexical walk
// would otherwise see them conflicting with their own producers.
func (self *Interference) buildInterferenceForCall(bb *gir.BasicBlock, v *gir.Instr, live *gir.BitSet) {
    live.ForEach(func(j int) {
        if lr := self.lrs[j]; lr.regKind == gir.RegFileGRF {
            lr.mergeForbidden(self.fbd.CallerSaveRegs())
            lr.calleeSaveBias = true
        }
    })
    if v.Call == nil {
        return
    }
    for _, rv := range v.Call.RetVals {
        rvId := self.lrOf[rv.Id]
        if rvId < 0 {
            continue
        }
        self.live.LiveOut[bb.Id].ForEach(func(dclId int) {
            if id := self.lrOf[dclId]; id >= 0 {
                self.clearInterference(rvId, id)
            }
        })
    }
}

// Variables live into the entry block occupy registers simultaneously
// before the first instruction, so they must be pairwise distinct.
func (self *Interference) buildInterferenceAmongLiveIns() {
    if len(self.kernel.Blocks) != 0 {
        self.buildInterferencePairwise(self.live.LiveIn[self.kernel.Blocks[0].Id])
    }
}

func (self *Interference) buildInterferenceAmongLiveOuts() {
    if n := len(self.kernel.Blocks); n != 0 {
        self.buildInterferencePairwise(self.live.LiveOut[self.kernel.Blocks[n - 1].Id])
    }
}

func (self *Interference) buildInterferencePairwise(vec *gir.BitSet) {
    live := self.seedLive(vec).Clone()
    live.ForEach(func(i int) {
        self.buildInterferenceWithLive(live, i)
    })
}

/** Neighbor List Flattening **/

// generateSparseIntf converts edge storage into per-node neighbor id
// lists, dropping storage-compatible pairs, and derives each node's
// initial neighbor count. The lists live in one flat arena since every
// slot is written exactly once.
func (self *Interference) generateSparseIntf() {
    deg := make([]int32, self.maxId)

    /* first pass: count surviving edges at both endpoints */
    total := 0
    self.forEachEdge(func(v1 int, v2 int) {
        if !self.isCompatible(v1, v2) {
            deg[v1]++
            deg[v2]++
            total += 2
        }
    })

    /* carve per-node lists out of a single arena */
    off := 0
    arena := rt.I32Scratch(total)
    self.nbr = make([][]int32, self.maxId)

    for i, n := range deg {
        self.nbr[i] = arena[off : off : off + int(n)]
        off += int(n)
    }

    /* second pass: fill the lists, ascending at both endpoints */
    self.forEachEdge(func(v1 int, v2 int) {
        if !self.isCompatible(v1, v2) {
            self.nbr[v1] = append(self.nbr[v1], int32(v2))
            self.nbr[v2] = append(self.nbr[v2], int32(v1))
        }
    })
}

// neighbors returns the flattened neighbor list for a node. Only valid
// after generateSparseIntf.
func (self *Interference) neighbors(id int) []int32 {
    return self.nbr[id]
}

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
    `gonum.org/v1/gonum/graph/simple`
)

// IncrementalRA carries allocation state across spill-and-retry
// iterations: stable live-range ids per declare, and the previous
// iteration's interference edges. Between iterations only the spilled
// variables and the freshly created spill temporaries change, so their
// edges are recomputed while everything else is carried over.
type IncrementalRA struct {
    prevIds  map[*gir.Declare]int
    curIds   map[*gir.Declare]int
    dirty    map[int]struct{}
    nextId   int
    prevIntf *Interference
}

func newIncrementalRA() *IncrementalRA {
    return &IncrementalRA {
        prevIds : make(map[*gir.Declare]int),
        curIds  : make(map[*gir.Declare]int),
        dirty   : make(map[int]struct{}),
    }
}

/** Id Stability **/

func (self *IncrementalRA) idFromPrevIter(dcl *gir.Declare) (int, bool) {
    id, ok := self.prevIds[dcl]
    return id, ok
}

// nextVarId hands out an id no previous iteration has used, so a new
// spill temporary can never collide with a carried-over variable.
func (self *IncrementalRA) nextVarId(atLeast int) int {
    if self.nextId < atLeast {
        self.nextId = atLeast
    }
    id := self.nextId
    self.nextId++
    return id
}

func (self *IncrementalRA) recordVarId(dcl *gir.Declare, id int) {
    self.curIds[dcl] = id
    if id >= self.nextId {
        self.nextId = id + 1
    }
    if _, ok := self.prevIds[dcl]; !ok {
        self.markForIntfUpdate(id)
    }
}

// markForIntfUpdate flags a live-range id whose edges cannot be
// carried over from the previous iteration.
func (self *IncrementalRA) markForIntfUpdate(id int) {
    self.dirty[id] = struct{}{}
}

func (self *IncrementalRA) isDirty(id int) bool {
    _, ok := self.dirty[id]
    return ok
}

/** Iteration Boundary **/

// commitIteration archives this iteration's graph and id map, then
// resets the dirty set for the next round. Spilled ranges are flagged
// now: their declares vanish from the candidate set, taking their
// edges with them.
func (self *IncrementalRA) commitIteration(intf *Interference, spilled []*LiveRange) {
    self.resetDirty()
    for _, lr := range spilled {
        self.markForIntfUpdate(lr.id)
        delete(self.curIds, lr.dcl)
    }
    self.prevIntf = intf
    self.prevIds = self.curIds
    self.curIds = make(map[*gir.Declare]int)
}

func (self *IncrementalRA) resetDirty() {
    self.dirty = make(map[int]struct{})
}

// seedInterference copies the previous iteration's edges between
// still-live, non-dirty ids into the fresh graph, and restricts the
// lexical walk to edges touching a dirty id.
func (self *IncrementalRA) seedInterference(intf *Interference) {
    if self.prevIntf == nil {
        return
    }
    self.prevIntf.forEachEdge(func(v1 int, v2 int) {
        if v1 < len(intf.lrs) && v2 < len(intf.lrs) && intf.lrs[v1] != nil && intf.lrs[v2] != nil {
            if !self.isDirty(v1) && !self.isDirty(v2) {
                intf.setInterference(v1, v2)
            }
        }
    })
    intf.dirty = self.dirty
}

/** Verification **/

func edgeGraph(intf *Interference) (*simple.UndirectedGraph, int) {
    n := 0
    g := simple.NewUndirectedGraph()
    intf.forEachEdge(func(v1 int, v2 int) {
        g.SetEdge(g.NewEdge(simple.Node(v1), simple.Node(v2)))
        n++
    })
    return g, n
}

// verifyInterference rebuilds the graph from scratch and compares edge
// sets. Any mismatch means the carry-over logic dropped or invented an
// edge; that is never patched up, it fails the kernel outright.
func (self *IncrementalRA) verifyInterference(inc *Interference, scratch *Interference, kernel string) error {
    g1, n1 := edgeGraph(inc)
    g2, n2 := edgeGraph(scratch)

    if n1 != n2 {
        return InternalError {
            Kernel : kernel,
            Reason : fmt.Sprintf("incremental interference mismatch: %d edges vs %d from scratch", n1, n2),
        }
    }

    err := error(nil)
    inc.forEachEdge(func(v1 int, v2 int) {
        if err == nil && !g2.HasEdgeBetween(int64(v1), int64(v2)) {
            err = InternalError {
                Kernel : kernel,
                Reason : fmt.Sprintf("incremental edge (%d, %d) absent from scratch graph", v1, v2),
            }
        }
    })
    if err != nil {
        return err
    }

    scratch.forEachEdge(func(v1 int, v2 int) {
        if err == nil && !g1.HasEdgeBetween(int64(v1), int64(v2)) {
            err = InternalError {
                Kernel : kernel,
                Reason : fmt.Sprintf("scratch edge (%d, %d) absent from incremental graph", v1, v2),
            }
        }
    })
    return err
}

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

package gir

// Liveness is the precomputed dataflow oracle the allocator consumes:
// per-block live-in and live-out sets indexed by declare id. It is
// produced by an external analysis, never computed here.
type Liveness struct {
    LiveIn  []*BitSet
    LiveOut []*BitSet
}

func NewLiveness(nblocks int, ndecls int) (lv *Liveness) {
    lv = &Liveness {
        LiveIn  : make([]*BitSet, nblocks),
        LiveOut : make([]*BitSet, nblocks),
    }
    for i := 0; i < nblocks; i++ {
        lv.LiveIn[i] = NewBitSet(ndecls)
        lv.LiveOut[i] = NewBitSet(ndecls)
    }
    return
}

// RemoveVar clears a declare from every live-in and live-out set.
// The spill manager calls this after demoting a variable to memory.
func (self *Liveness) RemoveVar(id int) {
    for _, bs := range self.LiveIn  { bs.Clear(id) }
    for _, bs := range self.LiveOut { bs.Clear(id) }
}

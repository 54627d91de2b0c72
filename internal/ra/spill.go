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
    `github.com/vexgen/vexgen/internal/opts`
)

// SpillManager rewrites the kernel after a failed coloring round: each
// spilled variable gets a scratch slot, every read is preceded by a
// fill into a fresh block-local temporary and every write is followed
// by a store. Address and flag registers cannot reach memory directly,
// so their spills bounce through a GRF carrier with an extra mov.
type SpillManager struct {
    kernel  *gir.Kernel
    live    *gir.Liveness
    cfg     *opts.Options
    nextOff int
    nextTmp int

    numGRFSpill       int
    numGRFFill        int
    numAddrSpillStore int
    numAddrSpillLoad  int
    numFlagSpillStore int
    numFlagSpillLoad  int

    /* temporaries in creation order, tagged with the sequence number
     * of the rewritten instruction they serve: temps sharing a tag are
     * simultaneously live around that instruction */
    tempsCreated []*gir.Declare
    tempGroup    []int
    groupId      int
}

func newSpillManager(kernel *gir.Kernel, live *gir.Liveness, cfg *opts.Options) *SpillManager {
    return &SpillManager {
        kernel : kernel,
        live   : live,
        cfg    : cfg,
    }
}

// scratchSize is the total scratch-space footprint in bytes.
func (self *SpillManager) scratchSize() int {
    return self.nextOff
}

func (self *SpillManager) allocSlot(size int) (off int) {
    blk := self.cfg.SpillBlockSize
    off = self.nextOff
    self.nextOff += (size + blk - 1) / blk * blk
    return
}

// insertSpillCode rewrites every reference to the spilled set and
// renumbers the kernel. Spilled declares leave the candidate set and
// the liveness oracle; the temporaries created here join it with
// infinite spill cost so they can never spill recursively.
func (self *SpillManager) insertSpillCode(spilled []*LiveRange) {
    sp := make(map[*gir.Declare]*LiveRange, len(spilled))

    for _, lr := range spilled {
        lr.spillSlot = self.allocSlot(lr.dcl.ByteSize)
        lr.dcl.Candidate = false
        sp[lr.dcl] = lr

        self.live.RemoveVar(lr.dcl.Id)
        for _, sub := range lr.dcl.SubDcls {
            self.live.RemoveVar(sub.Id)
        }
    }

    for _, bb := range self.kernel.Blocks {
        self.rewriteBlock(bb, sp)
    }
    self.kernel.Renumber()
}

func (self *SpillManager) rewriteBlock(bb *gir.BasicBlock, sp map[*gir.Declare]*LiveRange) {
    out := make([]*gir.Instr, 0, len(bb.Ins))

    for _, v := range bb.Ins {
        tmps := make(map[*gir.Declare]*gir.Declare)
        self.groupId++

        /* fills precede the instruction */
        for _, s := range v.Uses() {
            if lr, ok := sp[s.Dcl.Root()]; ok {
                out = self.insertFill(out, v, s, lr, tmps)
            }
        }
        out = append(out, v)

        /* stores follow it */
        for _, d := range v.Defs() {
            if lr, ok := sp[d.Dcl.Root()]; ok {
                out = self.insertStore(out, v, d, lr, tmps)
            }
        }
    }
    bb.Ins = out
}

// tempFor returns the instruction-local temporary standing in for a
// spilled declare, creating it on first touch. Reusing the temp within
// one instruction keeps read-modify-write operands coherent.
func (self *SpillManager) tempFor(root *gir.Declare, tmps map[*gir.Declare]*gir.Declare) *gir.Declare {
    if t, ok := tmps[root]; ok {
        return t
    }
    t := self.newTemp(root.Name, root.RegFile, root.ByteSize)
    t.SubAlign = root.SubAlign
    t.EvenAlign = root.EvenAlign
    tmps[root] = t
    return t
}

func (self *SpillManager) newTemp(name string, rf gir.RegFile, size int) *gir.Declare {
    t := self.kernel.NewDeclare(fmt.Sprintf("SP_%s_%d", name, self.nextTmp), rf, size)
    t.SpillTemp = true
    self.nextTmp++
    self.tempsCreated = append(self.tempsCreated, t)
    self.tempGroup = append(self.tempGroup, self.groupId)
    return t
}

func spillMask(size int) gir.ExecMask {
    return gir.ExecMask{Size: size / gir.WordBytes, NoMask: true}
}

func (self *SpillManager) insertFill(out []*gir.Instr, v *gir.Instr, op *gir.Operand, lr *LiveRange, tmps map[*gir.Declare]*gir.Declare) []*gir.Instr {
    root := lr.dcl
    tmp := self.tempFor(root, tmps)

    if root.RegFile == gir.RegFileGRF {
        self.numGRFFill++
        out = append(out, &gir.Instr {
            Op   : gir.OpSpillLoad,
            Dst  : &gir.Operand{Dcl: tmp},
            Slot : lr.spillSlot,
            Mask : spillMask(root.ByteSize),
        })
        retargetOperand(op, root, tmp)
        return out
    }

    /* architectural file: fill the GRF carrier, then move into it */
    carrier := self.newTemp(root.Name, gir.RegFileGRF, root.ByteSize)
    out = append(out, &gir.Instr {
        Op   : gir.OpSpillLoad,
        Dst  : &gir.Operand{Dcl: carrier},
        Slot : lr.spillSlot,
        Mask : spillMask(root.ByteSize),
    })
    out = append(out, &gir.Instr {
        Op   : gir.OpMov,
        Dst  : &gir.Operand{Dcl: tmp},
        Srcs : []*gir.Operand{{Dcl: carrier}},
        Mask : spillMask(root.ByteSize),
    })

    if root.RegFile == gir.RegFileAddr {
        self.numAddrSpillLoad++
    } else {
        self.numFlagSpillLoad++
    }
    retargetOperand(op, root, tmp)
    return out
}

// retargetOperand points a (possibly sub-declare) operand at the
// replacement temp, folding the sub-declare offset into the operand.
func retargetOperand(op *gir.Operand, root *gir.Declare, tmp *gir.Declare) {
    if op.Dcl != root {
        op.ByteOff += op.Dcl.SubOff
    }
    op.Dcl = tmp
}

func (self *SpillManager) insertStore(out []*gir.Instr, v *gir.Instr, op *gir.Operand, lr *LiveRange, tmps map[*gir.Declare]*gir.Declare) []*gir.Instr {
    root := lr.dcl
    tmp := self.tempFor(root, tmps)
    retargetOperand(op, root, tmp)

    if root.RegFile == gir.RegFileGRF {
        self.numGRFSpill++
        return append(out, &gir.Instr {
            Op   : gir.OpSpillStore,
            Srcs : []*gir.Operand{{Dcl: tmp}},
            Slot : lr.spillSlot,
            Mask : spillMask(root.ByteSize),
        })
    }

    /* architectural file: move into the GRF carrier, then store it */
    carrier := self.newTemp(root.Name, gir.RegFileGRF, root.ByteSize)
    out = append(out, &gir.Instr {
        Op   : gir.OpMov,
        Dst  : &gir.Operand{Dcl: carrier},
        Srcs : []*gir.Operand{{Dcl: tmp}},
        Mask : spillMask(root.ByteSize),
    })
    out = append(out, &gir.Instr {
        Op   : gir.OpSpillStore,
        Srcs : []*gir.Operand{{Dcl: carrier}},
        Slot : lr.spillSlot,
        Mask : spillMask(root.ByteSize),
    })

    if root.RegFile == gir.RegFileAddr {
        self.numAddrSpillStore++
    } else {
        self.numFlagSpillStore++
    }
    return out
}

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

import (
    `fmt`
    `strings`
)

// Op is the opcode of a low-level IR instruction. Only the structural
// properties of the opcode matter for allocation: operand counts, call
// behavior and spill pseudo-ops.
type Op uint8

const (
    OpNop Op = iota
    OpMov
    OpAdd
    OpMul
    OpCmp
    OpSel
    OpMad  // 3-source multiply-add
    OpSend // block load/store message
    OpCall
    OpRet
    OpSpillStore // synthesized: store a register range to a spill slot
    OpSpillLoad  // synthesized: load a register range from a spill slot
)

var _OpNames = map[Op]string {
    OpNop        : "nop",
    OpMov        : "mov",
    OpAdd        : "add",
    OpMul        : "mul",
    OpCmp        : "cmp",
    OpSel        : "sel",
    OpMad        : "mad",
    OpSend       : "send",
    OpCall       : "call",
    OpRet        : "ret",
    OpSpillStore : "spill.store",
    OpSpillLoad  : "spill.load",
}

func (self Op) String() string {
    if v, ok := _OpNames[self]; ok {
        return v
    } else {
        return fmt.Sprintf("op(%d)", uint8(self))
    }
}

// ExecMask describes the SIMD execution channels an instruction runs
// on: a channel offset, a width, and whether channel masking is
// suppressed entirely (NoMask).
type ExecMask struct {
    Off    int
    Size   int
    NoMask bool
}

func (self ExecMask) String() string {
    if self.NoMask {
        return fmt.Sprintf("(%d|M%d|NM)", self.Size, self.Off)
    } else {
        return fmt.Sprintf("(%d|M%d)", self.Size, self.Off)
    }
}

// Operand resolves to a declared variable, plus a byte offset and
// region size for sub-variable access. Bytes == 0 means the operand
// covers the whole declare.
type Operand struct {
    Dcl     *Declare
    ByteOff int
    Bytes   int
}

// CoversDcl reports whether the operand accesses the entire declare.
func (self *Operand) CoversDcl() bool {
    return self.ByteOff == 0 && (self.Bytes == 0 || self.Bytes >= self.Dcl.ByteSize)
}

func (self *Operand) String() string {
    if self.ByteOff == 0 {
        return self.Dcl.Name
    } else {
        return fmt.Sprintf("%s+%d", self.Dcl.Name, self.ByteOff)
    }
}

// CalleeSummary is the liveness oracle's per-callee summary: the
// physical registers the callee body touches, per file.
type CalleeSummary struct {
    Name     string
    UsedGRF  *BitSet
    UsedAddr *BitSet
    UsedFlag *BitSet
}

// CallSite attaches a callee summary and the pseudo return-value
// declares to an OpCall instruction.
type CallSite struct {
    Callee  *CalleeSummary
    RetVals []*Declare
}

// Instr is one typed instruction. Id is the global lexical index
// assigned by Kernel.Renumber, used for live intervals.
type Instr struct {
    Id      int
    Op      Op
    Dst     *Operand
    Srcs    []*Operand
    Pred    *Operand // flag predicate (usage)
    CondMod *Operand // flag conditional modifier (definition)
    Mask    ExecMask
    Call    *CallSite
    Slot    int // spill slot id for OpSpillStore / OpSpillLoad
}

func (self *Instr) IsCall() bool {
    return self.Op == OpCall
}

// Defs returns the operands this instruction defines.
func (self *Instr) Defs() (rr []*Operand) {
    if self.Dst != nil {
        rr = append(rr, self.Dst)
    }
    if self.CondMod != nil {
        rr = append(rr, self.CondMod)
    }
    return
}

// Uses returns the operands this instruction reads.
func (self *Instr) Uses() (rr []*Operand) {
    rr = append(rr, self.Srcs...)
    if self.Pred != nil {
        rr = append(rr, self.Pred)
    }
    return
}

func (self *Instr) String() string {
    buf := make([]string, 0, 4)
    for _, s := range self.Srcs {
        buf = append(buf, s.String())
    }
    if self.Dst != nil {
        return fmt.Sprintf("%s %s %s, %s", self.Op, self.Mask, self.Dst, strings.Join(buf, ", "))
    } else {
        return fmt.Sprintf("%s %s %s", self.Op, self.Mask, strings.Join(buf, ", "))
    }
}

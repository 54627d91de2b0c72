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
)

// BasicBlock is a straight-line instruction sequence. Control flow is
// not represented here: the allocator consumes liveness as an oracle
// and never walks successor edges itself.
type BasicBlock struct {
    Id  int
    Ins []*Instr
}

// Kernel is one compiled kernel in virtual-register form, the unit of
// register allocation. Blocks are in lexical order.
type Kernel struct {
    Name     string
    SimdSize int
    Declares []*Declare
    Blocks   []*BasicBlock
}

// NewDeclare appends a new declared variable with the next dense id.
func (self *Kernel) NewDeclare(name string, rf RegFile, size int) (d *Declare) {
    d = &Declare {
        Id        : len(self.Declares),
        Name      : name,
        RegFile   : rf,
        ByteSize  : size,
        SubAlign  : AlignAny,
        Candidate : true,
    }
    self.Declares = append(self.Declares, d)
    return
}

// NewSubDeclare splits off an independently-live piece of dcl at the
// given byte offset.
func (self *Kernel) NewSubDeclare(dcl *Declare, off int, size int) (d *Declare) {
    d = self.NewDeclare(fmt.Sprintf("%s.sub%d", dcl.Name, len(dcl.SubDcls)), dcl.RegFile, size)
    d.Parent = dcl
    d.SubOff = off
    dcl.SubDcls = append(dcl.SubDcls, d)
    return
}

// Renumber assigns every instruction its global lexical index.
// It must be called after any rewrite of the instruction stream.
func (self *Kernel) Renumber() {
    id := 0
    for _, bb := range self.Blocks {
        for _, v := range bb.Ins {
            v.Id = id
            id++
        }
    }
}

// NumInstrs counts instructions over all blocks.
func (self *Kernel) NumInstrs() (n int) {
    for _, bb := range self.Blocks {
        n += len(bb.Ins)
    }
    return
}

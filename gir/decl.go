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

// Hardware geometry of the target register files. A general register
// is 32 bytes wide and addressed in 2-byte words.
const (
    GRFBytes  = 32
    WordBytes = 2
    GRFWords  = GRFBytes / WordBytes
)

// RegFile identifies the physical register file a variable lives in.
type RegFile uint8

const (
    RegFileGRF RegFile = iota
    RegFileAddr
    RegFileFlag
)

func (self RegFile) String() string {
    switch self {
        case RegFileGRF  : return "grf"
        case RegFileAddr : return "addr"
        case RegFileFlag : return "flag"
        default          : return fmt.Sprintf("regfile(%d)", uint8(self))
    }
}

// SubAlign is the required sub-register alignment of a variable,
// in words. AlignAny imposes no constraint.
type SubAlign uint8

const (
    AlignAny  SubAlign = 1
    AlignEven SubAlign = 2
    AlignQuad SubAlign = 4
    AlignHalf SubAlign = 8
    AlignGRF  SubAlign = GRFWords
)

// Declare is a named storage unit of the virtual-register IR. It is
// created by the IR builder and consumed read-only by the allocator,
// except for the alignment fields which the allocator may refine.
type Declare struct {
    Id       int
    Name     string
    RegFile  RegFile
    ByteSize int
    SubAlign SubAlign

    /* allocation properties */
    EvenAlign bool // must start on an even register
    Candidate bool // participates in register allocation
    RetAddr   bool // holds a return address, must never spill
    EOTSrc    bool // message source of an end-of-thread send
    SpillTemp bool // synthesized by the spill manager

    /* split-variable bookkeeping: a split parent keeps the list of its
     * independently-live pieces, each piece points back at the parent */
    Parent  *Declare
    SubOff  int
    SubDcls []*Declare
}

// Root resolves a sub-declare to its split parent.
func (self *Declare) Root() *Declare {
    if self.Parent != nil {
        return self.Parent
    } else {
        return self
    }
}

func (self *Declare) IsSubDcl() bool {
    return self.Parent != nil
}

func (self *Declare) IsSplitDcl() bool {
    return len(self.SubDcls) != 0
}

// WordSize is the variable size in sub-register words.
func (self *Declare) WordSize() int {
    return (self.ByteSize + WordBytes - 1) / WordBytes
}

// RegsNeeded is the footprint of the variable in whole registers of
// its file. Address and flag variables always occupy a single unit.
func (self *Declare) RegsNeeded() int {
    if self.RegFile != RegFileGRF {
        return 1
    } else {
        return (self.ByteSize + GRFBytes - 1) / GRFBytes
    }
}

func (self *Declare) String() string {
    return fmt.Sprintf("%s:%s[%d]", self.Name, self.RegFile, self.ByteSize)
}

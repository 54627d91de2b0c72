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
    `github.com/vexgen/vexgen/gir`
    `github.com/vexgen/vexgen/internal/opts`
)

func testOptions(grf int) *opts.Options {
    cfg := opts.GetDefaultOptions()
    cfg.GRFCount = grf
    return &cfg
}

// _KB builds small straight-line kernels for allocator tests.
type _KB struct {
    kern *gir.Kernel
    bb   *gir.BasicBlock
}

func kb(name string, simd int) *_KB {
    p := &_KB{kern: &gir.Kernel{Name: name, SimdSize: simd}}
    p.block()
    return p
}

func (self *_KB) block() *_KB {
    self.bb = &gir.BasicBlock{Id: len(self.kern.Blocks)}
    self.kern.Blocks = append(self.kern.Blocks, self.bb)
    return self
}

func (self *_KB) grf(name string, size int) *gir.Declare {
    return self.kern.NewDeclare(name, gir.RegFileGRF, size)
}

func (self *_KB) addr(name string) *gir.Declare {
    return self.kern.NewDeclare(name, gir.RegFileAddr, gir.WordBytes)
}

func (self *_KB) flag(name string) *gir.Declare {
    return self.kern.NewDeclare(name, gir.RegFileFlag, gir.WordBytes)
}

func (self *_KB) emit(op gir.Op, dst *gir.Declare, srcs ...*gir.Declare) *gir.Instr {
    v := &gir.Instr{Op: op, Mask: gir.ExecMask{Size: self.kern.SimdSize}}
    if dst != nil {
        v.Dst = &gir.Operand{Dcl: dst}
    }
    for _, s := range srcs {
        v.Srcs = append(v.Srcs, &gir.Operand{Dcl: s})
    }
    self.bb.Ins = append(self.bb.Ins, v)
    return v
}

// mov with no sources stands in for a load-immediate definition.
func (self *_KB) mov(dst *gir.Declare, srcs ...*gir.Declare) *gir.Instr {
    return self.emit(gir.OpMov, dst, srcs...)
}

func (self *_KB) add(dst *gir.Declare, srcs ...*gir.Declare) *gir.Instr {
    return self.emit(gir.OpAdd, dst, srcs...)
}

func (self *_KB) done() (*gir.Kernel, *gir.Liveness) {
    self.kern.Renumber()
    return self.kern, gir.NewLiveness(len(self.kern.Blocks), len(self.kern.Declares))
}

// build runs the analysis pipeline (no coloring) over one register
// file with default-ish options, for tests that poke at the graph.
func buildTestGraph(kern *gir.Kernel, live *gir.Liveness, cfg *opts.Options, rf gir.RegFile) (*Interference, error) {
    fbd := newForbiddenRegs(cfg)
    lrs, lrOf, err := buildLiveRanges(kern, rf, fbd, nil)
    if err != nil {
        return nil, err
    }
    intf := newInterference(kern, live, cfg, fbd, lrs, lrOf)
    intf.computeInterference()
    newAugmenter(intf).augmentIntfGraph()
    intf.generateSparseIntf()
    return intf, nil
}

func lrByName(intf *Interference, name string) *LiveRange {
    for _, lr := range intf.lrs {
        if lr != nil && lr.dcl.Name == name {
            return lr
        }
    }
    return nil
}

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

// Package kyaml loads kernel descriptions from YAML: declares, basic
// blocks with typed instructions, and the per-block liveness sets the
// allocator consumes. It exists for the command-line driver and for
// test fixtures; production frontends build gir values directly.
package kyaml

import (
    `fmt`
    `os`

    `github.com/vexgen/vexgen/gir`
    `gopkg.in/yaml.v3`
)

type _Document struct {
    Name     string      `yaml:"name"`
    Simd     int         `yaml:"simd"`
    Declares []_Declare  `yaml:"declares"`
    Blocks   []_Block    `yaml:"blocks"`
    Liveness []_Liveness `yaml:"liveness"`
}

type _Declare struct {
    Name  string `yaml:"name"`
    File  string `yaml:"file"`
    Size  int    `yaml:"size"`
    Align string `yaml:"align"`
    Even  bool   `yaml:"even"`
    EOT   bool   `yaml:"eot"`
    Ret   bool   `yaml:"retaddr"`
}

type _Block struct {
    Ins []_Instr `yaml:"ins"`
}

type _Instr struct {
    Op      string    `yaml:"op"`
    Dst     *_Operand `yaml:"dst"`
    Srcs    []_Operand `yaml:"srcs"`
    Pred    *_Operand `yaml:"pred"`
    CondMod *_Operand `yaml:"condmod"`
    Mask    *_Mask    `yaml:"mask"`
    Call    *_Call    `yaml:"call"`
}

type _Operand struct {
    Var   string `yaml:"var"`
    Off   int    `yaml:"off"`
    Bytes int    `yaml:"bytes"`
}

type _Mask struct {
    Off    int  `yaml:"off"`
    Size   int  `yaml:"size"`
    NoMask bool `yaml:"nomask"`
}

type _Call struct {
    Callee  string   `yaml:"callee"`
    UsedGRF []int    `yaml:"used_grf"`
    RetVals []string `yaml:"retvals"`
}

type _Liveness struct {
    In  []string `yaml:"in"`
    Out []string `yaml:"out"`
}

var _OpByName = map[string]gir.Op {
    "nop"  : gir.OpNop,
    "mov"  : gir.OpMov,
    "add"  : gir.OpAdd,
    "mul"  : gir.OpMul,
    "cmp"  : gir.OpCmp,
    "sel"  : gir.OpSel,
    "mad"  : gir.OpMad,
    "send" : gir.OpSend,
    "call" : gir.OpCall,
    "ret"  : gir.OpRet,
}

var _FileByName = map[string]gir.RegFile {
    ""     : gir.RegFileGRF,
    "grf"  : gir.RegFileGRF,
    "addr" : gir.RegFileAddr,
    "flag" : gir.RegFileFlag,
}

var _AlignByName = map[string]gir.SubAlign {
    ""     : gir.AlignAny,
    "any"  : gir.AlignAny,
    "even" : gir.AlignEven,
    "quad" : gir.AlignQuad,
    "half" : gir.AlignHalf,
    "grf"  : gir.AlignGRF,
}

// _Loader resolves names while translating the document.
type _Loader struct {
    doc  _Document
    kern *gir.Kernel
    dcls map[string]*gir.Declare
}

// Load parses a YAML kernel description into a kernel and its
// liveness sets.
func Load(buf []byte) (*gir.Kernel, *gir.Liveness, error) {
    ld := new(_Loader)
    if err := yaml.Unmarshal(buf, &ld.doc); err != nil {
        return nil, nil, fmt.Errorf("kyaml: malformed kernel description: %w", err)
    }
    return ld.build()
}

// LoadFile is Load over the contents of a file.
func LoadFile(fn string) (*gir.Kernel, *gir.Liveness, error) {
    buf, err := os.ReadFile(fn)
    if err != nil {
        return nil, nil, err
    }
    return Load(buf)
}

func (self *_Loader) build() (*gir.Kernel, *gir.Liveness, error) {
    simd := self.doc.Simd
    if simd == 0 {
        simd = 16
    }
    self.kern = &gir.Kernel{Name: self.doc.Name, SimdSize: simd}
    self.dcls = make(map[string]*gir.Declare, len(self.doc.Declares))

    if err := self.buildDeclares(); err != nil {
        return nil, nil, err
    }
    if err := self.buildBlocks(); err != nil {
        return nil, nil, err
    }

    live, err := self.buildLiveness()
    if err != nil {
        return nil, nil, err
    }
    self.kern.Renumber()
    return self.kern, live, nil
}

func (self *_Loader) buildDeclares() error {
    for _, d := range self.doc.Declares {
        rf, ok := _FileByName[d.File]
        if !ok {
            return fmt.Errorf("kyaml: declare %q: unknown register file %q", d.Name, d.File)
        }
        al, ok := _AlignByName[d.Align]
        if !ok {
            return fmt.Errorf("kyaml: declare %q: unknown alignment %q", d.Name, d.Align)
        }
        if d.Size <= 0 {
            return fmt.Errorf("kyaml: declare %q: invalid size %d", d.Name, d.Size)
        }
        if _, dup := self.dcls[d.Name]; dup {
            return fmt.Errorf("kyaml: duplicate declare %q", d.Name)
        }
        dcl := self.kern.NewDeclare(d.Name, rf, d.Size)
        dcl.SubAlign = al
        dcl.EvenAlign = d.Even
        dcl.EOTSrc = d.EOT
        dcl.RetAddr = d.Ret
        self.dcls[d.Name] = dcl
    }
    return nil
}

func (self *_Loader) operand(p *_Operand) (*gir.Operand, error) {
    if p == nil {
        return nil, nil
    }
    dcl, ok := self.dcls[p.Var]
    if !ok {
        return nil, fmt.Errorf("kyaml: reference to undeclared variable %q", p.Var)
    }
    return &gir.Operand{Dcl: dcl, ByteOff: p.Off, Bytes: p.Bytes}, nil
}

func (self *_Loader) instr(p *_Instr, simd int) (*gir.Instr, error) {
    op, ok := _OpByName[p.Op]
    if !ok {
        return nil, fmt.Errorf("kyaml: unknown opcode %q", p.Op)
    }

    v := &gir.Instr{Op: op, Mask: gir.ExecMask{Size: simd}}
    if p.Mask != nil {
        v.Mask = gir.ExecMask{Off: p.Mask.Off, Size: p.Mask.Size, NoMask: p.Mask.NoMask}
    }

    var err error
    if v.Dst, err = self.operand(p.Dst); err != nil {
        return nil, err
    }
    if v.Pred, err = self.operand(p.Pred); err != nil {
        return nil, err
    }
    if v.CondMod, err = self.operand(p.CondMod); err != nil {
        return nil, err
    }
    for i := range p.Srcs {
        s, err := self.operand(&p.Srcs[i])
        if err != nil {
            return nil, err
        }
        v.Srcs = append(v.Srcs, s)
    }
    if p.Call != nil {
        if v.Call, err = self.callsite(p.Call); err != nil {
            return nil, err
        }
    }
    return v, nil
}

func (self *_Loader) callsite(p *_Call) (*gir.CallSite, error) {
    cs := &gir.CallSite {
        Callee: &gir.CalleeSummary{Name: p.Callee, UsedGRF: gir.NewBitSet(0)},
    }
    for _, r := range p.UsedGRF {
        cs.Callee.UsedGRF.Set(r)
    }
    for _, name := range p.RetVals {
        dcl, ok := self.dcls[name]
        if !ok {
            return nil, fmt.Errorf("kyaml: call %q: undeclared return value %q", p.Callee, name)
        }
        cs.RetVals = append(cs.RetVals, dcl)
    }
    return cs, nil
}

func (self *_Loader) buildBlocks() error {
    for bi, b := range self.doc.Blocks {
        bb := &gir.BasicBlock{Id: bi}
        for ii := range b.Ins {
            v, err := self.instr(&b.Ins[ii], self.kern.SimdSize)
            if err != nil {
                return fmt.Errorf("%w (block %d)", err, bi)
            }
            bb.Ins = append(bb.Ins, v)
        }
        self.kern.Blocks = append(self.kern.Blocks, bb)
    }
    return nil
}

func (self *_Loader) liveSet(vec *gir.BitSet, names []string) error {
    for _, name := range names {
        dcl, ok := self.dcls[name]
        if !ok {
            return fmt.Errorf("kyaml: liveness names undeclared variable %q", name)
        }
        vec.Set(dcl.Id)
    }
    return nil
}

func (self *_Loader) buildLiveness() (*gir.Liveness, error) {
    if len(self.doc.Liveness) != len(self.kern.Blocks) {
        return nil, fmt.Errorf("kyaml: %d liveness entries for %d blocks", len(self.doc.Liveness), len(self.kern.Blocks))
    }
    live := gir.NewLiveness(len(self.kern.Blocks), len(self.kern.Declares))

    for bi, lv := range self.doc.Liveness {
        if err := self.liveSet(live.LiveIn[bi], lv.In); err != nil {
            return nil, err
        }
        if err := self.liveSet(live.LiveOut[bi], lv.Out); err != nil {
            return nil, err
        }
    }
    return live, nil
}

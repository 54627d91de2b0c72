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

    `github.com/bytedance/gopkg/util/logger`
    `github.com/vexgen/vexgen/gir`
    `github.com/vexgen/vexgen/internal/opts`
)

// Assignment is the final placement of one declare: a physical
// register, or a scratch slot if the variable was spilled.
type Assignment struct {
    Dcl     *gir.Declare
    Reg     int
    Spilled bool
    Slot    int
}

// Stats accumulates allocation effort across every register file and
// retry iteration of one kernel.
type Stats struct {
    Iterations      int
    SpilledVars     int
    GRFSpills       int
    GRFFills        int
    AddrSpillStores int
    AddrSpillLoads  int
    FlagSpillStores int
    FlagSpillLoads  int
    ScratchBytes    int
    FailSafe        bool
}

// Result is the outcome of allocating one kernel.
type Result struct {
    Assignments map[*gir.Declare]Assignment
    Stats       Stats
}

// Allocator drives register allocation for one kernel: the three
// register files are colored in turn, each with its own spill-and-
// retry loop, and architectural-file spill code can itself introduce
// GRF pressure since the GRF round runs last.
type Allocator struct {
    cfg    *opts.Options
    kernel *gir.Kernel
    live   *gir.Liveness
    fbd    *ForbiddenRegs
    sm     *SpillManager
    out    map[*gir.Declare]Assignment
    stats  Stats
}

func NewAllocator(kernel *gir.Kernel, live *gir.Liveness, cfg *opts.Options) *Allocator {
    return &Allocator {
        cfg    : cfg,
        kernel : kernel,
        live   : live,
        fbd    : newForbiddenRegs(cfg),
        sm     : newSpillManager(kernel, live, cfg),
        out    : make(map[*gir.Declare]Assignment),
    }
}

// Allocate colors the address and flag files first, then the GRF
// file. The ordering matters: spilling an address or flag variable
// materializes GRF carriers, which the final round must still place.
func (self *Allocator) Allocate() (*Result, error) {
    for _, rf := range [...]gir.RegFile{gir.RegFileAddr, gir.RegFileFlag, gir.RegFileGRF} {
        if err := self.allocRegFile(rf); err != nil {
            return nil, err
        }
    }
    self.stats.ScratchBytes = self.sm.scratchSize()
    return &Result{Assignments: self.out, Stats: self.stats}, nil
}

// buildGraph runs one iteration's analysis pipeline up to (and not
// including) coloring. With inc set the graph is seeded from the
// previous iteration and the lexical walk only refreshes dirty edges.
func (self *Allocator) buildGraph(rf gir.RegFile, inc *IncrementalRA) (*Interference, error) {
    lrs, lrOf, err := buildLiveRanges(self.kernel, rf, self.fbd, inc)
    if err != nil {
        return nil, err
    }

    intf := newInterference(self.kernel, self.live, self.cfg, self.fbd, lrs, lrOf)
    if inc != nil {
        inc.seedInterference(intf)
    }
    intf.computeInterference()
    newAugmenter(intf).augmentIntfGraph()
    return intf, nil
}

func (self *Allocator) allocRegFile(rf gir.RegFile) error {
    var inc *IncrementalRA
    if self.cfg.Incremental {
        inc = newIncrementalRA()
    }

    failSafe := false
    prevSpills := math.MaxInt32

    for iter := 0; iter < self.cfg.MaxIterations; iter++ {
        self.stats.Iterations++

        intf, err := self.buildGraph(rf, inc)
        if err != nil {
            return err
        }

        /* cross-check the carried-over graph against a scratch build */
        if inc != nil && inc.prevIntf != nil && self.cfg.VerifyIncremental {
            if err = self.verifyGraph(inc, intf); err != nil {
                return err
            }
        }

        intf.generateSparseIntf()
        if rf == gir.RegFileGRF && self.cfg.BankConflicts {
            newBankConflictPass(intf).run(self.kernel)
        }
        if self.cfg.Debug {
            dumpInterference(intf)
            dumpLiveRanges(intf.lrs)
        }

        gc := newGraphColor(intf, rf)
        if err = gc.color(); err != nil {
            return err
        }

        /* a clean coloring finishes the file */
        if len(gc.spilled) == 0 {
            self.recordAssignments(intf.lrs)
            if rf == gir.RegFileGRF && self.cfg.ChartPath != "" {
                drawRegChart(self.cfg.ChartPath, self.kernel, intf.lrs)
            }
            return nil
        }

        nspill := len(gc.spilled)
        self.stats.SpilledVars += nspill
        logger.Warnf("ra: kernel %q: %s iteration %d spilled %d variable(s)",
            self.kernel.Name, rf, iter, nspill)

        /* demand strict progress; the first stall arms fail-safe mode,
         * a second one gives up */
        if nspill >= prevSpills {
            if failSafe || rf != gir.RegFileGRF || self.cfg.FailSafeRegs <= 0 {
                return ErrNonConvergence
            }
            failSafe = true
            self.enterFailSafe()
        }
        prevSpills = nspill

        if err = self.spill(gc.spilled, failSafe); err != nil {
            return err
        }
        if inc != nil {
            inc.commitIteration(intf, gc.spilled)
        }
    }
    return ErrMaxIterations
}

// verifyGraph rebuilds the interference graph from scratch, over the
// same live-range id space, and demands edge-for-edge equality with
// the incrementally maintained one.
func (self *Allocator) verifyGraph(inc *IncrementalRA, intf *Interference) error {
    scratch := newInterference(self.kernel, self.live, self.cfg, self.fbd, intf.lrs, intf.lrOf)
    scratch.computeInterference()
    newAugmenter(scratch).augmentIntfGraph()
    return inc.verifyInterference(intf, scratch, self.kernel.Name)
}

// spill rewrites the kernel for the spilled set. In fail-safe mode
// every temporary the rewrite creates is pinned into the emergency
// registers and withdrawn from the candidate set, so spill code itself
// can no longer fail to allocate. The rotation restarts at every
// rewritten instruction: temps serving the same instruction are live
// at once and must not alias, while temps of different instructions
// never coexist and may reuse the window. An instruction that needs
// more temps than the window holds cannot be repaired this way.
func (self *Allocator) spill(spilled []*LiveRange, failSafe bool) error {
    mark := len(self.sm.tempsCreated)
    self.sm.insertSpillCode(spilled)

    for _, lr := range spilled {
        self.out[lr.dcl] = Assignment {
            Dcl     : lr.dcl,
            Reg     : _NoReg,
            Spilled : true,
            Slot    : lr.spillSlot,
        }
    }

    if !failSafe {
        return nil
    }
    base := self.cfg.GRFCount - self.cfg.FailSafeRegs
    group, next := -1, 0

    for i, t := range self.sm.tempsCreated[mark:] {
        if t.RegFile != gir.RegFileGRF {
            continue
        }
        if g := self.sm.tempGroup[mark + i]; g != group {
            group, next = g, 0
        }
        if next >= self.cfg.FailSafeRegs {
            return ErrNonConvergence
        }
        t.Candidate = false
        self.out[t] = Assignment{Dcl: t, Reg: base + next}
        next++
    }
    return nil
}

// enterFailSafe reserves the emergency window: the forbidden templates
// are regenerated with the top registers carved out so ordinary ranges
// can no longer land there.
func (self *Allocator) enterFailSafe() {
    cfg := *self.cfg
    if cfg.ReservedGRFs < cfg.FailSafeRegs {
        cfg.ReservedGRFs = cfg.FailSafeRegs
    }
    self.fbd = newForbiddenRegs(&cfg)
    self.stats.FailSafe = true
    logger.Warnf("ra: kernel %q: spill count stalled, entering fail-safe allocation", self.kernel.Name)
}

func (self *Allocator) recordAssignments(lrs []*LiveRange) {
    for _, lr := range lrs {
        if lr != nil && lr.phyReg != _NoReg {
            self.out[lr.dcl] = Assignment{Dcl: lr.dcl, Reg: lr.phyReg}
        }
    }
    self.collectSpillStats()
}

func (self *Allocator) collectSpillStats() {
    self.stats.GRFSpills = self.sm.numGRFSpill
    self.stats.GRFFills = self.sm.numGRFFill
    self.stats.AddrSpillStores = self.sm.numAddrSpillStore
    self.stats.AddrSpillLoads = self.sm.numAddrSpillLoad
    self.stats.FlagSpillStores = self.sm.numFlagSpillStore
    self.stats.FlagSpillLoads = self.sm.numFlagSpillLoad
}

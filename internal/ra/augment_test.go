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
    `testing`

    `github.com/stretchr/testify/require`
    `github.com/vexgen/vexgen/gir`
)

func TestAugment_MaskClassification(t *testing.T) {
    cfg := testOptions(16)

    p := kb("masks", 8)
    d32 := p.grf("d32", 32) // 32 bytes / 8 lanes = dword
    d16 := p.grf("d16", 16)
    d64 := p.grf("d64", 64)
    nm := p.grf("nm", 32)
    pr := p.grf("pr", 32)
    fl := p.flag("fl")

    p.mov(d32)
    p.mov(d16)
    p.mov(d64)
    p.mov(nm).Mask.NoMask = true
    p.mov(pr).Pred = &gir.Operand{Dcl: fl}
    p.emit(gir.OpCmp, nil).CondMod = &gir.Operand{Dcl: fl}
    kern, live := p.done()

    intf, err := buildTestGraph(kern, live, cfg, gir.RegFileGRF)
    require.NoError(t, err)

    require.Equal(t, MaskDefault32, lrByName(intf, "d32").mask)
    require.Equal(t, MaskDefault16, lrByName(intf, "d16").mask)
    require.Equal(t, MaskDefault64, lrByName(intf, "d64").mask)
    require.Equal(t, MaskNonDefault, lrByName(intf, "nm").mask)
    require.Equal(t, MaskNonDefault, lrByName(intf, "pr").mask)

    flg, err := buildTestGraph(kern, live, cfg, gir.RegFileFlag)
    require.NoError(t, err)
    require.Equal(t, MaskDefaultPredicate, lrByName(flg, "fl").mask)
}

func TestAugment_ConflictingDefsDegrade(t *testing.T) {
    cfg := testOptions(16)

    p := kb("degrade", 8)
    x := p.grf("x", 32)
    p.mov(x)
    p.mov(x).Mask.NoMask = true
    kern, live := p.done()

    intf, err := buildTestGraph(kern, live, cfg, gir.RegFileGRF)
    require.NoError(t, err)
    require.Equal(t, MaskNonDefault, lrByName(intf, "x").mask)
}

func TestAugment_SweepEdges(t *testing.T) {
    cfg := testOptions(16)

    p := kb("sweep", 16)
    a := p.grf("a", 32)
    b := p.grf("b", 32)
    c := p.grf("c", 16)
    d := p.grf("d", 32)
    p.mov(a)
    p.mov(b)
    p.mov(c)
    p.mov(d)
    kern, live := p.done()

    fbd := newForbiddenRegs(cfg)
    lrs, lrOf, err := buildLiveRanges(kern, gir.RegFileGRF, fbd, nil)
    require.NoError(t, err)

    intf := newInterference(kern, live, cfg, fbd, lrs, lrOf)
    aug := newAugmenter(intf)

    set := func(dcl *gir.Declare, m AugmentMask, lo int, hi int, s int, e int) *LiveRange {
        lr := lrs[lrOf[dcl.Id]]
        lr.mask = m
        lr.chanLo, lr.chanHi = lo, hi
        lr.startId, lr.endId = s, e
        return lr
    }

    /* all four overlap lexically; only a/b are same-width defaults */
    la := set(a, MaskDefault32, 0, 8, 0, 10)
    lb := set(b, MaskDefault32, 8, 16, 1, 9)
    lc := set(c, MaskDefault16, 0, 8, 2, 8)
    ld := set(d, MaskNonDefault, 0, 16, 3, 7)

    aug.sweepIntervals()

    /* non-default conflicts with everything it overlaps */
    require.True(t, intf.interfereBetween(ld.id, la.id))
    require.True(t, intf.interfereBetween(ld.id, lb.id))
    require.True(t, intf.interfereBetween(ld.id, lc.id))

    /* different element widths conflict */
    require.True(t, intf.interfereBetween(lc.id, la.id))
    require.True(t, intf.interfereBetween(lc.id, lb.id))

    /* same width, disjoint lanes: no edge, proven compatible */
    require.False(t, intf.interfereBetween(la.id, lb.id))
    require.True(t, intf.isCompatible(la.id, lb.id))
}

func TestAugment_ExpiredIntervalsDontConflict(t *testing.T) {
    cfg := testOptions(16)

    p := kb("expire", 16)
    a := p.grf("a", 32)
    b := p.grf("b", 32)
    p.mov(a)
    p.mov(b)
    kern, live := p.done()

    fbd := newForbiddenRegs(cfg)
    lrs, lrOf, err := buildLiveRanges(kern, gir.RegFileGRF, fbd, nil)
    require.NoError(t, err)

    intf := newInterference(kern, live, cfg, fbd, lrs, lrOf)
    aug := newAugmenter(intf)

    la, lb := lrs[lrOf[a.Id]], lrs[lrOf[b.Id]]
    la.mask, la.startId, la.endId = MaskNonDefault, 0, 3
    lb.mask, lb.startId, lb.endId = MaskNonDefault, 5, 9

    aug.sweepIntervals()
    require.False(t, intf.interfereBetween(la.id, lb.id))
}

func TestAugment_CallSites(t *testing.T) {
    cfg := testOptions(16)

    p := kb("calls", 8)
    x := p.grf("x", 32)
    rv := p.grf("rv", 32)
    y := p.grf("y", 32)

    p.mov(x)
    call := p.emit(gir.OpCall, nil)
    call.Call = &gir.CallSite {
        Callee  : &gir.CalleeSummary{Name: "fn", UsedGRF: gir.NewBitSet(16)},
        RetVals : []*gir.Declare{rv},
    }
    call.Call.Callee.UsedGRF.Set(3)
    p.mov(rv)
    p.add(y, x, rv)
    kern, live := p.done()

    intf, err := buildTestGraph(kern, live, cfg, gir.RegFileGRF)
    require.NoError(t, err)

    /* x lives across the call: the callee's footprint is forbidden
     * and the caller-save half is off limits */
    lx := lrByName(intf, "x")
    require.True(t, lx.forbidden.Test(3))
    require.True(t, lx.forbidden.Test(0))
    require.False(t, lx.forbidden.Test(12))
    require.True(t, lx.calleeSaveBias)

    /* and it must not share a register with the return value */
    require.True(t, intf.interfereBetween(lx.id, lrByName(intf, "rv").id))
}

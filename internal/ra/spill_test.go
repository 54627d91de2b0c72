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

func spillSetup(t *testing.T, kern *gir.Kernel, live *gir.Liveness, names ...string) (*SpillManager, []*LiveRange) {
    cfg := testOptions(16)
    intf, err := buildTestGraph(kern, live, cfg, gir.RegFileGRF)
    require.NoError(t, err)

    rr := make([]*LiveRange, 0, len(names))
    for _, name := range names {
        lr := lrByName(intf, name)
        require.NotNil(t, lr)
        rr = append(rr, lr)
    }
    return newSpillManager(kern, live, cfg), rr
}

func opsOf(kern *gir.Kernel) (rr []gir.Op) {
    for _, bb := range kern.Blocks {
        for _, v := range bb.Ins {
            rr = append(rr, v.Op)
        }
    }
    return
}

func TestSpill_GRFRewrite(t *testing.T) {
    p := kb("grfspill", 8)
    a := p.grf("a", 32)
    b := p.grf("b", 32)
    p.mov(a)
    p.mov(b, a)
    kern, live := p.done()
    live.LiveOut[0].Set(a.Id)

    sm, rr := spillSetup(t, kern, live, "a")
    sm.insertSpillCode(rr)

    /* def gets a trailing store, use gets a leading fill */
    require.Equal(t, []gir.Op {
        gir.OpMov,
        gir.OpSpillStore,
        gir.OpSpillLoad,
        gir.OpMov,
    }, opsOf(kern))

    require.False(t, a.Candidate)
    require.True(t, live.LiveOut[0].Empty())
    require.Equal(t, 1, sm.numGRFSpill)
    require.Equal(t, 1, sm.numGRFFill)

    /* operands now reference infinite-cost temporaries */
    use := kern.Blocks[0].Ins[3].Srcs[0].Dcl
    require.True(t, use.SpillTemp)
    require.NotEqual(t, a, use)

    /* instruction ids were renumbered densely */
    for i, v := range kern.Blocks[0].Ins {
        require.Equal(t, i, v.Id)
    }
}

func TestSpill_SlotRounding(t *testing.T) {
    p := kb("slots", 8)
    a := p.grf("a", 20)
    b := p.grf("b", 40)
    c := p.grf("c", 32)
    p.mov(a)
    p.mov(b)
    p.mov(c)
    kern, live := p.done()

    sm, rr := spillSetup(t, kern, live, "a", "b", "c")
    sm.insertSpillCode(rr)

    /* 32-byte granularity: 20 -> 32, 40 -> 64 */
    require.Equal(t, 0, rr[0].spillSlot)
    require.Equal(t, 32, rr[1].spillSlot)
    require.Equal(t, 96, rr[2].spillSlot)
    require.Equal(t, 128, sm.scratchSize())
}

func TestSpill_AddrBouncesThroughGRF(t *testing.T) {
    p := kb("addrspill", 8)
    a0 := p.addr("a0")
    x := p.grf("x", 32)
    p.mov(a0)
    p.emit(gir.OpSend, x, a0)
    kern, live := p.done()

    cfg := testOptions(16)
    intf, err := buildTestGraph(kern, live, cfg, gir.RegFileAddr)
    require.NoError(t, err)

    sm := newSpillManager(kern, live, cfg)
    sm.insertSpillCode([]*LiveRange{lrByName(intf, "a0")})

    /* store side: mov to carrier then spill.store; fill side: the
     * mirror image */
    require.Equal(t, []gir.Op {
        gir.OpMov,
        gir.OpMov,
        gir.OpSpillStore,
        gir.OpSpillLoad,
        gir.OpMov,
        gir.OpSend,
    }, opsOf(kern))

    require.Equal(t, 1, sm.numAddrSpillStore)
    require.Equal(t, 1, sm.numAddrSpillLoad)
    require.Zero(t, sm.numGRFSpill)

    /* the architectural temp stays in the address file, the carrier
     * does not */
    use := kern.Blocks[0].Ins[5].Srcs[0].Dcl
    require.Equal(t, gir.RegFileAddr, use.RegFile)
    require.True(t, use.SpillTemp)
}

func TestSpill_SubDeclareOffsetFolding(t *testing.T) {
    p := kb("subspill", 8)
    w := p.grf("w", 64)
    hi := p.kern.NewSubDeclare(w, 32, 32)
    z := p.grf("z", 32)
    p.mov(w)
    p.emit(gir.OpMov, z, hi)
    kern, live := p.done()

    sm, rr := spillSetup(t, kern, live, "w")
    sm.insertSpillCode(rr)

    /* the use through the sub-declare folds its offset into the
     * rewritten operand */
    use := kern.Blocks[0].Ins[3].Srcs[0]
    require.True(t, use.Dcl.SpillTemp)
    require.Equal(t, 32, use.ByteOff)
}

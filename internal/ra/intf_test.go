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

func TestIntf_EdgePrimitives(t *testing.T) {
    for _, limit := range []int{0, 1000} {
        cfg := testOptions(16)
        cfg.DenseLimit = limit

        p := kb("prim", 8)
        a := p.grf("a", 32)
        b := p.grf("b", 32)
        c := p.grf("c", 32)
        p.mov(a)
        kern, live := p.done()

        fbd := newForbiddenRegs(cfg)
        lrs, lrOf, err := buildLiveRanges(kern, gir.RegFileGRF, fbd, nil)
        require.NoError(t, err)
        require.Equal(t, 3, len(lrs))

        intf := newInterference(kern, live, cfg, fbd, lrs, lrOf)
        require.Equal(t, limit != 0, intf.isDense())

        ia, ib, ic := lrOf[a.Id], lrOf[b.Id], lrOf[c.Id]
        require.False(t, intf.interfereBetween(ia, ib))

        /* symmetric, idempotent insert */
        intf.setInterference(ia, ib)
        intf.setInterference(ib, ia)
        require.True(t, intf.interfereBetween(ia, ib))
        require.True(t, intf.interfereBetween(ib, ia))

        /* self edges are dropped */
        intf.setInterference(ic, ic)
        require.False(t, intf.interfereBetween(ic, ic))

        /* exactly one stored edge */
        n := 0
        intf.forEachEdge(func(v1 int, v2 int) { n++ })
        require.Equal(t, 1, n)

        intf.clearInterference(ia, ib)
        require.False(t, intf.interfereBetween(ia, ib))
    }
}

func TestIntf_DenseCapacityFallback(t *testing.T) {
    cfg := testOptions(16)
    cfg.DenseLimit = 1

    p := kb("cap", 8)
    p.grf("a", 32)
    p.grf("b", 32)
    kern, live := p.done()

    fbd := newForbiddenRegs(cfg)
    lrs, lrOf, err := buildLiveRanges(kern, gir.RegFileGRF, fbd, nil)
    require.NoError(t, err)

    /* node count exceeds the dense threshold */
    intf := newInterference(kern, live, cfg, fbd, lrs, lrOf)
    require.False(t, intf.isDense())
}

func TestIntf_DefKillsAndOverlap(t *testing.T) {
    cfg := testOptions(16)

    p := kb("kills", 8)
    a := p.grf("a", 32)
    b := p.grf("b", 32)
    c := p.grf("c", 32)
    t1 := p.grf("t", 32)
    u := p.grf("u", 32)
    p.mov(a)
    p.mov(b)
    p.mov(c)
    p.add(t1, b, c)
    p.add(u, t1, a)
    kern, live := p.done()

    intf, err := buildTestGraph(kern, live, cfg, gir.RegFileGRF)
    require.NoError(t, err)

    ia, ib, ic := intf.lrOf[a.Id], intf.lrOf[b.Id], intf.lrOf[c.Id]
    it, iu := intf.lrOf[t1.Id], intf.lrOf[u.Id]

    /* a lives through the b/c region and past t's definition */
    require.True(t, intf.interfereBetween(ia, ib))
    require.True(t, intf.interfereBetween(ia, ic))
    require.True(t, intf.interfereBetween(ib, ic))
    require.True(t, intf.interfereBetween(it, ia))

    /* b and c die feeding t; u is defined when everything else is dead */
    require.False(t, intf.interfereBetween(it, ib))
    require.False(t, intf.interfereBetween(it, ic))
    require.False(t, intf.interfereBetween(iu, ia))
    require.False(t, intf.interfereBetween(iu, it))
}

func TestIntf_BoundaryLiveSets(t *testing.T) {
    cfg := testOptions(16)

    p := kb("bounds", 8)
    x := p.grf("x", 32)
    y := p.grf("y", 32)
    p.mov(x, y)
    kern, live := p.done()

    /* x and y both live into the kernel: must be pairwise distinct
     * even though the instruction stream alone would not say so */
    live.LiveIn[0].Set(x.Id)
    live.LiveIn[0].Set(y.Id)

    intf, err := buildTestGraph(kern, live, cfg, gir.RegFileGRF)
    require.NoError(t, err)
    require.True(t, intf.interfereBetween(intf.lrOf[x.Id], intf.lrOf[y.Id]))
}

func TestIntf_NeighborLists(t *testing.T) {
    cfg := testOptions(16)

    p := kb("nbr", 8)
    a := p.grf("a", 32)
    b := p.grf("b", 32)
    c := p.grf("c", 32)
    t1 := p.grf("t", 32)
    u := p.grf("u", 32)
    p.mov(a)
    p.mov(b)
    p.mov(c)
    p.add(t1, b, c)
    p.add(u, t1, a)
    kern, live := p.done()

    intf, err := buildTestGraph(kern, live, cfg, gir.RegFileGRF)
    require.NoError(t, err)

    ia, ib := intf.lrOf[a.Id], intf.lrOf[b.Id]
    require.ElementsMatch(t,
        []int32{int32(intf.lrOf[b.Id]), int32(intf.lrOf[c.Id]), int32(intf.lrOf[t1.Id])},
        intf.neighbors(ia))

    /* both endpoints see the edge */
    require.Contains(t, intf.neighbors(ib), int32(ia))
}

func TestIntf_SubDeclaresNeverInterfere(t *testing.T) {
    cfg := testOptions(16)

    p := kb("split", 8)
    w := p.grf("w", 64)
    lo := p.kern.NewSubDeclare(w, 0, 32)
    hi := p.kern.NewSubDeclare(w, 32, 32)
    z := p.grf("z", 64)
    p.mov(lo)
    p.mov(hi)
    p.add(z, lo, hi)
    kern, live := p.done()

    intf, err := buildTestGraph(kern, live, cfg, gir.RegFileGRF)
    require.NoError(t, err)

    /* pieces get no live range of their own: references through them
     * resolve to the root, which carries the one placement */
    require.Equal(t, -1, intf.lrOf[lo.Id])
    require.Equal(t, -1, intf.lrOf[hi.Id])
    require.GreaterOrEqual(t, intf.lrOf[lo.Root().Id], 0)
    require.Equal(t, intf.lrOf[w.Id], intf.lrOf[lo.Root().Id])

    /* z dies into the add and matches w's element width, so neither
     * the lexical walk nor the channel sweep links them */
    require.False(t, intf.interfereBetween(intf.lrOf[z.Id], intf.lrOf[w.Id]))
}

func TestIntf_SubDeclareDefKeepsRootLive(t *testing.T) {
    cfg := testOptions(16)

    p := kb("halves", 8)
    w := p.grf("w", 64)
    lo := p.kern.NewSubDeclare(w, 0, 32)
    hi := p.kern.NewSubDeclare(w, 32, 32)
    y := p.grf("y", 32)
    t1 := p.grf("t", 32)
    p.mov(hi)
    p.mov(y)
    p.mov(t1, y)
    p.mov(lo)
    p.emit(gir.OpSend, nil, w, t1)
    kern, live := p.done()

    /* lexical walk only: the channel sweep must not paper over a
     * missing edge here */
    fbd := newForbiddenRegs(cfg)
    lrs, lrOf, err := buildLiveRanges(kern, gir.RegFileGRF, fbd, nil)
    require.NoError(t, err)

    intf := newInterference(kern, live, cfg, fbd, lrs, lrOf)
    intf.computeInterference()

    /* writing lo covers only the low half: w stays live from the hi
     * write down to the send, across the defs of y and t */
    iw, iy, it := lrOf[w.Id], lrOf[y.Id], lrOf[t1.Id]
    require.True(t, intf.interfereBetween(iw, iy))
    require.True(t, intf.interfereBetween(iw, it))
}

func TestIntf_RebuildIsIdentical(t *testing.T) {
    cfg := testOptions(16)

    p := kb("twice", 16)
    w := p.grf("w", 64)
    lo := p.kern.NewSubDeclare(w, 0, 32)
    hi := p.kern.NewSubDeclare(w, 32, 32)
    x := p.grf("x", 32)
    y := p.grf("y", 32)
    p.mov(x).Mask = gir.ExecMask{Off: 0, Size: 8}
    p.mov(y).Mask = gir.ExecMask{Off: 8, Size: 8}
    p.mov(lo)
    p.mov(hi, y)
    p.emit(gir.OpSend, nil, w, x, y)
    kern, live := p.done()

    edges := func(intf *Interference) (ee [][2]int) {
        intf.forEachEdge(func(v1 int, v2 int) { ee = append(ee, [2]int{v1, v2}) })
        return
    }

    /* rebuilding over an unmodified stream is bit-identical, down to
     * the flattened neighbor lists */
    g1, err := buildTestGraph(kern, live, cfg, gir.RegFileGRF)
    require.NoError(t, err)
    g2, err := buildTestGraph(kern, live, cfg, gir.RegFileGRF)
    require.NoError(t, err)

    require.NotEmpty(t, edges(g1))
    require.Equal(t, edges(g1), edges(g2))
    require.Equal(t, g1.nbr, g2.nbr)
}

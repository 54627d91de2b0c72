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

func incrementalKernel() (*gir.Kernel, *gir.Liveness, *_KB) {
    p := kb("inc", 8)
    a := p.grf("a", 32)
    b := p.grf("b", 32)
    c := p.grf("c", 32)
    t1 := p.grf("t", 32)
    p.mov(a)
    p.mov(b)
    p.mov(c)
    p.add(t1, b, c)
    p.emit(gir.OpSend, nil, t1, a)
    kern, live := p.done()
    return kern, live, p
}

func buildIncremental(t *testing.T, kern *gir.Kernel, live *gir.Liveness, inc *IncrementalRA) *Interference {
    cfg := testOptions(16)
    fbd := newForbiddenRegs(cfg)
    lrs, lrOf, err := buildLiveRanges(kern, gir.RegFileGRF, fbd, inc)
    require.NoError(t, err)

    intf := newInterference(kern, live, cfg, fbd, lrs, lrOf)
    if inc != nil {
        inc.seedInterference(intf)
    }
    intf.computeInterference()
    newAugmenter(intf).augmentIntfGraph()
    return intf
}

func TestIncremental_IdsAreStable(t *testing.T) {
    kern, live, _ := incrementalKernel()
    inc := newIncrementalRA()

    i1 := buildIncremental(t, kern, live, inc)
    ids := make(map[string]int)
    for _, lr := range i1.lrs {
        ids[lr.dcl.Name] = lr.id
    }

    /* spill b, rebuild: surviving ids must not move */
    spilled := []*LiveRange{lrByName(i1, "b")}
    sm := newSpillManager(kern, live, testOptions(16))
    sm.insertSpillCode(spilled)
    inc.commitIteration(i1, spilled)

    i2 := buildIncremental(t, kern, live, inc)
    for _, lr := range i2.lrs {
        if lr == nil || lr.dcl.SpillTemp {
            continue
        }
        require.Equal(t, ids[lr.dcl.Name], lr.id, "id of %s moved", lr.dcl.Name)
    }

    /* the spilled variable's id is a hole, never recycled */
    require.Nil(t, i2.lrs[ids["b"]])
    for _, lr := range i2.lrs {
        if lr != nil && lr.dcl.SpillTemp {
            require.Greater(t, lr.id, ids["t"])
        }
    }
}

func TestIncremental_CarriedGraphMatchesScratch(t *testing.T) {
    kern, live, _ := incrementalKernel()
    inc := newIncrementalRA()

    i1 := buildIncremental(t, kern, live, inc)

    spilled := []*LiveRange{lrByName(i1, "c")}
    sm := newSpillManager(kern, live, testOptions(16))
    sm.insertSpillCode(spilled)
    inc.commitIteration(i1, spilled)

    i2 := buildIncremental(t, kern, live, inc)

    /* scratch rebuild over the same id space */
    cfg := testOptions(16)
    scratch := newInterference(kern, live, cfg, i2.fbd, i2.lrs, i2.lrOf)
    scratch.computeInterference()
    newAugmenter(scratch).augmentIntfGraph()

    require.NoError(t, inc.verifyInterference(i2, scratch, kern.Name))
}

func TestIncremental_VerificationCatchesTampering(t *testing.T) {
    kern, live, _ := incrementalKernel()
    inc := newIncrementalRA()

    i1 := buildIncremental(t, kern, live, inc)

    spilled := []*LiveRange{lrByName(i1, "c")}
    sm := newSpillManager(kern, live, testOptions(16))
    sm.insertSpillCode(spilled)
    inc.commitIteration(i1, spilled)

    i2 := buildIncremental(t, kern, live, inc)

    cfg := testOptions(16)
    scratch := newInterference(kern, live, cfg, i2.fbd, i2.lrs, i2.lrOf)
    scratch.computeInterference()
    newAugmenter(scratch).augmentIntfGraph()

    /* invent an edge the scratch build does not have */
    lb, lt := lrByName(i2, "b"), lrByName(i2, "t")
    require.False(t, i2.interfereBetween(lb.id, lt.id))
    i2.dirty = nil
    i2.setInterference(lb.id, lt.id)

    err := inc.verifyInterference(i2, scratch, kern.Name)
    require.Error(t, err)
    require.IsType(t, InternalError{}, err)
}

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
    `fmt`
    `os`
    `sort`

    `github.com/ajstarks/svgo`
    `github.com/davecgh/go-spew/spew`
    `github.com/vexgen/vexgen/gir`
)

var debugSpew = spew.ConfigState {
    Indent                  : "    ",
    SortKeys                : true,
    DisableMethods          : true,
    DisablePointerMethods   : true,
    DisablePointerAddresses : true,
}

// dumpInterference prints every live range with its neighbor ids and
// the final per-node state. Intended for -debug runs only.
func dumpInterference(intf *Interference) {
    println(fmt.Sprintf("=== interference graph: %d node(s) ===", intf.maxId))
    for _, lr := range intf.lrs {
        if lr != nil {
            println(fmt.Sprintf("  #%-4d %-24s mask=%-16s bank=%-8s nbr=%v",
                lr.id, lr.String(), lr.mask, lr.bc, intf.nbr[lr.id]))
        }
    }
}

func dumpLiveRanges(lrs []*LiveRange) {
    debugSpew.Dump(lrs)
}

// drawRegChart renders the colored live intervals as an SVG: one
// column per live range, a vertical bar over its lexical interval,
// annotated with the assigned register or spill slot.
func drawRegChart(fn string, kernel *gir.Kernel, lrs []*LiveRange) {
    maxw := 0
    rr := make([]*LiveRange, 0, len(lrs))

    for _, lr := range lrs {
        if lr != nil && lr.endId >= lr.startId {
            rr = append(rr, lr)
            if n := len(lr.dcl.Name); n > maxw {
                maxw = n
            }
        }
    }
    sort.Slice(rr, func(i int, j int) bool {
        return rr[i].id < rr[j].id
    })

    fp, err := os.OpenFile(fn, os.O_RDWR | os.O_CREATE | os.O_TRUNC, 0644)
    if err != nil {
        panic(err)
    }

    colw := (maxw + 1) * 8 + 16
    leni := kernel.NumInstrs()
    p := svg.New(fp)
    p.Start(len(rr) * colw + 150, leni * 24 + 150)

    if _, err = fp.WriteString(`<rect width="100%" height="100%" fill="white" />` + "\n"); err != nil {
        panic(err)
    }

    /* instruction rows */
    at := 0
    for _, bb := range kernel.Blocks {
        p.Text(16, 100 + at * 24, fmt.Sprintf("bb_%d", bb.Id), "fill:gray;font-size:16px;font-family:monospace")
        for range bb.Ins {
            h := 95 + at * 24
            p.Line(10, h, len(rr) * colw + 120, h, "stroke:lightgray")
            at++
        }
    }

    /* one column per live range */
    for i, lr := range rr {
        x := 120 + i * colw
        tag := lr.dcl.Name

        if lr.spilled {
            tag = fmt.Sprintf("%s@sp%d", tag, lr.spillSlot)
        } else if lr.phyReg != _NoReg {
            tag = fmt.Sprintf("%s=r%d", tag, lr.phyReg)
        }

        p.Text(x, 70, tag, "fill:black;font-size:16px;font-family:monospace;text-anchor:middle")
        p.Line(x, 95 + lr.startId * 24, x, 95 + lr.endId * 24, "stroke:black;stroke-width:3")
        p.Circle(x, 95 + lr.startId * 24, 4, "fill:white;stroke:black;stroke-width:2")
        p.Circle(x, 95 + lr.endId * 24, 4, "fill:black;stroke:black;stroke-width:2")
    }

    p.End()
    if err = fp.Close(); err != nil {
        panic(err)
    }
}

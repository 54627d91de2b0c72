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

package main

import (
    `fmt`
    `os`
    `sort`

    `github.com/spf13/cobra`
    `github.com/vexgen/vexgen`
    `github.com/vexgen/vexgen/gir`
    `github.com/vexgen/vexgen/internal/kyaml`
)

var (
    flagGRF         int
    flagReserved    int
    flagIters       int
    flagFailSafe    int
    flagIncremental bool
    flagVerify      bool
    flagNoBanks     bool
    flagDebug       bool
    flagChart       string
)

func main() {
    root := &cobra.Command {
        Use          : "vexgen-ra",
        Short        : "register allocator driver for vexgen kernels",
        SilenceUsage : true,
    }

    alloc := &cobra.Command {
        Use   : "alloc <kernel.yaml>",
        Short : "allocate registers for a YAML kernel description",
        Args  : cobra.ExactArgs(1),
        RunE  : runAlloc,
    }

    fs := alloc.Flags()
    fs.IntVar(&flagGRF, "grf", 0, "general register count (0 = default)")
    fs.IntVar(&flagReserved, "reserved", 0, "registers withheld from allocation")
    fs.IntVar(&flagIters, "max-iters", 0, "spill iteration cap (0 = default)")
    fs.IntVar(&flagFailSafe, "fail-safe", -1, "emergency register count (-1 = default)")
    fs.BoolVar(&flagIncremental, "incremental", false, "carry interference across iterations")
    fs.BoolVar(&flagVerify, "verify", false, "cross-check incremental graphs against scratch builds")
    fs.BoolVar(&flagNoBanks, "no-bank-hints", false, "disable bank-conflict placement hints")
    fs.BoolVar(&flagDebug, "debug", false, "dump allocator state per iteration")
    fs.StringVar(&flagChart, "chart", "", "write an SVG live-interval chart to this path")

    root.AddCommand(alloc)
    if err := root.Execute(); err != nil {
        os.Exit(1)
    }
}

func options() (rr []vexgen.Option) {
    if flagGRF != 0 {
        rr = append(rr, vexgen.WithGRFCount(flagGRF))
    }
    if flagReserved != 0 {
        rr = append(rr, vexgen.WithReservedGRFs(flagReserved))
    }
    if flagIters != 0 {
        rr = append(rr, vexgen.WithMaxIterations(flagIters))
    }
    if flagFailSafe >= 0 {
        rr = append(rr, vexgen.WithFailSafeRegs(flagFailSafe))
    }
    if flagIncremental {
        rr = append(rr, vexgen.WithIncremental(flagVerify))
    }
    if flagNoBanks {
        rr = append(rr, vexgen.WithBankConflicts(false))
    }
    if flagDebug {
        rr = append(rr, vexgen.WithDebug(true))
    }
    if flagChart != "" {
        rr = append(rr, vexgen.WithChart(flagChart))
    }
    return
}

func runAlloc(cmd *cobra.Command, args []string) error {
    kern, live, err := kyaml.LoadFile(args[0])
    if err != nil {
        return err
    }

    ret, err := vexgen.Allocate(kern, live, options()...)
    if err != nil {
        return err
    }

    /* stable output order */
    rr := make([]vexgen.Assignment, 0, len(ret.Assignments))
    for _, asn := range ret.Assignments {
        rr = append(rr, asn)
    }
    sort.Slice(rr, func(i int, j int) bool {
        return rr[i].Dcl.Id < rr[j].Dcl.Id
    })

    for _, asn := range rr {
        if asn.Spilled {
            fmt.Printf("%-24s spilled, scratch+%d\n", asn.Dcl, asn.Slot)
        } else {
            fmt.Printf("%-24s %s%d\n", asn.Dcl, regPrefix(asn), asn.Reg)
        }
    }

    st := ret.Stats
    fmt.Printf("-- %d iteration(s), %d var(s) spilled, %d fill(s), %d spill store(s), %d scratch byte(s)\n",
        st.Iterations, st.SpilledVars, st.GRFFills, st.GRFSpills, st.ScratchBytes)
    if st.FailSafe {
        fmt.Println("-- fail-safe mode was engaged")
    }
    return nil
}

func regPrefix(asn vexgen.Assignment) string {
    switch asn.Dcl.RegFile {
        case gir.RegFileAddr : return "a"
        case gir.RegFileFlag : return "f"
        default              : return "r"
    }
}

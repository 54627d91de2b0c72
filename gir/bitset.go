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
    `math/bits`
    `strings`
)

const (
    _W_bits = 32
)

// BitSet is a growable bit-vector indexed from zero.
// The zero value is an empty set.
type BitSet struct {
    w []uint32
}

func NewBitSet(n int) *BitSet {
    return &BitSet {
        w: make([]uint32, (n + _W_bits - 1) / _W_bits),
    }
}

func (self *BitSet) grow(i int) {
    if n := i / _W_bits; n >= len(self.w) {
        self.w = append(self.w, make([]uint32, n - len(self.w) + 1)...)
    }
}

func (self *BitSet) Set(i int) {
    self.grow(i)
    self.w[i / _W_bits] |= 1 << (i % _W_bits)
}

func (self *BitSet) Clear(i int) {
    if i / _W_bits < len(self.w) {
        self.w[i / _W_bits] &^= 1 << (i % _W_bits)
    }
}

func (self *BitSet) Test(i int) bool {
    return i / _W_bits < len(self.w) && self.w[i / _W_bits] & (1 << (i % _W_bits)) != 0
}

func (self *BitSet) Or(bs *BitSet) {
    if len(bs.w) != 0 {
        self.grow(len(bs.w) * _W_bits - 1)
        for i, v := range bs.w { self.w[i] |= v }
    }
}

func (self *BitSet) AndNot(bs *BitSet) {
    for i := 0; i < len(self.w) && i < len(bs.w); i++ {
        self.w[i] &^= bs.w[i]
    }
}

// Reset clears every bit but keeps the storage.
func (self *BitSet) Reset() {
    for i := range self.w {
        self.w[i] = 0
    }
}

// CopyFrom overwrites the receiver with the contents of bs, reusing
// the existing storage when it is large enough.
func (self *BitSet) CopyFrom(bs *BitSet) {
    if cap(self.w) < len(bs.w) {
        self.w = make([]uint32, len(bs.w))
    }
    self.w = self.w[:len(bs.w)]
    copy(self.w, bs.w)
}

func (self *BitSet) Clone() (bs *BitSet) {
    bs = new(BitSet)
    bs.w = make([]uint32, len(self.w))
    copy(bs.w, self.w)
    return
}

func (self *BitSet) Empty() bool {
    for _, v := range self.w {
        if v != 0 {
            return false
        }
    }
    return true
}

func (self *BitSet) Count() (n int) {
    for _, v := range self.w {
        n += bits.OnesCount32(v)
    }
    return
}

func (self *BitSet) Equal(bs *BitSet) bool {
    p, q := self.w, bs.w
    if len(q) < len(p) { p, q = q, p }
    for i, v := range p { if v != q[i] { return false } }
    for _, v := range q[len(p):] { if v != 0 { return false } }
    return true
}

// ForEach calls fn for every set bit in ascending order.
func (self *BitSet) ForEach(fn func(i int)) {
    for wi, v := range self.w {
        for v != 0 {
            b := bits.TrailingZeros32(v)
            fn(wi * _W_bits + b)
            v &^= 1 << b
        }
    }
}

func (self *BitSet) String() string {
    nb := self.Count()
    rs := make([]string, 0, nb)

    /* convert every bit index */
    self.ForEach(func(i int) {
        rs = append(rs, fmt.Sprint(i))
    })

    /* join them together */
    return fmt.Sprintf(
        "{%s}",
        strings.Join(rs, ", "),
    )
}

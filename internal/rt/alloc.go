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

package rt

import (
    `unsafe`

    `github.com/bytedance/gopkg/lang/dirtmake`
)

// I32Scratch allocates an int32 slice without zeroing it. Callers must
// overwrite every element before reading; this is only for buffers
// that are filled completely right after allocation.
func I32Scratch(n int) []int32 {
    if n == 0 {
        return nil
    }
    buf := dirtmake.Bytes(n * 4, n * 4)
    return unsafe.Slice((*int32)(unsafe.Pointer(&buf[0])), n)
}

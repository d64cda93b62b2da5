// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockfree

import "code.hybscloud.com/iceoryx2/errs"

// ErrWouldBlock indicates the operation cannot proceed immediately: the
// queue is full (Enqueue), empty (Dequeue), or the unique-index set /
// descriptor set has no free slot. Alias of errs.ErrWouldBlock (itself an
// alias of iox.ErrWouldBlock) for ecosystem consistency.
var ErrWouldBlock = errs.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
func IsWouldBlock(err error) bool {
	return errs.IsWouldBlock(err)
}
